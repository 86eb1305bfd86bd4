package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/Veraticus/runway/internal/common"
)

// DefaultDatabasePath is used when database.path is unset.
const DefaultDatabasePath = "$HOME/.local/share/runway/runway.db"

// Config is the typed view of the runway configuration file and RUNWAY_ environment.
type Config struct {
	Database DatabaseConfig
	Logging  LoggingConfig
	Report   ReportConfig
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string
	Format string
}

// ReportConfig holds the defaults used by reporting commands.
type ReportConfig struct {
	Dataset    string
	Compare    string
	FiscalYear int
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("report.period", "months")
	v.SetDefault("tui.theme", "default")
	v.SetDefault("sheets.batch_size", 500)
	v.SetDefault("sheets.retry_attempts", 3)
	v.SetDefault("sheets.retry_delay", "1s")
	v.SetDefault("sheets.formatting", true)
}

// Load reads the typed configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the typed configuration from v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			Path: ExpandPath(v.GetString("database.path")),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		Report: ReportConfig{
			FiscalYear: v.GetInt("report.fiscal_year"),
			Dataset:    v.GetString("report.dataset"),
			Compare:    v.GetString("report.compare"),
		},
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = ExpandPath(DefaultDatabasePath)
	}

	if _, err := common.ParseLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}
	switch cfg.Logging.Format {
	case "", "console", "json":
	default:
		return nil, fmt.Errorf("%w: log format %q", common.ErrInvalidConfig, cfg.Logging.Format)
	}

	if fy := cfg.Report.FiscalYear; fy != 0 && (fy < 1900 || fy > 9999) {
		return nil, fmt.Errorf("%w: report.fiscal_year %d must be between 1900 and 9999", common.ErrInvalidConfig, fy)
	}

	return cfg, nil
}
