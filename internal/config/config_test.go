package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/runway/internal/common"
)

func newViper(t *testing.T, yaml string) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	if yaml != "" {
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(strings.NewReader(yaml)))
	}
	return v
}

func TestLoadFrom_Defaults(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	cfg, err := LoadFrom(newViper(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "/home/tester/.local/share/runway/runway.db", cfg.Database.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Zero(t, cfg.Report.FiscalYear)
}

func TestLoadFrom_File(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	cfg, err := LoadFrom(newViper(t, `
database:
  path: ~/plans/runway.db
logging:
  level: debug
  format: json
report:
  fiscal_year: 2025
  dataset: budget-2025
  compare: forecast-2025
`))
	require.NoError(t, err)

	assert.Equal(t, "/home/tester/plans/runway.db", cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 2025, cfg.Report.FiscalYear)
	assert.Equal(t, "budget-2025", cfg.Report.Dataset)
	assert.Equal(t, "forecast-2025", cfg.Report.Compare)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "log level", yaml: "logging:\n  level: loud\n"},
		{name: "log format", yaml: "logging:\n  format: xml\n"},
		{name: "fiscal year", yaml: "report:\n  fiscal_year: 25\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(newViper(t, tt.yaml))
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("RUNWAY_TEST_DIR", "/data")

	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "~", want: home},
		{in: "~/runway.db", want: filepath.Join(home, "runway.db")},
		{in: "$RUNWAY_TEST_DIR/runway.db", want: "/data/runway.db"},
		{in: "/abs/path.db", want: "/abs/path.db"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}

func TestLoadSheetsConfigFrom(t *testing.T) {
	for _, key := range []string{
		"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "GOOGLE_SHEETS_CLIENT_ID", "GOOGLE_SHEETS_CLIENT_SECRET",
		"GOOGLE_SHEETS_REFRESH_TOKEN", "GOOGLE_SHEETS_SPREADSHEET_ID", "GOOGLE_SHEETS_SPREADSHEET_NAME",
	} {
		t.Setenv(key, "")
	}

	t.Run("from config file", func(t *testing.T) {
		cfg, err := LoadSheetsConfigFrom(newViper(t, `
sheets:
  service_account_path: /keys/runway.json
  spreadsheet_id: abc123
  batch_size: 50
  retry_delay: 250ms
  formatting: false
`))
		require.NoError(t, err)
		assert.Equal(t, "/keys/runway.json", cfg.ServiceAccountPath)
		assert.Equal(t, "abc123", cfg.SpreadsheetID)
		assert.Equal(t, 50, cfg.BatchSize)
		assert.Equal(t, 3, cfg.RetryAttempts)
		assert.Equal(t, 250*time.Millisecond, cfg.RetryDelay)
		assert.False(t, cfg.EnableFormatting)
	})

	t.Run("falls back to environment", func(t *testing.T) {
		t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "id")
		t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "secret")
		t.Setenv("GOOGLE_SHEETS_REFRESH_TOKEN", "token")
		t.Setenv("GOOGLE_SHEETS_SPREADSHEET_NAME", "Board Pack")

		cfg, err := LoadSheetsConfigFrom(newViper(t, ""))
		require.NoError(t, err)
		assert.Equal(t, "id", cfg.ClientID)
		assert.Equal(t, "Board Pack", cfg.SpreadsheetName)
	})

	t.Run("no credentials", func(t *testing.T) {
		_, err := LoadSheetsConfigFrom(newViper(t, ""))
		assert.ErrorIs(t, err, common.ErrMissingConfig)
	})
}
