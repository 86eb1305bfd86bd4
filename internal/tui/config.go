package tui

import (
	"context"

	"github.com/Veraticus/runway/internal/model"
	"github.com/Veraticus/runway/internal/tui/themes"
)

// SaveFunc persists sandbox edits as amounts of the base dataset.
type SaveFunc func(ctx context.Context, records []model.AmountRecord) error

// Config holds TUI configuration.
type Config struct {
	Theme    themes.Theme
	Save     SaveFunc
	Width    int
	Height   int
	ShowHelp bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:    themes.Default,
		Width:    120,
		Height:   32,
		ShowHelp: true,
	}
}

// WithSave sets the callback run by the save key.
func WithSave(save SaveFunc) Option {
	return func(c *Config) {
		c.Save = save
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithHelp toggles the key help footer.
func WithHelp(show bool) Option {
	return func(c *Config) {
		c.ShowHelp = show
	}
}
