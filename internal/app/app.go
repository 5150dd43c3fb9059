package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/mhpishahang/bbn/internal/config"
	"github.com/mhpishahang/bbn/internal/ctxlog"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	settings *config.Inference
}

// NewApp is the constructor for the demo application. It builds an isolated
// logger and loads the inference settings through loader.
func NewApp(ctx context.Context, outW io.Writer, cfg *Config, loader config.Loader) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	settings, err := loader.Load(ctx, cfg.SettingsPaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	logger.Debug("Inference settings loaded.", "settings", *settings)

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		settings: settings,
	}, nil
}

// Settings returns the loaded inference settings. This is primarily for testing.
func (a *App) Settings() config.Inference {
	return *a.settings
}
