package app

import (
	"io"
	"log/slog"
	"path/filepath"
)

// App encapsulates the engine's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	// root is the absolute source root.
	root string
}

// New is the constructor for the engine application. It returns a fully
// initialized App with its own isolated logger. Critical configuration
// errors panic; callers recover to present a clean exit message.
func New(outW io.Writer, cfg *Config) *App {
	logger := newLogger(cfg, outW)
	logger.Debug("Logger configured successfully.")

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		panic(err)
	}

	return &App{
		outW:   outW,
		logger: logger,
		config: cfg,
		root:   root,
	}
}

// Logger returns the application's logger. This is primarily for testing.
func (a *App) Logger() *slog.Logger {
	return a.logger
}
