package app

import (
	"errors"
	"fmt"
	"os"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// Root is the source tree root. It is read-only to the engine except
	// for the output trees created under it.
	Root string
	// Goal is the requested goal name: empty (build everything in the
	// default variant), a variant name, "clean", or a specific target path.
	Goal string

	LogFormat   string
	LogLevel    string
	WorkerCount int
}

// NewConfig validates a Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.Root == "" {
		return nil, errors.New("Root is a required configuration field and cannot be empty")
	}
	info, err := os.Stat(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("source root %s: %w", cfg.Root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source root %s is not a directory", cfg.Root)
	}
	return &cfg, nil
}
