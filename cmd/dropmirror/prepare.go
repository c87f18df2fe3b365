package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/sunvalleybronze/dropmirror/internal/server"
)

// prepare loads and validates the config and sets up logging on console.
// Usage is silenced from here on, since any later error is not a usage error.
func prepare(cmd *cobra.Command, console io.Writer) (*server.Config, io.Closer, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	cmd.SilenceUsage = true

	closer, err := setupLogger(console, cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, nil, err
	}
	slog.Debug("config loaded", "config", cfg)
	return cfg, closer, nil
}
