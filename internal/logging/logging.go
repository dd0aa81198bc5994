// Package logging builds the structured logger shared by the store and the CLI.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options describes where and how verbosely to log.
type Options struct {
	Level   string // "debug" | "info" | "warn" | "error"
	Path    string // File path, "stderr", or "" to disable logging
	Verbose bool   // Forces debug level
}

// New returns a production (JSON) zap logger. With an empty Path it returns a
// no-op logger. The TUI owns the terminal, so interactive runs log to a file.
func New(opts Options) (*zap.Logger, error) {
	if opts.Path == "" {
		return zap.NewNop(), nil
	}

	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	if opts.Path != "stderr" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, fmt.Errorf("logging: creating directory: %w", err)
		}
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.OutputPaths = []string{opts.Path}
	config.ErrorOutputPaths = []string{"stderr"}
	config.EncoderConfig.TimeKey = "ts"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: building logger: %w", err)
	}
	return logger, nil
}
