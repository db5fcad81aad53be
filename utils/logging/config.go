// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package logging

import (
	"errors"
	"fmt"
)

const (
	ConsoleFormat = "console"
	JSONFormat    = "json"
)

var errUnknownFormat = errors.New("unknown log format")

// Config defines the configuration of a logger
type Config struct {
	// Level is the minimum level, parsed by zapcore.ParseLevel.
	Level string `json:"level"`
	// Format of the stdout output, either "console" or "json".
	Format string `json:"format"`
	// Directory to write rotated JSON log files to. Empty disables file
	// output.
	Directory string `json:"directory"`
	// MaxSize is the maximum size in megabytes of a log file before it gets
	// rotated.
	MaxSize int `json:"maxSize"`
	// MaxFiles is the maximum number of old log files to retain.
	MaxFiles int `json:"maxFiles"`
	// MaxAge is the maximum number of days to retain old log files.
	MaxAge int `json:"maxAge"`
	// Compress determines if rotated log files are gzipped.
	Compress bool `json:"compress"`
}

func DefaultConfig() Config {
	return Config{
		Level:    "info",
		Format:   ConsoleFormat,
		MaxSize:  8,
		MaxFiles: 7,
		MaxAge:   30,
	}
}

func (c Config) Verify() error {
	switch c.Format {
	case ConsoleFormat, JSONFormat:
		return nil
	default:
		return fmt.Errorf("%w: %q", errUnknownFormat, c.Format)
	}
}
