package spooled

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxSize is the rollover threshold used when none is configured.
const DefaultMaxSize = 5000000

// Config holds configuration settings for spooled buffers
type Config struct {
	MaxSize          int64               // bytes kept in memory before rolling over to a temp file
	SpoolDir         string              // empty for use OS default ex: /tmp
	TempFilePrefix   string              // filename prefix for files put in temp directory
	PreferDiskBacked bool                // prefer disk backed temp dirs (/var/tmp) over tmpfs
	FileLimit        *semaphore.Weighted // optional limit on temp files held at once by buffers sharing it
	Logger           *slog.Logger        // nil discards log output
}

// DefaultConfig returns the default configuration options used if none provided
func DefaultConfig() *Config {
	return &Config{
		MaxSize:        DefaultMaxSize,
		SpoolDir:       "",
		TempFilePrefix: fmt.Sprintf("spooled_%d_", os.Getpid()),
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// mergeConfig takes a provided config and replaces any values not set with the defaults.
// The provided config is not modified.
func mergeConfig(c *Config) *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	m := *c
	if m.MaxSize <= 0 {
		m.MaxSize = d.MaxSize
	}
	if m.TempFilePrefix == "" {
		m.TempFilePrefix = d.TempFilePrefix
	}
	if m.Logger == nil {
		m.Logger = d.Logger
	}
	// skipping SpoolDir as it is the empty string
	return &m
}
