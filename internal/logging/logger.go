// Package logging configures the process-wide slog logger used by the
// crawl service. Output goes to stdout and, optionally, a size-rotated
// log file.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options controls logger construction.
type Options struct {
	Level    string // debug|info|warn|error
	FilePath string // empty disables file output
	MaxSize  int64  // rotation threshold in bytes
	Backups  int    // rotated files to keep
}

// ParseLevel converts a string log level to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup builds a JSON slog logger from opts and installs it as the
// default logger. The returned closer is non-nil when a log file is open.
func Setup(opts Options) (io.Closer, error) {
	writers := []io.Writer{os.Stdout}

	var closer io.Closer
	if opts.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0o755); err != nil {
			return nil, err
		}

		maxSize := opts.MaxSize
		if maxSize <= 0 {
			maxSize = 100 << 20
		}
		backups := opts.Backups
		if backups <= 0 {
			backups = 5
		}

		fw, err := NewRotatingWriter(opts.FilePath, maxSize, backups)
		if err != nil {
			return nil, err
		}
		writers = append(writers, fw)
		closer = fw
	}

	var out io.Writer = writers[0]
	if len(writers) > 1 {
		out = io.MultiWriter(writers...)
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: ParseLevel(opts.Level),
	})
	slog.SetDefault(slog.New(handler))

	return closer, nil
}
