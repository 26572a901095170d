package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/envguard/internal/config"
)

// newLogger builds the diagnostic logger. In quiet mode (the hook path) logs
// are discarded unless a level or log file is configured, since stderr
// carries the block message there.
func newLogger(cfg *config.Config, overrideLevel string, quiet bool) (*slog.Logger, func(), error) {
	noop := func() {}

	levelName := strings.TrimSpace(cfg.Log.Level)
	if strings.TrimSpace(overrideLevel) != "" {
		levelName = overrideLevel
	}
	logFilePath := strings.TrimSpace(cfg.Log.File)

	if quiet && levelName == "" && logFilePath == "" {
		return slog.New(slog.DiscardHandler), noop, nil
	}

	level, err := parseLogLevel(levelName)
	if err != nil {
		return nil, noop, err
	}

	writer := io.Writer(os.Stderr)
	closer := noop
	if logFilePath != "" {
		if err := os.MkdirAll(filepath.Dir(logFilePath), 0700); err != nil {
			return nil, noop, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, noop, fmt.Errorf("open log file: %w", err)
		}
		writer = f
		closer = func() { _ = f.Close() }
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{Level: level})
	return slog.New(handler), closer, nil
}

func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s", level)
	}
}
