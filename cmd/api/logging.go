package main

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/picshelf/service/internal/config"
)

// configureLogger installs the default logger. The --log-level flag wins
// over LOG_LEVEL; production logs are JSON.
func configureLogger(w io.Writer, flagLevel string, cfg *config.Config) error {
	raw := cfg.LogLevel
	if strings.TrimSpace(flagLevel) != "" {
		raw = flagLevel
	}
	level, err := parseLogLevel(raw)
	if err != nil {
		return err
	}
	slog.SetDefault(newLogger(w, level, cfg.IsProduction()))
	return nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return slog.LevelInfo, nil
	}
	if strings.EqualFold(value, "warning") {
		value = "warn"
	}

	if numeric, err := strconv.Atoi(value); err == nil {
		return slog.Level(numeric), nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", raw)
	}
	return level, nil
}

func newLogger(w io.Writer, level slog.Level, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
