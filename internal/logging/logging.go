// Package logging sends structured logs to a rotating file so they never
// draw over the terminal UI.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/vstratful/searchthatterm/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

const defaultLogFile = "searchthatterm.log"
const (
	maxLogSizeMB  = 5
	maxLogBackups = 5
	maxLogAgeDays = 14
)

// level is shared by every logger Init returns so SetLevel applies at once.
var level = new(slog.LevelVar)

// Init configures slog to write JSON logs to the configured file. Every record
// carries a session attribute identifying this run. The returned closer
// flushes the file.
func Init(cfg *config.Config) (*slog.Logger, io.Closer, error) {
	level.Set(ParseLevel(cfg.LogLevel))
	opts := &slog.HandlerOptions{Level: level}
	session := slog.String("session", uuid.NewString())

	logPath := strings.TrimSpace(cfg.LogFile)
	if logPath == "" {
		logPath = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
		logger := slog.New(slog.NewJSONHandler(io.Discard, opts)).With(session)
		slog.SetDefault(logger)
		return logger, io.NopCloser(nil), err
	}

	writer := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    maxLogSizeMB,
		MaxBackups: maxLogBackups,
		MaxAge:     maxLogAgeDays,
		Compress:   true,
	}

	logger := slog.New(slog.NewJSONHandler(writer, opts)).With(session)
	slog.SetDefault(logger)
	return logger, writer, nil
}

// SetLevel changes the level of every logger created by Init.
func SetLevel(s string) {
	level.Set(ParseLevel(s))
}

// DefaultPath is where logs go when no file is configured.
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(homeDir) == "" {
		return filepath.Join(".searchthatterm", "logs", defaultLogFile)
	}
	return filepath.Join(homeDir, ".searchthatterm", "logs", defaultLogFile)
}

// ParseLevel maps a level name to a slog level. Unknown names mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
