package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bilal/speedtest-agent/internal/config"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger bundles the durable file log with the console channel that is
// reserved for datastore write failures.
type Logger struct {
	File    zerolog.Logger
	Console zerolog.Logger

	closer io.Closer
}

// New opens <dir>/<name>.log. A log file last written on an earlier day is
// rotated (and compressed) before the first entry of today is appended.
func New(lcfg config.LoggingConfig) (*Logger, error) {
	if err := os.MkdirAll(lcfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	path := filepath.Join(lcfg.Dir, lcfg.Name+".log")
	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxBackups: lcfg.MaxBackups,
		Compress:   lcfg.Compress,
		LocalTime:  true,
	}

	if stale(path, time.Now()) {
		if err := rotator.Rotate(); err != nil {
			return nil, fmt.Errorf("rotate log: %w", err)
		}
	}

	return &Logger{
		File:    newLogger(rotator, lcfg, false).With().Str("component", lcfg.Name).Logger(),
		Console: newLogger(os.Stderr, lcfg, true),
		closer:  rotator,
	}, nil
}

// Nop discards everything; used by tests.
func Nop() *Logger {
	return &Logger{File: zerolog.Nop(), Console: zerolog.Nop()}
}

func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func newLogger(w io.Writer, lcfg config.LoggingConfig, console bool) zerolog.Logger {
	if console || strings.ToLower(lcfg.Format) == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: !console}
	}
	return zerolog.New(w).Level(parseLevel(lcfg.Level)).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	}
	return zerolog.InfoLevel
}

// stale reports whether the file at path was last modified before today.
func stale(path string, now time.Time) bool {
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		return false
	}
	y1, m1, d1 := info.ModTime().Date()
	y2, m2, d2 := now.Date()
	return y1 != y2 || m1 != m2 || d1 != d2
}
