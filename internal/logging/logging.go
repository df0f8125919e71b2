// Package logging installs the process-wide slog handler.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the log file written inside Config.Dir.
const FileName = "lookbook.log"

// Config selects level, format and an optional rotating log directory.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // text, json, logfmt
	Dir    string
	// Stderr is the console writer. Defaults to os.Stderr.
	Stderr io.Writer
}

// Setup builds a logger from cfg and makes it the slog default. The returned
// closer flushes and closes the log file; it is a no-op without Dir.
func Setup(cfg Config) (*slog.Logger, io.Closer, error) {
	level := log.InfoLevel
	if cfg.Level != "" {
		l, err := log.ParseLevel(cfg.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
		}
		level = l
	}

	formatter, err := parseFormat(cfg.Format)
	if err != nil {
		return nil, nil, err
	}

	var w io.Writer = cfg.Stderr
	if w == nil {
		w = os.Stderr
	}
	var closer io.Closer = nopCloser{}
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log dir: %w", err)
		}
		file := &lumberjack.Logger{
			Filename:   filepath.Join(cfg.Dir, FileName),
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		w = io.MultiWriter(w, file)
		closer = file
	}

	handler := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           level,
		Prefix:          "lookbook",
		Formatter:       formatter,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, closer, nil
}

func parseFormat(s string) (log.Formatter, error) {
	switch strings.ToLower(s) {
	case "", "text":
		return log.TextFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	}
	return 0, fmt.Errorf("unknown log format %q (want text, json or logfmt)", s)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
