// Package logging builds the structured logger shared by the CLI and the
// pipeline.
package logging

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures Setup.
type Options struct {
	Service string
	Level   string // debug, info, warn, error
	Format  string // json or text

	// File, when set, receives the log through a size-rotated writer.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Output overrides stdout when File is empty.
	Output io.Writer
}

// ParseLevel maps a level name onto slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Setup configures slog and the standard library logger and returns the
// logger plus a closer for the log file (a no-op without one). Keys are
// rewritten to timestamp, severity and message.
func Setup(opts Options) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	var out io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}
	switch {
	case opts.File != "":
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		out, closer = lj, lj
	case opts.Output != nil:
		out = opts.Output
	}

	handlerOpts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return attr
			}
			switch attr.Key {
			case slog.TimeKey:
				return slog.Attr{Key: "timestamp", Value: attr.Value}
			case slog.LevelKey:
				return slog.String("severity", strings.ToUpper(attr.Value.String()))
			case slog.MessageKey:
				return slog.Attr{Key: "message", Value: attr.Value}
			}
			return attr
		},
	}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "text") {
		handler = slog.NewTextHandler(out, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(out, handlerOpts)
	}

	var attrs []slog.Attr
	if s := strings.TrimSpace(opts.Service); s != "" {
		attrs = append(attrs, slog.String("service", s))
	}
	handler = handler.WithAttrs(attrs)

	logger := slog.New(handler)
	slog.SetDefault(logger)

	// Bridge the standard library logger.
	std := slog.NewLogLogger(handler, slog.LevelInfo)
	log.SetOutput(std.Writer())
	log.SetFlags(0)
	log.SetPrefix("")

	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
