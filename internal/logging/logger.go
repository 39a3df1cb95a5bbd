// Package logging is the structured-logging surface of both binaries.
// Components depend on Logger only; main picks the backend.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Logger is a context-aware, structured logger. The variadic args are
// key/value pairs:
//
//	log.Info(ctx, "monitor created", "id", id, "owner", owner)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always carries the given pairs.
	With(args ...any) Logger
}

// Kind names a logger backend.
type Kind string

const (
	KindSlogJSON Kind = "json"
	KindSlogText Kind = "text"
	KindZap      Kind = "zap"
)

// Options configure New.
type Options struct {
	Kind  Kind
	Level string // debug, info, warn, error
	Out   io.Writer
}

// New builds a Logger for the requested backend.
func New(opts Options) (Logger, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	switch opts.Kind {
	case KindSlogJSON, "":
		h := slog.NewJSONHandler(opts.Out, &slog.HandlerOptions{Level: level})
		return NewSlogLogger(slog.New(h)), nil
	case KindSlogText:
		h := slog.NewTextHandler(opts.Out, &slog.HandlerOptions{Level: level})
		return NewSlogLogger(slog.New(h)), nil
	case KindZap:
		return NewZapLoggerTo(opts.Out, level), nil
	default:
		return nil, fmt.Errorf("unknown logger kind %q", opts.Kind)
	}
}

func parseLevel(s string) (slog.Level, error) {
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
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

// Nop discards everything. Handy in tests.
type Nop struct{}

func (Nop) Debug(context.Context, string, ...any) {}
func (Nop) Info(context.Context, string, ...any)  {}
func (Nop) Warn(context.Context, string, ...any)  {}
func (Nop) Error(context.Context, string, ...any) {}
func (n Nop) With(...any) Logger                  { return n }
