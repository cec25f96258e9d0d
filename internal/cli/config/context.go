package config

import (
	"context"
	"io"
	"log/slog"
)

type settingsKey struct{}

type loggerKey struct{}

// WithSettings stores settings in ctx.
func WithSettings(ctx context.Context, s *Settings) context.Context {
	return context.WithValue(ctx, settingsKey{}, s)
}

// GetSettings returns the settings stored in ctx, or the defaults.
func GetSettings(ctx context.Context) *Settings {
	if ctx != nil {
		if s, ok := ctx.Value(settingsKey{}).(*Settings); ok && s != nil {
			return s
		}
	}
	return &Settings{
		Engine:          DefaultEngine,
		ReferencePrefix: defaultReferencePrefix,
		StatePath:       DefaultStatePath,
		Domain:          DefaultDomain,
		LogLevel:        DefaultLogLevel,
	}
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger returns the logger stored in ctx, or one that discards output.
func GetLogger(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewLogger builds the text logger used by the CLI.
func NewLogger(w io.Writer, s *Settings) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: s.Level()}))
}
