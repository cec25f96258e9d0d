package morphon

import (
	"context"
	"fmt"
	"log/slog"
)

// Diagnostic reports a recoverable problem that did not abort the operation,
// such as an element skipped by DeserializeMany or a reference the asset
// loader could not resolve.
type Diagnostic struct {
	Op    string
	Tag   string
	Key   string
	Path  string
	Index int
	Err   error
}

func (d Diagnostic) String() string {
	msg := d.Op
	if d.Index >= 0 {
		msg += fmt.Sprintf(" index=%d", d.Index)
	}
	if d.Tag != "" {
		msg += fmt.Sprintf(" tag=%q", d.Tag)
	}
	if d.Key != "" {
		msg += fmt.Sprintf(" key=%q", d.Key)
	}
	if d.Path != "" {
		msg += fmt.Sprintf(" path=%q", d.Path)
	}
	return fmt.Sprintf("%s: %v", msg, d.Err)
}

// DiagnosticLogger records diagnostics.
type DiagnosticLogger interface {
	LogDiagnostic(Diagnostic)
}

// DiagnosticLoggerFunc adapts a function to DiagnosticLogger.
type DiagnosticLoggerFunc func(Diagnostic)

// LogDiagnostic implements DiagnosticLogger.
func (f DiagnosticLoggerFunc) LogDiagnostic(d Diagnostic) {
	if f != nil {
		f(d)
	}
}

type noopDiagnosticLogger struct{}

func (noopDiagnosticLogger) LogDiagnostic(Diagnostic) {}

// NewSlogLogger reports diagnostics as warnings on logger.
func NewSlogLogger(logger *slog.Logger) DiagnosticLogger {
	if logger == nil {
		return noopDiagnosticLogger{}
	}
	return slogDiagnosticLogger{logger: logger}
}

type slogDiagnosticLogger struct {
	logger *slog.Logger
}

func (l slogDiagnosticLogger) LogDiagnostic(d Diagnostic) {
	attrs := []slog.Attr{slog.String("op", d.Op)}
	if d.Tag != "" {
		attrs = append(attrs, slog.String("tag", d.Tag))
	}
	if d.Key != "" {
		attrs = append(attrs, slog.String("key", d.Key))
	}
	if d.Path != "" {
		attrs = append(attrs, slog.String("path", d.Path))
	}
	if d.Index >= 0 {
		attrs = append(attrs, slog.Int("index", d.Index))
	}
	if d.Err != nil {
		attrs = append(attrs, slog.String("err", d.Err.Error()))
	}
	l.logger.LogAttrs(context.Background(), slog.LevelWarn, "morphon diagnostic", attrs...)
}
