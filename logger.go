package umap

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with pipeline-specific helpers so stage logs use
// consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler. A nil handler logs
// text at Info level to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger writing human-readable text to w.
func NewTextLogger(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewJSONLogger creates a Logger writing JSON to w.
func NewJSONLogger(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(1000)}))
}

// WithStage tags every record with the pipeline stage.
func (l *Logger) WithStage(stage Stage) *Logger {
	return &Logger{Logger: l.Logger.With("stage", string(stage))}
}

// LogStage logs the completion of one stage.
func (l *Logger) LogStage(ctx context.Context, stage Stage, d time.Duration, cached bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "stage failed",
			"stage", string(stage),
			"duration", d,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "stage completed",
		"stage", string(stage),
		"duration", d,
		"cached", cached,
	)
}

// LogFallback logs a recovered numerical failure.
func (l *Logger) LogFallback(ctx context.Context, what string, err error) {
	l.WarnContext(ctx, "falling back",
		"to", what,
		"error", err,
	)
}

// LogEmbedding reports the wall-clock time of one embedding request.
func (l *Logger) LogEmbedding(ctx context.Context, n int, d time.Duration, cached bool) {
	l.InfoContext(ctx, "computed embedding",
		"points", n,
		"seconds", d.Seconds(),
		"cached", cached,
	)
}
