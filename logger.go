package vqcodec

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with codec-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithK adds the codebook size to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k),
	}
}

// WithBlockSize adds the block shape to the logger.
func (l *Logger) WithBlockSize(height, width int) *Logger {
	return &Logger{
		Logger: l.Logger.With("block_height", height, "block_width", width),
	}
}

// WithBase adds the artifact base name to the logger.
func (l *Logger) WithBase(base string) *Logger {
	return &Logger{
		Logger: l.Logger.With("base", base),
	}
}

// LogTrain logs a training run.
func (l *Logger) LogTrain(ctx context.Context, blocks int, res *TrainResult, err error) {
	if err != nil {
		l.ErrorContext(ctx, "training failed",
			"blocks", blocks,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "training completed",
		"blocks", blocks,
		"iterations", res.Iterations,
		"distortion", res.Distortion(),
		"converged", res.Converged,
	)
}

// LogEncode logs an encode operation.
func (l *Logger) LogEncode(ctx context.Context, blocks int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "encode failed",
			"blocks", blocks,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "encode completed",
			"blocks", blocks,
		)
	}
}

// LogDecode logs a decode operation.
func (l *Logger) LogDecode(ctx context.Context, width, height int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "decode failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "decode completed",
			"width", width,
			"height", height,
		)
	}
}

// LogSave logs an artifact save.
func (l *Logger) LogSave(ctx context.Context, base string, bytes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"base", base,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "artifacts saved",
			"base", base,
			"bytes", bytes,
		)
	}
}

// LogLoad logs an artifact load.
func (l *Logger) LogLoad(ctx context.Context, base string, bytes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"base", base,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "artifacts loaded",
			"base", base,
			"bytes", bytes,
		)
	}
}
