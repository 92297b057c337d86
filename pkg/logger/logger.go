// Package logger wraps log/slog with the conventions used across the service.
//
// Handlers pull a request-scoped logger out of the context so every line
// they emit carries the request_id:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("order created", "order_id", order.ID)
package logger

import (
	"context"
	"log/slog"
	"os"
)

// L is the process logger. It is usable before Setup runs.
var L = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

// Setup replaces L according to the environment: JSON at info level for
// production, text at debug level otherwise. Extra handlers (the Mongo sink)
// receive every record as well.
func Setup(production bool, extra ...slog.Handler) *slog.Logger {
	var base slog.Handler
	if production {
		base = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		base = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}

	h := base
	if len(extra) > 0 {
		h = NewMultiHandler(append([]slog.Handler{base}, extra...)...)
	}

	L = slog.New(h)
	slog.SetDefault(L)
	return L
}

type ctxKey struct{}

// WithCtx returns the logger stored by the request middleware, or L.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores log in ctx for WithCtx.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

func Debug(msg string, args ...any) { L.Debug(msg, args...) }
func Info(msg string, args ...any)  { L.Info(msg, args...) }
func Warn(msg string, args ...any)  { L.Warn(msg, args...) }
func Error(msg string, args ...any) { L.Error(msg, args...) }
