package logger

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

func WithLogger(ctx context.Context, l zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, &l)
}

// Ctx returns the request-scoped logger, falling back to the global one.
func Ctx(ctx context.Context) *zerolog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zerolog.Logger); ok {
		return l
	}
	return L()
}
