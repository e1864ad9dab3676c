package log

import (
	"context"

	"github.com/anchore/go-logger"
)

type ctxKey struct{}

// WithLogger attaches lgr to ctx. Backends log through FromContext so that messages about one tool carry that
// tool's fields no matter how deep in the install they are emitted.
func WithLogger(ctx context.Context, lgr logger.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, lgr)
}

// FromContext returns the logger attached to ctx, or the application logger.
func FromContext(ctx context.Context) logger.Logger {
	if lgr, ok := ctx.Value(ctxKey{}).(logger.Logger); ok && lgr != nil {
		return lgr
	}
	return Get()
}

// WithNested scopes the context logger to the given fields (e.g. "tool", name) and returns it alongside a
// context carrying it.
func WithNested(ctx context.Context, fields ...any) (context.Context, logger.Logger) {
	lgr := FromContext(ctx).Nested(fields...)
	return WithLogger(ctx, lgr), lgr
}
