package middleware

import (
	"context"
)

// context keys are unexported to avoid collisions
type ctxKey string

const (
	ctxKeyHTMX     ctxKey = "htmx"
	ctxKeySession  ctxKey = "session"
	ctxKeyLocaleFB ctxKey = "locale_fallback"
)

// WithHTMX stores the parsed htmx headers.
func WithHTMX(ctx context.Context, hx HTMXRequest) context.Context {
	return context.WithValue(ctx, ctxKeyHTMX, hx)
}

// HTMXFrom returns the htmx headers of the request, or the zero value for
// plain browser requests.
func HTMXFrom(ctx context.Context) HTMXRequest {
	hx, _ := ctx.Value(ctxKeyHTMX).(HTMXRequest)
	return hx
}
