// ABOUTME: Caller identity carried through authenticated request handlers
// ABOUTME: Provides WithCaller/CallerFrom for propagating it via context

package auth

import (
	"context"
	"time"
)

// Caller is the process that presented a valid token.
type Caller struct {
	Name      string // "sub" claim, e.g. "kitchen-app"
	TokenID   string // "jti" claim
	ExpiresAt time.Time
}

type callerKey struct{}

// WithCaller returns a new context with the caller attached.
func WithCaller(ctx context.Context, c *Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the caller attached to ctx, or nil.
func CallerFrom(ctx context.Context) *Caller {
	c, _ := ctx.Value(callerKey{}).(*Caller)
	return c
}
