// Package requestcontext carries request-scoped values set by middleware so
// services can read them without importing net/http. Tests set them directly:
//
//	ctx = requestcontext.WithTime(ctx, fixed)
package requestcontext

import (
	"context"
	"time"
)

type key int

const (
	clientKey key = iota
	requestIDKey
	requestTimeKey
)

type client struct {
	ip        string
	userAgent string
}

// WithClientMetadata records the caller's IP and User-Agent.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	return context.WithValue(ctx, clientKey, client{ip: clientIP, userAgent: userAgent})
}

// ClientIP is the caller IP, or "" outside a request.
func ClientIP(ctx context.Context) string {
	c, _ := ctx.Value(clientKey).(client)
	return c.ip
}

// UserAgent is the caller User-Agent, or "" outside a request.
func UserAgent(ctx context.Context) string {
	c, _ := ctx.Value(clientKey).(client)
	return c.userAgent
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID is the correlation id echoed in X-Request-ID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithTime pins the clock every service reads through Now.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey, t)
}

// Now is the pinned request time. Detached work (sink forwards, sweeps)
// without a pinned time gets the wall clock.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey).(time.Time); ok {
		return t
	}
	return time.Now()
}
