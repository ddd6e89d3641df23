package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"verigate/pkg/requestcontext"
)

func TestLimiter_BurstThenReject(t *testing.T) {
	l := New(0.001, 2, nil)

	assert.True(t, l.Allow("203.0.113.1"))
	assert.True(t, l.Allow("203.0.113.1"))
	assert.False(t, l.Allow("203.0.113.1"))

	// Buckets are per IP.
	assert.True(t, l.Allow("203.0.113.2"))
}

func TestLimiter_SweepDropsIdleBuckets(t *testing.T) {
	l := New(1, 1, nil)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }
	l.Allow("a")
	l.Allow("b")

	l.now = func() time.Time { return base.Add(10 * time.Minute) }
	l.Allow("b")

	assert.Equal(t, 1, l.Sweep())
	assert.Len(t, l.buckets, 1)
}

func TestLimiter_Middleware(t *testing.T) {
	l := New(0.001, 1, nil)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/portal/submit", nil)
		req = req.WithContext(requestcontext.WithClientMetadata(req.Context(), "198.51.100.9", "ua"))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
}
