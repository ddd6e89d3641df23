package health

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verigate/pkg/testutil"
)

func newRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func TestReadiness(t *testing.T) {
	h := New("test")
	r := newRouter(h)

	t.Run("ready with no checks", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/health/ready"))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "status", "ready")
	})

	t.Run("503 when a backend is down", func(t *testing.T) {
		h.RegisterCheck("database", func(context.Context) error { return nil })
		h.RegisterCheck("redis", func(context.Context) error { return errors.New("connection refused") })

		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/health/ready"))

		testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
		resp := testutil.UnmarshalResponse[ReadinessResponse](t, rr)
		assert.Equal(t, "not_ready", resp.Status)
		assert.Equal(t, "up", resp.Checks["database"].Status)
		assert.Equal(t, "down", resp.Checks["redis"].Status)
		assert.Contains(t, resp.Checks["redis"].Error, "connection refused")
	})

	t.Run("re-registering a name replaces the check", func(t *testing.T) {
		h.RegisterCheck("redis", func(context.Context) error { return nil })

		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/health/ready"))

		testutil.AssertStatusOK(t, rr)
		resp := testutil.UnmarshalResponse[ReadinessResponse](t, rr)
		assert.Len(t, resp.Checks, 2)
	})
}

func TestReadinessBoundsSlowChecks(t *testing.T) {
	h := New("test", WithCheckTimeout(20*time.Millisecond))
	h.RegisterCheck("kafka", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	start := time.Now()
	rr := testutil.DoRequest(newRouter(h), testutil.NewRequest(t, http.MethodGet, "/health/ready"))

	require.Less(t, time.Since(start), time.Second)
	testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
	resp := testutil.UnmarshalResponse[ReadinessResponse](t, rr)
	assert.Contains(t, resp.Checks["kafka"].Error, "deadline exceeded")
}

func TestLiveness(t *testing.T) {
	rr := testutil.DoRequest(newRouter(New("test")), testutil.NewRequest(t, http.MethodGet, "/health/live"))
	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "status", "alive")
}

func TestStatusReportsVersion(t *testing.T) {
	rr := testutil.DoRequest(newRouter(New("staging", WithVersion("1.2.3"))), testutil.NewRequest(t, http.MethodGet, "/health"))
	testutil.AssertStatusOK(t, rr)
	resp := testutil.UnmarshalResponse[StatusResponse](t, rr)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Equal(t, "staging", resp.Environment)
}
