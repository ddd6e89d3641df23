package httpapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	handshakeHandler "verigate/internal/handshake/handler"
	handshakeService "verigate/internal/handshake/service"
	handshakeStore "verigate/internal/handshake/store"
	statusModels "verigate/internal/status/models"
	"verigate/internal/verifier"
	"verigate/pkg/domain"
	"verigate/pkg/platform/middleware/ratelimit"
	"verigate/pkg/testutil"
)

type routeStub struct {
	method, path string
}

func (s routeStub) Register(r chi.Router) {
	r.MethodFunc(s.method, s.path, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func newTestRouter(limiter *ratelimit.Limiter) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(Dependencies{
		Logger:         logger,
		RequestTimeout: time.Second,
		Health:         routeStub{http.MethodGet, "/health"},
		Handshake:      routeStub{http.MethodGet, "/auth/start"},
		Status:         routeStub{http.MethodGet, "/user/{id}/status"},
		Portal:         routeStub{http.MethodPost, "/portal/validate-api-key"},
		Analytics:      routeStub{http.MethodGet, "/admin/analytics"},
		Submit: func(w http.ResponseWriter, r *http.Request) {
			_, err := io.ReadAll(r.Body)
			if err != nil {
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				return
			}
			w.WriteHeader(http.StatusOK)
		},
		SubmitLimiter: limiter,
	})
}

func TestRouterMountsEveryModule(t *testing.T) {
	router := newTestRouter(nil)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/health"},
		{http.MethodGet, "/auth/start"},
		{http.MethodGet, "/user/abc/status"},
		{http.MethodPost, "/portal/validate-api-key"},
		{http.MethodGet, "/admin/analytics"},
	} {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, tc.method, tc.path))
		assert.Equal(t, http.StatusNoContent, rr.Code, "%s %s", tc.method, tc.path)
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"), "%s %s", tc.method, tc.path)
	}

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/portal/submit", map[string]any{"problem": "p"}))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouterRejectsNonJSONBodies(t *testing.T) {
	router := newTestRouter(nil)

	req := testutil.NewRequestWithBody(t, http.MethodPost, "/portal/submit", "problem=p")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := testutil.DoRequest(router, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
}

func TestRouterCapsSubmitBody(t *testing.T) {
	router := newTestRouter(nil)

	body := `{"problem":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	rr := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodPost, "/portal/submit", body))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestRouterRateLimitsSubmitOnly(t *testing.T) {
	limiter := ratelimit.New(0.001, 1, slog.New(slog.NewTextHandler(io.Discard, nil)))
	router := newTestRouter(limiter)

	submit := func() int {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/portal/submit", map[string]any{"problem": "p"})
		req.RemoteAddr = "203.0.113.7:4000"
		return testutil.DoRequest(router, req).Code
	}
	require.Equal(t, http.StatusOK, submit())
	assert.Equal(t, http.StatusTooManyRequests, submit())

	req := testutil.NewRequest(t, http.MethodGet, "/auth/start")
	req.RemoteAddr = "203.0.113.7:4000"
	assert.Equal(t, http.StatusNoContent, testutil.DoRequest(router, req).Code)
}

type stalledRecorder struct{}

func (stalledRecorder) Record(ctx context.Context, _ statusModels.Decision) (*statusModels.AuditRecord, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestCallbackRedirectsPastRequestTimeout(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := handshakeService.New(handshakeStore.NewInMemory(10), verifier.NewMock("http://api.test/auth/callback"),
		stalledRecorder{}, logger,
		handshakeService.WithRecordBudget(40*time.Millisecond),
	)
	router := NewRouter(Dependencies{
		Logger:         logger,
		RequestTimeout: 10 * time.Millisecond,
		Health:         routeStub{http.MethodGet, "/health"},
		Handshake:      handshakeHandler.New(svc, logger, "http://web.test"),
		Status:         routeStub{http.MethodGet, "/user/{id}/status"},
		Portal:         routeStub{http.MethodPost, "/portal/validate-api-key"},
		Analytics:      routeStub{http.MethodGet, "/admin/analytics"},
		Submit:         func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) },
	})

	start, err := svc.Start(context.Background(), domain.SubjectID(uuid.New()))
	require.NoError(t, err)
	startURL, err := url.Parse(start)
	require.NoError(t, err)

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, startURL.RequestURI()))

	result := testutil.AssertRedirect(t, rr)
	assert.Equal(t, "/auth/result", result.Path)
	assert.Equal(t, "non_verified", result.Query().Get("status"))
}
