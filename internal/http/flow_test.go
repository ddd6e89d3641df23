package httpapi_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	analyticsHandler "verigate/internal/analytics/handler"
	analyticsService "verigate/internal/analytics/service"
	"verigate/internal/decision/adapters"
	decisionHandler "verigate/internal/decision/handler"
	decisionService "verigate/internal/decision/service"
	handshakeHandler "verigate/internal/handshake/handler"
	handshakeService "verigate/internal/handshake/service"
	handshakeStore "verigate/internal/handshake/store"
	httpapi "verigate/internal/http"
	"verigate/internal/keyset"
	"verigate/internal/platform/health"
	"verigate/internal/session"
	statusHandler "verigate/internal/status/handler"
	statusService "verigate/internal/status/service"
	statusStore "verigate/internal/status/store"
	submissionService "verigate/internal/submission/service"
	submissionStore "verigate/internal/submission/store"
	"verigate/internal/verifier"
	"verigate/pkg/testutil"
)

const adminKey = "flow-admin-key"

type flow struct {
	router      http.Handler
	scorerCalls *atomic.Int32
	decisions   *decisionService.Service
}

func newFlow(t *testing.T) *flow {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var calls atomic.Int32
	scorerSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"decision":"non_verified","score_bin":"0.2-0.4","reason_codes":["no_security_signal"]}`))
	}))
	t.Cleanup(scorerSrv.Close)
	sinkSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(sinkSrv.Close)

	subjects := statusStore.NewInMemorySubjects()
	ledger := statusStore.NewInMemoryLedger()
	submissions := submissionStore.NewInMemory()
	keys := keyset.New([]string{adminKey})
	sessions := session.NewIssuer("flow-signing-key", time.Hour)

	statusSvc := statusService.New(subjects, ledger, logger)
	handshakeSvc := handshakeService.New(
		handshakeStore.NewInMemory(100),
		verifier.NewMock("http://api.test/auth/callback"),
		statusSvc, logger,
		handshakeService.WithSessionIssuer(sessions),
	)
	decisions := decisionService.New(keys,
		adapters.NewHTTPScorer(adapters.ScorerConfig{BaseURL: scorerSrv.URL}),
		statusSvc,
		submissionService.NewTracker(submissions, logger),
		logger,
		decisionService.WithSessionProof(sessions, statusSvc),
		decisionService.WithSink(adapters.NewHTTPSink(adapters.SinkConfig{
			VerifiedURL:    sinkSrv.URL,
			NonVerifiedURL: sinkSrv.URL,
		})),
	)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = decisions.Drain(ctx)
	})

	portal := decisionHandler.New(decisions, logger)
	router := httpapi.NewRouter(httpapi.Dependencies{
		Logger:         logger,
		RequestTimeout: 5 * time.Second,
		Health:         health.New("test"),
		Handshake:      handshakeHandler.New(handshakeSvc, logger, "http://web.test"),
		Status:         statusHandler.New(statusSvc, logger),
		Portal:         portal,
		Analytics:      analyticsHandler.New(analyticsService.New(subjects, ledger, submissions, logger), keys, logger),
		Submit:         portal.HandleSubmit,
	})
	return &flow{router: router, scorerCalls: &calls, decisions: decisions}
}

func (f *flow) submit(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	rr := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/portal/submit", body))
	testutil.AssertStatusOK(t, rr)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestVerifiedSessionSkipsScoring(t *testing.T) {
	testutil.Given(t, "a user who completed the mock verification", func(t *testing.T) {
		f := newFlow(t)
		subject := uuid.NewString()

		rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/auth/start?user_id="+subject))
		callback := testutil.AssertRedirect(t, rr)
		require.Equal(t, "/auth/callback", callback.Path)

		rr = testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, callback.RequestURI()))
		result := testutil.AssertRedirect(t, rr)
		require.Equal(t, "verified", result.Query().Get("status"))
		token := result.Query().Get("session")
		require.NotEmpty(t, token)

		testutil.When(t, "they submit with the skip flag and their session token", func(t *testing.T) {
			out := f.submit(t, map[string]any{
				"problem":          "IDOR on invoice download",
				"userId":           subject,
				"skipVerification": true,
				"sessionToken":     token,
			})

			testutil.Then(t, "the submission is verified without calling the scorer", func(t *testing.T) {
				assert.Equal(t, "verified", out["status"])
				assert.Equal(t, subject, out["subjectId"])
				assert.Equal(t, []any{"already_verified", "skip_ai_verification"}, out["reasonCodes"])
				assert.NotEmpty(t, out["submissionId"])
				assert.Zero(t, f.scorerCalls.Load())
			})
		})

		testutil.When(t, "someone else replays the skip flag without a token", func(t *testing.T) {
			out := f.submit(t, map[string]any{
				"problem":          "IDOR on invoice download",
				"userId":           uuid.NewString(),
				"skipVerification": true,
			})

			testutil.Then(t, "the scorer decides", func(t *testing.T) {
				assert.Equal(t, "non_verified", out["status"])
				assert.Equal(t, int32(1), f.scorerCalls.Load())
			})
		})
	})
}

func TestAdminSeesSubmissionsInAnalytics(t *testing.T) {
	testutil.Given(t, "one admin submission and one scored submission", func(t *testing.T) {
		f := newFlow(t)
		f.submit(t, map[string]any{"problem": "Token leak in build logs", "apiKey": adminKey})
		f.submit(t, map[string]any{"problem": "test"})

		testutil.When(t, "the admin requests analytics", func(t *testing.T) {
			req := testutil.NewRequest(t, http.MethodGet, "/admin/analytics")
			req.Header.Set("X-Admin-API-Key", adminKey)
			rr := testutil.DoRequest(f.router, req)

			testutil.Then(t, "both decisions and submissions are counted", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				var snap map[string]any
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
				assert.EqualValues(t, 2, snap["totalUsers"])
				assert.EqualValues(t, 1, snap["verifiedUsers"])
				assert.EqualValues(t, 50, snap["verificationRate"])
				submissions, ok := snap["submissions"].(map[string]any)
				require.True(t, ok)
				assert.EqualValues(t, 2, submissions["totalSubmissions"])
			})
		})

		testutil.When(t, "an anonymous caller requests analytics", func(t *testing.T) {
			rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/admin/analytics"))

			testutil.Then(t, "it is rejected", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
			})
		})
	})
}
