package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verigate/internal/decision"
	"verigate/pkg/domain"
	"verigate/pkg/platform/circuit"
)

func TestHTTPScorer(t *testing.T) {
	t.Run("posts text and top_k and parses the body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/analyze", r.URL.Path)
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "Problem: xss", body["text"])
			assert.EqualValues(t, 5, body["top_k"])
			_, _ = w.Write([]byte(`{"decision":"verified","score_bin":"0.8-1.0","reason_codes":["cve_match"]}`))
		}))
		defer srv.Close()

		res, err := NewHTTPScorer(ScorerConfig{BaseURL: srv.URL}).Analyze(context.Background(), "Problem: xss")
		require.NoError(t, err)
		assert.Equal(t, &decision.ScorerResult{Decision: "verified", ScoreBin: "0.8-1.0", ReasonCodes: []string{"cve_match"}}, res)
	})

	t.Run("null body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`null`))
		}))
		defer srv.Close()

		res, err := NewHTTPScorer(ScorerConfig{BaseURL: srv.URL}).Analyze(context.Background(), "x")
		require.NoError(t, err)
		assert.Nil(t, res)
	})

	t.Run("unparseable body is malformed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}))
		defer srv.Close()

		_, err := NewHTTPScorer(ScorerConfig{BaseURL: srv.URL}).Analyze(context.Background(), "x")
		assert.Equal(t, decision.ScorerMalformed, decision.ScorerErrorKindOf(err))
	})

	t.Run("non-2xx is unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := NewHTTPScorer(ScorerConfig{BaseURL: srv.URL}).Analyze(context.Background(), "x")
		assert.Equal(t, decision.ScorerUnavailable, decision.ScorerErrorKindOf(err))
	})

	t.Run("deadline is a timeout", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-release:
			}
		}))
		defer srv.Close()
		defer close(release)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := NewHTTPScorer(ScorerConfig{BaseURL: srv.URL}).Analyze(ctx, "x")
		assert.Equal(t, decision.ScorerTimeout, decision.ScorerErrorKindOf(err))
	})

	t.Run("connection failure is unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := srv.URL
		srv.Close()

		_, err := NewHTTPScorer(ScorerConfig{BaseURL: url}).Analyze(context.Background(), "x")
		assert.Equal(t, decision.ScorerUnavailable, decision.ScorerErrorKindOf(err))
	})
}

func TestHTTPSink(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	event := decision.ForwardEvent{UserID: "u1", Status: "verified", ScoreBin: "1.0-1.0", ReasonCodes: []string{"privileged_access"}}

	t.Run("routes by status", func(t *testing.T) {
		var verifiedHits, nonVerifiedHits atomic.Int32
		verified := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/session", r.URL.Path)
			var got decision.ForwardEvent
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			assert.Equal(t, event, got)
			verifiedHits.Add(1)
		}))
		defer verified.Close()
		nonVerified := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			nonVerifiedHits.Add(1)
		}))
		defer nonVerified.Close()

		sink := NewHTTPSink(SinkConfig{VerifiedURL: verified.URL, NonVerifiedURL: nonVerified.URL, Logger: logger})
		require.NoError(t, sink.Forward(context.Background(), domain.StatusVerified, event))
		require.NoError(t, sink.Forward(context.Background(), domain.StatusNonVerified, event))
		assert.EqualValues(t, 1, verifiedHits.Load())
		assert.EqualValues(t, 1, nonVerifiedHits.Load())
	})

	t.Run("breaker opens after repeated failures", func(t *testing.T) {
		var hits atomic.Int32
		failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer failing.Close()

		sink := NewHTTPSink(SinkConfig{
			VerifiedURL:    failing.URL,
			NonVerifiedURL: failing.URL,
			Logger:         logger,
			BreakerOptions: []circuit.Option{circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour)},
		})
		for range 2 {
			assert.Error(t, sink.Forward(context.Background(), domain.StatusVerified, event))
		}
		err := sink.Forward(context.Background(), domain.StatusVerified, event)
		assert.True(t, errors.Is(err, ErrCircuitOpen))
		assert.EqualValues(t, 2, hits.Load())

		// The other route keeps its own breaker.
		assert.Error(t, sink.Forward(context.Background(), domain.StatusNonVerified, event))
		assert.EqualValues(t, 3, hits.Load())
	})

	t.Run("slow sink is cut off by the sink timeout", func(t *testing.T) {
		release := make(chan struct{})
		slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-release:
			}
		}))
		defer slow.Close()
		defer close(release)

		sink := NewHTTPSink(SinkConfig{VerifiedURL: slow.URL, NonVerifiedURL: slow.URL, Timeout: 20 * time.Millisecond, Logger: logger})
		assert.Error(t, sink.Forward(context.Background(), domain.StatusVerified, event))
	})
}
