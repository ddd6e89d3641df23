package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"verigate/internal/decision"
)

const maxScorerBody = 1 << 20

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ScorerConfig configures the HTTP scorer client.
type ScorerConfig struct {
	BaseURL    string
	TopK       int
	HTTPClient HTTPDoer
	Tracer     trace.Tracer
}

// HTTPScorer calls POST {base}/analyze on the analysis service.
// It applies no timeout of its own; the caller's context bounds the call.
type HTTPScorer struct {
	baseURL string
	topK    int
	client  HTTPDoer
	tracer  trace.Tracer
}

type analyzeRequest struct {
	Text string `json:"text"`
	TopK int    `json:"top_k"`
}

type analyzeResponse struct {
	Decision    string   `json:"decision"`
	ScoreBin    string   `json:"score_bin"`
	ReasonCodes []string `json:"reason_codes"`
}

// NewHTTPScorer creates a scorer client. TopK defaults to 5.
func NewHTTPScorer(cfg ScorerConfig) *HTTPScorer {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	s := &HTTPScorer{
		baseURL: cfg.BaseURL,
		topK:    cfg.TopK,
		client:  cfg.HTTPClient,
		tracer:  cfg.Tracer,
	}
	if s.client == nil {
		s.client = &http.Client{}
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer("verigate/decision")
	}
	return s
}

// Analyze submits text for analysis. A JSON null body yields (nil, nil).
func (s *HTTPScorer) Analyze(ctx context.Context, text string) (result *decision.ScorerResult, err error) {
	ctx, span := s.tracer.Start(ctx, "scorer.analyze",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.Int("scorer.top_k", s.topK),
			attribute.Int("scorer.text_length", len(text)),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.SetAttributes(attribute.String("scorer.error_kind", string(decision.ScorerErrorKindOf(err))))
		}
		span.End()
	}()

	body, err := json.Marshal(analyzeRequest{Text: text, TopK: s.topK})
	if err != nil {
		return nil, decision.NewScorerError(decision.ScorerUnavailable, "failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, decision.NewScorerError(decision.ScorerUnavailable, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, decision.NewScorerError(decision.ScorerTimeout, "request timeout", err)
		}
		return nil, decision.NewScorerError(decision.ScorerUnavailable, "failed to execute request", err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxScorerBody))
		return nil, decision.NewScorerError(decision.ScorerUnavailable, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxScorerBody))
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, decision.NewScorerError(decision.ScorerTimeout, "response read timeout", err)
		}
		return nil, decision.NewScorerError(decision.ScorerMalformed, "failed to read response", err)
	}

	var parsed *analyzeResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, decision.NewScorerError(decision.ScorerMalformed, "failed to parse response", err)
	}
	if parsed == nil {
		return nil, nil
	}
	return &decision.ScorerResult{
		Decision:    parsed.Decision,
		ScoreBin:    parsed.ScoreBin,
		ReasonCodes: parsed.ReasonCodes,
	}, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
