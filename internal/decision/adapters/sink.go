package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"verigate/internal/decision"
	"verigate/pkg/domain"
	"verigate/pkg/platform/circuit"
)

// ErrCircuitOpen is returned when a sink route is skipped by its breaker.
var ErrCircuitOpen = errors.New("sink circuit open")

// SinkConfig configures the per-outcome metrics sink client.
type SinkConfig struct {
	VerifiedURL    string
	NonVerifiedURL string
	Timeout        time.Duration
	HTTPClient     HTTPDoer
	Logger         *slog.Logger
	BreakerOptions []circuit.Option
}

type sinkRoute struct {
	url     string
	breaker *circuit.Breaker
}

// HTTPSink posts decisions to {route}/session. Each route has its own breaker
// so an outage of one sink does not silence the other.
type HTTPSink struct {
	routes  map[domain.Status]sinkRoute
	client  HTTPDoer
	timeout time.Duration
	logger  *slog.Logger
}

// NewHTTPSink creates a sink client. Timeout defaults to 5s.
func NewHTTPSink(cfg SinkConfig) *HTTPSink {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	s := &HTTPSink{
		routes: map[domain.Status]sinkRoute{
			domain.StatusVerified: {
				url:     cfg.VerifiedURL,
				breaker: circuit.New("sink_verified", cfg.BreakerOptions...),
			},
			domain.StatusNonVerified: {
				url:     cfg.NonVerifiedURL,
				breaker: circuit.New("sink_non_verified", cfg.BreakerOptions...),
			},
		},
		client:  cfg.HTTPClient,
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
	}
	if s.client == nil {
		s.client = &http.Client{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Forward posts event to the sink for status. The call is bounded by the
// sink timeout regardless of ctx's own deadline.
func (s *HTTPSink) Forward(ctx context.Context, status domain.Status, event decision.ForwardEvent) error {
	route, ok := s.routes[status]
	if !ok || route.url == "" {
		return fmt.Errorf("no sink route for status %q", status)
	}
	if !route.breaker.Allow() {
		return ErrCircuitOpen
	}

	err := s.post(ctx, route.url+"/session", event)
	if err != nil {
		if change := route.breaker.RecordFailure(); change.Opened {
			s.logger.WarnContext(ctx, "sink circuit opened",
				"breaker", route.breaker.Name(),
				"error", err,
			)
		}
		return err
	}
	if change := route.breaker.RecordSuccess(); change.Closed {
		s.logger.InfoContext(ctx, "sink circuit closed", "breaker", route.breaker.Name())
	}
	return nil
}

func (s *HTTPSink) post(ctx context.Context, url string, event decision.ForwardEvent) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal forward event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create forward request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("forward to sink: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sink returned status %d", resp.StatusCode)
	}
	return nil
}
