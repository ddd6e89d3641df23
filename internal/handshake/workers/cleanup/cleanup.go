package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"verigate/internal/handshake/metrics"
)

// ExpiringStore exposes removal of expired handshakes.
type ExpiringStore interface {
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// Service periodically sweeps expired handshakes.
type Service struct {
	store    ExpiringStore
	interval time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures Service.
type Option func(*Service)

// WithInterval overrides the sweep interval when greater than zero.
func WithInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithLogger overrides the logger used for sweep errors.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a cleanup worker for store.
func New(store ExpiringStore, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	svc := &Service{
		store:    store,
		interval: time.Minute,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc, nil
}

// Start sweeps on every tick until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.ErrorContext(ctx, "handshake cleanup failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOnce performs a single sweep and returns how many handshakes were removed.
func (s *Service) RunOnce(ctx context.Context) (int, error) {
	n, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("delete expired handshakes: %w", err)
	}
	s.metrics.AddSwept(n)
	if n > 0 {
		s.logger.DebugContext(ctx, "expired handshakes swept", "count", n)
	}
	return n, nil
}
