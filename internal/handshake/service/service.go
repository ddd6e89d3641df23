// Package service runs the verification handshake: it issues a one-time token,
// sends the caller to the provider and records the provider's verdict when the
// callback comes back.
package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"verigate/internal/handshake/metrics"
	"verigate/internal/handshake/models"
	statusModels "verigate/internal/status/models"
	"verigate/internal/verifier"
	"verigate/pkg/domain"
	dErrors "verigate/pkg/domain-errors"
	"verigate/pkg/platform/sentinel"
	"verigate/pkg/requestcontext"
)

const (
	defaultTTL          = 15 * time.Minute
	defaultRecordBudget = 5 * time.Second
)

// Store holds issued handshakes.
// Error Contract: Consume returns sentinel.ErrNotFound for unknown or consumed
// tokens and sentinel.ErrExpired for tokens past their TTL.
type Store interface {
	Save(ctx context.Context, h *models.Handshake) error
	Consume(ctx context.Context, token string, now time.Time) (*models.Handshake, error)
}

// StatusRecorder persists the verdict for a subject.
type StatusRecorder interface {
	Record(ctx context.Context, d statusModels.Decision) (*statusModels.AuditRecord, error)
}

// SessionIssuer mints the proof token handed back after a verified callback.
type SessionIssuer interface {
	Issue(subjectID domain.SubjectID) (string, error)
}

// CallbackOutcome is what the callback endpoint reports back to the browser.
type CallbackOutcome struct {
	Status       domain.Status
	SessionToken string
}

type Option func(*Service)

// Service coordinates the handshake registry, provider and status recorder.
type Service struct {
	store        Store
	provider     verifier.Provider
	recorder     StatusRecorder
	sessions     SessionIssuer
	metrics      *metrics.Metrics
	logger       *slog.Logger
	ttl          time.Duration
	recordBudget time.Duration
	fallbackBase string
	newToken     func() string
}

func New(store Store, provider verifier.Provider, recorder StatusRecorder, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:        store,
		provider:     provider,
		recorder:     recorder,
		logger:       logger,
		ttl:          defaultTTL,
		recordBudget: defaultRecordBudget,
		fallbackBase: "http://localhost:8080",
		newToken:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.ttl <= 0 {
		svc.ttl = defaultTTL
	}
	return svc
}

// WithTTL sets how long an issued token stays resolvable.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.ttl = ttl
	}
}

// WithRecordBudget bounds the callback's token consume and verdict write.
// Both ignore caller cancellation; only this budget can cut them short.
func WithRecordBudget(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.recordBudget = d
		}
	}
}

// WithFallbackBase sets the origin used when a provider start URL is unusable.
func WithFallbackBase(base string) Option {
	return func(s *Service) {
		if base != "" {
			s.fallbackBase = base
		}
	}
}

// WithSessionIssuer enables session tokens on verified callbacks.
func WithSessionIssuer(issuer SessionIssuer) Option {
	return func(s *Service) {
		s.sessions = issuer
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTokenGenerator overrides token minting.
func WithTokenGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newToken = fn
		}
	}
}

// Start issues a handshake for subjectID and returns the absolute provider URL.
func (s *Service) Start(ctx context.Context, subjectID domain.SubjectID) (string, error) {
	token := s.newToken()
	h := models.NewHandshake(token, subjectID, requestcontext.Now(ctx), s.ttl)
	if err := s.store.Save(ctx, h); err != nil {
		s.logger.ErrorContext(ctx, "failed to save handshake",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to start verification")
	}
	s.metrics.IncrementIssued()

	raw, err := s.provider.StartURL(subjectID, token)
	if err != nil {
		s.logger.WarnContext(ctx, "provider start url failed, using fallback",
			"request_id", requestcontext.RequestID(ctx),
			"provider", string(s.provider.Kind()),
			"error", err,
		)
		raw = ""
	}
	return verifier.NormalizeStartURL(raw, s.fallbackBase, subjectID, token), nil
}

// Resolve consumes token and returns the subject it was issued for.
func (s *Service) Resolve(ctx context.Context, token string) (domain.SubjectID, error) {
	h, err := s.store.Consume(ctx, token, requestcontext.Now(ctx))
	switch {
	case err == nil:
		s.metrics.IncrementResolved(metrics.ResolveOK)
		return h.SubjectID, nil
	case errors.Is(err, sentinel.ErrExpired):
		s.metrics.IncrementResolved(metrics.ResolveExpired)
		return domain.SubjectID{}, dErrors.Wrap(err, dErrors.CodeNotFound, "handshake token expired")
	case errors.Is(err, sentinel.ErrNotFound):
		s.metrics.IncrementResolved(metrics.ResolveUnknown)
		return domain.SubjectID{}, dErrors.Wrap(err, dErrors.CodeNotFound, "handshake token not found")
	default:
		s.metrics.IncrementResolved(metrics.ResolveFailed)
		return domain.SubjectID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve handshake token")
	}
}

// Callback interprets the provider redirect. It never fails: anything that
// goes wrong degrades to non_verified.
func (s *Service) Callback(ctx context.Context, query url.Values) CallbackOutcome {
	requestID := requestcontext.RequestID(ctx)
	failed := CallbackOutcome{Status: domain.StatusNonVerified}

	state := query.Get("state")
	if state == "" {
		s.metrics.IncrementResolved(metrics.ResolveNoState)
		s.logger.InfoContext(ctx, "callback without state", "request_id", requestID)
		return failed
	}

	// Consuming the token and writing the verdict ignore caller cancellation:
	// a consumed token whose verdict is lost cannot be replayed.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.recordBudget)
	defer cancel()

	subjectID, err := s.Resolve(recordCtx, state)
	if err != nil {
		s.logger.InfoContext(ctx, "callback state did not resolve",
			"request_id", requestID,
			"error", err,
		)
		return failed
	}

	result := s.provider.HandleCallback(query)
	_, err = s.recorder.Record(recordCtx, statusModels.Decision{
		SubjectID:      subjectID,
		Status:         result.Status(),
		ReasonCodes:    result.ReasonCodes,
		ScoreBin:       result.ScoreBin,
		AttestationRef: result.AttestationRef,
		ModelVersion:   s.provider.ModelVersion(),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to record callback verdict",
			"request_id", requestID,
			"user_id", subjectID.String(),
			"error", err,
		)
		return failed
	}
	s.metrics.IncrementCallbackOutcome(string(s.provider.Kind()), result.Status().String())

	outcome := CallbackOutcome{Status: result.Status()}
	if outcome.Status.IsVerified() && s.sessions != nil {
		token, err := s.sessions.Issue(subjectID)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to issue session token",
				"request_id", requestID,
				"error", err,
			)
		} else {
			outcome.SessionToken = token
		}
	}

	s.logger.InfoContext(ctx, "verification callback recorded",
		"request_id", requestID,
		"user_id", subjectID.String(),
		"provider", string(s.provider.Kind()),
		"status", outcome.Status.String(),
	)
	return outcome
}
