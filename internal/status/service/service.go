// Package service records verification decisions and serves status lookups.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"verigate/internal/status/models"
	"verigate/internal/status/store"
	"verigate/pkg/domain"
	dErrors "verigate/pkg/domain-errors"
	"verigate/pkg/platform/sentinel"
	"verigate/pkg/requestcontext"
)

// SubjectStore is the UserRegistry.
// Error Contract: Get returns sentinel.ErrNotFound when the subject is unknown.
type SubjectStore interface {
	Upsert(ctx context.Context, state *models.VerificationState) error
	Get(ctx context.Context, subjectID domain.SubjectID) (*models.VerificationState, error)
	CountByStatus(ctx context.Context) (store.StatusCounts, error)
}

// Ledger is the append-only audit log.
type Ledger interface {
	Append(ctx context.Context, record *models.AuditRecord) error
}

// LedgerPublisher streams appended records. Failures never fail a write.
type LedgerPublisher interface {
	Publish(ctx context.Context, rec *models.AuditRecord) error
}

type Option func(*Service)

// Service writes the registry row and then the ledger entry for each decision.
// There is no rollback: a failed append leaves the updated registry row in place.
type Service struct {
	subjects  SubjectStore
	ledger    Ledger
	publisher LedgerPublisher
	logger    *slog.Logger
	now       func() time.Time
}

func New(subjects SubjectStore, ledger Ledger, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		subjects: subjects,
		ledger:   ledger,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithPublisher streams each appended record.
func WithPublisher(p LedgerPublisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithClock overrides the write-time clock stamped on registry and ledger rows.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Record persists d: upsert the subject, then append the audit record.
func (s *Service) Record(ctx context.Context, d models.Decision) (*models.AuditRecord, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	// Stamped at write time, not request arrival, so the newest ledger row
	// always matches the registry.
	now := s.now()

	if err := s.subjects.Upsert(ctx, models.NewState(d, now)); err != nil {
		s.logger.ErrorContext(ctx, "failed to upsert subject state",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", d.SubjectID.String(),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save verification status")
	}

	rec := models.NewAuditRecord(d, now)
	if err := s.ledger.Append(ctx, rec); err != nil {
		s.logger.ErrorContext(ctx, "failed to append audit record",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", d.SubjectID.String(),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to write audit record")
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(context.WithoutCancel(ctx), rec); err != nil {
			s.logger.WarnContext(ctx, "ledger stream publish failed",
				"request_id", requestcontext.RequestID(ctx),
				"audit_id", rec.ID.String(),
				"error", err,
			)
		}
	}
	return rec, nil
}

// Get returns the current state for subjectID.
func (s *Service) Get(ctx context.Context, subjectID domain.SubjectID) (*models.VerificationState, error) {
	state, err := s.subjects.Get(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "User not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification status")
	}
	return state, nil
}

// IsVerified reports whether subjectID is currently verified. Unknown subjects are not.
func (s *Service) IsVerified(ctx context.Context, subjectID domain.SubjectID) (bool, error) {
	state, err := s.subjects.Get(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification status")
	}
	return state.Status.IsVerified(), nil
}
