// Package service keeps a companion record of every portal submission.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mssola/useragent"
	"github.com/oklog/ulid/v2"

	"verigate/internal/submission/models"
	"verigate/pkg/domain"
	dErrors "verigate/pkg/domain-errors"
	"verigate/pkg/requestcontext"
)

const maxDescriptionLen = 2000

// Store persists submissions.
type Store interface {
	Save(ctx context.Context, sub *models.Submission) error
}

// TrackInput describes a submission that has already been decided.
type TrackInput struct {
	SubjectID      domain.SubjectID
	Description    string
	IsVerifiedUser bool
	UserAgent      string
}

// Tracker assigns ULIDs and flags automated clients.
type Tracker struct {
	store  Store
	logger *slog.Logger
	newID  func() string
	now    func() time.Time
}

type Option func(*Tracker)

// WithClock overrides the write-time clock used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithIDGenerator overrides ULID generation.
func WithIDGenerator(fn func() string) Option {
	return func(t *Tracker) {
		if fn != nil {
			t.newID = fn
		}
	}
}

func NewTracker(store Store, logger *slog.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		store:  store,
		logger: logger,
		newID:  func() string { return ulid.Make().String() },
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Track stores a pending submission and returns it with its id.
func (t *Tracker) Track(ctx context.Context, in TrackInput) (*models.Submission, error) {
	description := strings.TrimSpace(in.Description)
	if r := []rune(description); len(r) > maxDescriptionLen {
		description = string(r[:maxDescriptionLen])
	}

	sub := &models.Submission{
		ID:             t.newID(),
		SubjectID:      in.SubjectID,
		Description:    description,
		Status:         models.StatusPending,
		IsVerifiedUser: in.IsVerifiedUser,
		BotAgent:       IsBotAgent(in.UserAgent),
		CreatedAt:      t.now(),
	}
	if err := t.store.Save(ctx, sub); err != nil {
		t.logger.ErrorContext(ctx, "failed to save submission",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record submission")
	}
	return sub, nil
}

// IsBotAgent flags crawlers and clients that send no User-Agent at all.
func IsBotAgent(ua string) bool {
	ua = strings.TrimSpace(ua)
	if ua == "" {
		return true
	}
	return useragent.New(ua).Bot()
}
