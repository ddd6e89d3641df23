// Package service computes analytics rollups over the registry, the ledger and
// the submission records. Every call recomputes from the stores; nothing is cached.
package service

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"verigate/internal/analytics/models"
	statusModels "verigate/internal/status/models"
	statusStore "verigate/internal/status/store"
	submissionModels "verigate/internal/submission/models"
	"verigate/pkg/domain"
	dErrors "verigate/pkg/domain-errors"
	"verigate/pkg/requestcontext"
)

const (
	recentVerificationsLimit   = 10
	multipleSubmittersLimit    = 20
	highFrequencyMin           = 3
	suspiciousMin              = 2
	suspiciousLimit            = 20
	duplicateDescriptionsLimit = 20
)

// SubjectCounter reads the registry rollup.
type SubjectCounter interface {
	CountByStatus(ctx context.Context) (statusStore.StatusCounts, error)
}

// LedgerReader is the read side of the audit ledger.
type LedgerReader interface {
	CountSince(ctx context.Context, since time.Time) (int, error)
	DistributionSince(ctx context.Context, since time.Time) (statusStore.StatusCounts, error)
	RecentByStatus(ctx context.Context, status domain.Status, limit int) ([]*statusModels.AuditRecord, error)
}

// SubmissionReader is the read side of the submission records.
type SubmissionReader interface {
	Summary(ctx context.Context) (submissionModels.Summary, error)
	MultipleSubmitters(ctx context.Context, limit int) ([]submissionModels.SubjectCount, error)
	HighFrequency(ctx context.Context, since time.Time, minCount int) ([]submissionModels.SubjectCount, error)
	SuspiciousNonVerified(ctx context.Context, minCount, limit int) ([]submissionModels.SubjectCount, error)
	DailyCounts(ctx context.Context, since time.Time) ([]submissionModels.DailyCount, error)
	DuplicateDescriptions(ctx context.Context, limit int) ([]submissionModels.DuplicateDescription, error)
}

// Service aggregates analytics.
type Service struct {
	subjects    SubjectCounter
	ledger      LedgerReader
	submissions SubmissionReader
	logger      *slog.Logger
}

func New(subjects SubjectCounter, ledger LedgerReader, submissions SubmissionReader, logger *slog.Logger) *Service {
	return &Service{
		subjects:    subjects,
		ledger:      ledger,
		submissions: submissions,
		logger:      logger,
	}
}

// Snapshot computes every rollup concurrently. Windows are anchored at the
// request time. Any failing query fails the whole snapshot.
func (s *Service) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	now := requestcontext.Now(ctx)
	since24h := now.Add(-models.Window24h)
	since7d := now.Add(-models.Window7d)
	since30d := now.Add(-models.Window30d)

	snap := &models.Snapshot{GeneratedAt: now}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		counts, err := s.subjects.CountByStatus(gctx)
		if err != nil {
			return err
		}
		snap.TotalUsers = counts.Total()
		snap.VerifiedUsers = counts[domain.StatusVerified]
		snap.NonVerifiedUsers = counts[domain.StatusNonVerified]
		return nil
	})
	g.Go(func() (err error) {
		snap.RecentActivity24h, err = s.ledger.CountSince(gctx, since24h)
		return err
	})
	g.Go(func() (err error) {
		snap.RecentActivity7d, err = s.ledger.CountSince(gctx, since7d)
		return err
	})
	g.Go(func() error {
		recs, err := s.ledger.RecentByStatus(gctx, domain.StatusVerified, recentVerificationsLimit)
		if err != nil {
			return err
		}
		snap.RecentVerifications = make([]models.RecentVerification, 0, len(recs))
		for _, r := range recs {
			snap.RecentVerifications = append(snap.RecentVerifications, models.RecentVerification{
				UserID:    r.SubjectID.String(),
				CreatedAt: r.CreatedAt,
				ScoreBin:  r.ScoreBin,
			})
		}
		return nil
	})
	g.Go(func() error {
		dist, err := s.ledger.DistributionSince(gctx, since30d)
		if err != nil {
			return err
		}
		snap.StatusDistribution = make(map[string]int, len(dist))
		for status, n := range dist {
			snap.StatusDistribution[string(status)] = n
		}
		// Rate and 30d activity come from the same read so the rate never exceeds 100.
		snap.RecentActivity30d = dist.Total()
		snap.VerificationRate = models.Rate(dist[domain.StatusVerified], snap.RecentActivity30d)
		return nil
	})
	s.submissionStats(g, gctx, &snap.Submissions, since24h, since7d)

	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "analytics rollup failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute analytics")
	}

	return snap, nil
}

func (s *Service) submissionStats(g *errgroup.Group, ctx context.Context, out *models.SubmissionStats, since24h, since7d time.Time) {
	g.Go(func() error {
		sum, err := s.submissions.Summary(ctx)
		if err != nil {
			return err
		}
		out.Total = sum.Total
		out.FromVerifiedUsers = sum.FromVerified
		out.Pending = sum.Pending
		out.LowQuality = sum.LowQuality
		out.Generic = sum.Generic
		out.BotAgents = sum.BotAgents
		return nil
	})
	g.Go(func() error {
		counts, err := s.submissions.MultipleSubmitters(ctx, multipleSubmittersLimit)
		out.UsersWithMultipleSubmissions = toUserSubmissions(counts)
		return err
	})
	g.Go(func() error {
		counts, err := s.submissions.HighFrequency(ctx, since24h, highFrequencyMin)
		out.HighFrequencyUsers = toUserSubmissions(counts)
		return err
	})
	g.Go(func() error {
		counts, err := s.submissions.SuspiciousNonVerified(ctx, suspiciousMin, suspiciousLimit)
		out.SuspiciousNonVerifiedUsers = toUserSubmissions(counts)
		return err
	})
	g.Go(func() error {
		dups, err := s.submissions.DuplicateDescriptions(ctx, duplicateDescriptionsLimit)
		out.DuplicateDescriptions = make([]models.DuplicateDescription, 0, len(dups))
		for _, d := range dups {
			out.DuplicateDescriptions = append(out.DuplicateDescriptions, models.DuplicateDescription{
				Description: d.Description,
				Count:       d.Count,
				UniqueUsers: d.UniqueUsers,
			})
		}
		return err
	})
	g.Go(func() error {
		days, err := s.submissions.DailyCounts(ctx, since7d)
		out.SubmissionsByDay = make([]models.DailySubmissions, 0, len(days))
		for _, d := range days {
			out.SubmissionsByDay = append(out.SubmissionsByDay, models.DailySubmissions{
				Date:  d.Date.Format(time.DateOnly),
				Count: d.Count,
			})
		}
		return err
	})
}

func toUserSubmissions(counts []submissionModels.SubjectCount) []models.UserSubmissions {
	out := make([]models.UserSubmissions, 0, len(counts))
	for _, c := range counts {
		out = append(out, models.UserSubmissions{
			UserID:          c.SubjectID.String(),
			SubmissionCount: c.Count,
		})
	}
	return out
}
