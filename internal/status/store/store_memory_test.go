package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"verigate/internal/status/models"
	"verigate/pkg/domain"
	"verigate/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	subjects *InMemorySubjectStore
	ledger   *InMemoryLedger
	now      time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.subjects = NewInMemorySubjects()
	s.ledger = NewInMemoryLedger()
	s.now = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) record(subject domain.SubjectID, status domain.Status, at time.Time) *models.AuditRecord {
	rec := &models.AuditRecord{
		ID:          domain.NewAuditID(),
		SubjectID:   subject,
		Status:      status,
		ReasonCodes: []string{"analysis_complete"},
		CreatedAt:   at,
	}
	s.Require().NoError(s.ledger.Append(context.Background(), rec))
	return rec
}

func (s *InMemoryStoreSuite) TestSubjects() {
	ctx := context.Background()
	subject := domain.SubjectID(uuid.New())

	s.Run("unknown subject is not found", func() {
		_, err := s.subjects.Get(ctx, subject)
		s.True(errors.Is(err, sentinel.ErrNotFound))
	})

	s.Run("upsert overwrites the live row", func() {
		s.Require().NoError(s.subjects.Upsert(ctx, &models.VerificationState{
			SubjectID: subject, Status: domain.StatusNonVerified, LastVerifiedAt: s.now,
		}))
		s.Require().NoError(s.subjects.Upsert(ctx, &models.VerificationState{
			SubjectID: subject, Status: domain.StatusVerified, LastVerifiedAt: s.now.Add(time.Minute),
		}))

		got, err := s.subjects.Get(ctx, subject)
		s.Require().NoError(err)
		s.Equal(domain.StatusVerified, got.Status)
		s.Equal(s.now.Add(time.Minute), got.LastVerifiedAt)

		counts, err := s.subjects.CountByStatus(ctx)
		s.Require().NoError(err)
		s.Equal(1, counts.Total())
		s.Equal(1, counts[domain.StatusVerified])
	})
}

func (s *InMemoryStoreSuite) TestLedgerWindows() {
	ctx := context.Background()
	subject := domain.SubjectID(uuid.New())
	s.record(subject, domain.StatusVerified, s.now.Add(-time.Hour))
	s.record(subject, domain.StatusNonVerified, s.now.Add(-48*time.Hour))
	s.record(subject, domain.StatusVerified, s.now.Add(-40*24*time.Hour))

	s.Run("count is inclusive of the window start", func() {
		n, err := s.ledger.CountSince(ctx, s.now.Add(-time.Hour))
		s.Require().NoError(err)
		s.Equal(1, n)
	})

	s.Run("distribution over 30 days", func() {
		dist, err := s.ledger.DistributionSince(ctx, s.now.Add(-30*24*time.Hour))
		s.Require().NoError(err)
		s.Equal(StatusCounts{domain.StatusVerified: 1, domain.StatusNonVerified: 1}, dist)
	})

	s.Run("list by subject keeps append order", func() {
		recs, err := s.ledger.ListBySubject(ctx, subject)
		s.Require().NoError(err)
		s.Len(recs, 3)
		s.Equal(domain.StatusNonVerified, recs[1].Status)
	})
}

func (s *InMemoryStoreSuite) TestRecentByStatus() {
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		s.record(domain.SubjectID(uuid.New()), domain.StatusVerified, s.now.Add(time.Duration(i)*time.Minute))
	}
	s.record(domain.SubjectID(uuid.New()), domain.StatusNonVerified, s.now.Add(time.Hour))

	recent, err := s.ledger.RecentByStatus(ctx, domain.StatusVerified, 10)
	s.Require().NoError(err)
	s.Len(recent, 10)
	s.Equal(s.now.Add(11*time.Minute), recent[0].CreatedAt)
	for i := 1; i < len(recent); i++ {
		s.True(recent[i-1].CreatedAt.After(recent[i].CreatedAt))
		s.Equal(domain.StatusVerified, recent[i].Status)
	}
}

func (s *InMemoryStoreSuite) TestAppendCopiesReasonCodes() {
	ctx := context.Background()
	rec := s.record(domain.SubjectID(uuid.New()), domain.StatusVerified, s.now)
	rec.ReasonCodes[0] = "mutated"

	recs, err := s.ledger.ListBySubject(ctx, rec.SubjectID)
	s.Require().NoError(err)
	s.Equal("analysis_complete", recs[0].ReasonCodes[0])
}
