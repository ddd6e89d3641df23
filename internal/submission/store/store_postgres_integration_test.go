//go:build integration

package store_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/suite"

	statusModels "verigate/internal/status/models"
	statusStore "verigate/internal/status/store"
	"verigate/internal/submission/models"
	"verigate/internal/submission/store"
	"verigate/pkg/domain"
	"verigate/pkg/testutil/containers"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *store.PostgresStore
	now   time.Time
}

func TestPostgresIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresIntegrationSuite))
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.pg.DB)
}

func (s *PostgresIntegrationSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateAll(context.Background()))
	s.now = time.Now().UTC().Truncate(time.Microsecond)
}

func (s *PostgresIntegrationSuite) subject(status domain.Status) domain.SubjectID {
	id := domain.SubjectID(uuid.New())
	s.Require().NoError(statusStore.NewPostgresSubjects(s.pg.DB).Upsert(context.Background(), &statusModels.VerificationState{
		SubjectID: id, Status: status, LastVerifiedAt: s.now,
	}))
	return id
}

func (s *PostgresIntegrationSuite) save(subject domain.SubjectID, verified, bot bool, description string, age time.Duration) {
	s.Require().NoError(s.store.Save(context.Background(), &models.Submission{
		ID:             ulid.Make().String(),
		SubjectID:      subject,
		Description:    description,
		Status:         models.StatusPending,
		IsVerifiedUser: verified,
		BotAgent:       bot,
		CreatedAt:      s.now.Add(-age),
	}))
}

func (s *PostgresIntegrationSuite) TestRollups() {
	ctx := context.Background()
	verified := s.subject(domain.StatusVerified)
	spammer := s.subject(domain.StatusNonVerified)

	s.save(verified, true, false, strings.Repeat("detailed report ", 5), 48*time.Hour)
	s.save(spammer, false, true, "test", time.Hour)
	s.save(spammer, false, false, "asdf", 2*time.Hour)
	s.save(spammer, false, false, "fake", 3*time.Hour)

	sum, err := s.store.Summary(ctx)
	s.Require().NoError(err)
	s.Equal(models.Summary{Total: 4, FromVerified: 1, Pending: 4, LowQuality: 3, Generic: 3, BotAgents: 1}, sum)

	multi, err := s.store.MultipleSubmitters(ctx, 20)
	s.Require().NoError(err)
	s.Equal([]models.SubjectCount{{SubjectID: spammer, Count: 3}}, multi)

	frequent, err := s.store.HighFrequency(ctx, s.now.Add(-24*time.Hour), 3)
	s.Require().NoError(err)
	s.Equal([]models.SubjectCount{{SubjectID: spammer, Count: 3}}, frequent)

	suspicious, err := s.store.SuspiciousNonVerified(ctx, 2, 20)
	s.Require().NoError(err)
	s.Equal([]models.SubjectCount{{SubjectID: spammer, Count: 3}}, suspicious)

	days, err := s.store.DailyCounts(ctx, s.now.Add(-7*24*time.Hour))
	s.Require().NoError(err)
	total := 0
	for _, d := range days {
		total += d.Count
	}
	s.Equal(4, total)
}

func (s *PostgresIntegrationSuite) TestDuplicateDescriptions() {
	ctx := context.Background()
	a := s.subject(domain.StatusNonVerified)
	b := s.subject(domain.StatusNonVerified)

	s.save(a, false, false, "Free Money", time.Hour)
	s.save(b, false, false, "  free money ", 2*time.Hour)
	s.save(a, false, false, "free money", 3*time.Hour)
	s.save(b, false, false, "one of a kind", 4*time.Hour)

	dups, err := s.store.DuplicateDescriptions(ctx, 20)
	s.Require().NoError(err)
	s.Equal([]models.DuplicateDescription{{Description: "free money", Count: 3, UniqueUsers: 2}}, dups)
}
