package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"verigate/internal/submission/models"
	"verigate/pkg/domain"
)

type PostgresStoreSuite struct {
	suite.Suite
	mock  sqlmock.Sqlmock
	store *PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupTest() {
	db, mock, err := sqlmock.New()
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = db.Close() })
	s.mock = mock
	s.store = NewPostgres(db)
}

func (s *PostgresStoreSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *PostgresStoreSuite) TestSave() {
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO submissions")).
		WithArgs("01J0000000000000000000000", sqlmock.AnyArg(), "desc", "pending", false, true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.store.Save(context.Background(), &models.Submission{
		ID:          "01J0000000000000000000000",
		SubjectID:   domain.SubjectID(uuid.New()),
		Description: "desc",
		Status:      models.StatusPending,
		BotAgent:    true,
		CreatedAt:   time.Now(),
	})
	s.NoError(err)
}

func (s *PostgresStoreSuite) TestSummary() {
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM submissions")).
		WithArgs(models.LowQualityMaxLen, models.GenericMaxLen, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"total", "verified", "pending", "low", "generic", "bots"}).
			AddRow(10, 4, 9, 3, 2, 1))

	sum, err := s.store.Summary(context.Background())
	s.Require().NoError(err)
	s.Equal(models.Summary{Total: 10, FromVerified: 4, Pending: 9, LowQuality: 3, Generic: 2, BotAgents: 1}, sum)
}

func (s *PostgresStoreSuite) TestHighFrequency() {
	subject := uuid.New()
	since := time.Now().Add(-24 * time.Hour)
	s.mock.ExpectQuery(regexp.QuoteMeta("HAVING COUNT(*) >= $2")).
		WithArgs(since, 3).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "n"}).AddRow(subject.String(), 5))

	got, err := s.store.HighFrequency(context.Background(), since, 3)
	s.Require().NoError(err)
	s.Equal([]models.SubjectCount{{SubjectID: domain.SubjectID(subject), Count: 5}}, got)
}

func (s *PostgresStoreSuite) TestDuplicateDescriptions() {
	s.mock.ExpectQuery(regexp.QuoteMeta("GROUP BY normalized")).
		WithArgs(20).
		WillReturnRows(sqlmock.NewRows([]string{"normalized", "n", "count"}).
			AddRow("sql injection in login", 4, 3).
			AddRow("xss in search", 2, 1))

	got, err := s.store.DuplicateDescriptions(context.Background(), 20)
	s.Require().NoError(err)
	s.Equal([]models.DuplicateDescription{
		{Description: "sql injection in login", Count: 4, UniqueUsers: 3},
		{Description: "xss in search", Count: 2, UniqueUsers: 1},
	}, got)
}
