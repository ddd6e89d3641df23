package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"verigate/internal/submission/models"
	"verigate/pkg/domain"
)

// PostgresStore persists submissions in the submissions table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, sub *models.Submission) error {
	if sub == nil {
		return fmt.Errorf("submission is required")
	}
	query := `
		INSERT INTO submissions (submission_id, user_id, description, status, is_verified_user, bot_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		sub.ID,
		uuid.UUID(sub.SubjectID),
		sub.Description,
		sub.Status,
		sub.IsVerifiedUser,
		sub.BotAgent,
		sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save submission: %w", err)
	}
	return nil
}

func (s *PostgresStore) Summary(ctx context.Context) (models.Summary, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_verified_user),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE char_length(description) < $1),
			COUNT(*) FILTER (WHERE char_length(description) < $2 OR lower(description) LIKE ANY ($3)),
			COUNT(*) FILTER (WHERE bot_agent)
		FROM submissions
	`
	patterns := make([]string, 0, len(models.GenericMarkers()))
	for _, m := range models.GenericMarkers() {
		patterns = append(patterns, "%"+m+"%")
	}
	var sum models.Summary
	err := s.db.QueryRowContext(ctx, query,
		models.LowQualityMaxLen,
		models.GenericMaxLen,
		pq.Array(patterns),
	).Scan(&sum.Total, &sum.FromVerified, &sum.Pending, &sum.LowQuality, &sum.Generic, &sum.BotAgents)
	if err != nil {
		return models.Summary{}, fmt.Errorf("submission summary: %w", err)
	}
	return sum, nil
}

func (s *PostgresStore) MultipleSubmitters(ctx context.Context, limit int) ([]models.SubjectCount, error) {
	query := `
		SELECT user_id, COUNT(*) AS n
		FROM submissions
		GROUP BY user_id
		HAVING COUNT(*) > 1
		ORDER BY n DESC, user_id
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("multiple submitters: %w", err)
	}
	return scanSubjectCounts(rows)
}

func (s *PostgresStore) HighFrequency(ctx context.Context, since time.Time, minCount int) ([]models.SubjectCount, error) {
	query := `
		SELECT user_id, COUNT(*) AS n
		FROM submissions
		WHERE created_at >= $1
		GROUP BY user_id
		HAVING COUNT(*) >= $2
		ORDER BY n DESC, user_id
	`
	rows, err := s.db.QueryContext(ctx, query, since, minCount)
	if err != nil {
		return nil, fmt.Errorf("high frequency submitters: %w", err)
	}
	return scanSubjectCounts(rows)
}

func (s *PostgresStore) SuspiciousNonVerified(ctx context.Context, minCount, limit int) ([]models.SubjectCount, error) {
	query := `
		SELECT user_id, COUNT(*) AS n
		FROM submissions
		WHERE NOT is_verified_user
		GROUP BY user_id
		HAVING COUNT(*) >= $1
		ORDER BY n DESC, user_id
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, minCount, limit)
	if err != nil {
		return nil, fmt.Errorf("suspicious non-verified submitters: %w", err)
	}
	return scanSubjectCounts(rows)
}

func (s *PostgresStore) DuplicateDescriptions(ctx context.Context, limit int) ([]models.DuplicateDescription, error) {
	query := `
		SELECT lower(trim(description)) AS normalized, COUNT(*) AS n, COUNT(DISTINCT user_id)
		FROM submissions
		GROUP BY normalized
		HAVING COUNT(*) > 1
		ORDER BY n DESC, normalized
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("duplicate descriptions: %w", err)
	}
	defer rows.Close()

	out := make([]models.DuplicateDescription, 0)
	for rows.Next() {
		var d models.DuplicateDescription
		if err := rows.Scan(&d.Description, &d.Count, &d.UniqueUsers); err != nil {
			return nil, fmt.Errorf("scan duplicate description: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate duplicate descriptions: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) DailyCounts(ctx context.Context, since time.Time) ([]models.DailyCount, error) {
	query := `
		SELECT date_trunc('day', created_at AT TIME ZONE 'UTC') AS day, COUNT(*)
		FROM submissions
		WHERE created_at >= $1
		GROUP BY day
		ORDER BY day
	`
	rows, err := s.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("daily submissions: %w", err)
	}
	defer rows.Close()

	var out []models.DailyCount
	for rows.Next() {
		var dc models.DailyCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, fmt.Errorf("scan daily submissions: %w", err)
		}
		dc.Date = time.Date(dc.Date.Year(), dc.Date.Month(), dc.Date.Day(), 0, 0, 0, 0, time.UTC)
		out = append(out, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily submissions: %w", err)
	}
	return out, nil
}

func scanSubjectCounts(rows *sql.Rows) ([]models.SubjectCount, error) {
	defer rows.Close()
	var out []models.SubjectCount
	for rows.Next() {
		var (
			id uuid.UUID
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan subject count: %w", err)
		}
		out = append(out, models.SubjectCount{SubjectID: domain.SubjectID(id), Count: n})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subject counts: %w", err)
	}
	return out, nil
}
