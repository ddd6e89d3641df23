package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"verigate/internal/status/models"
	"verigate/pkg/domain"
	"verigate/pkg/platform/sentinel"
)

// PostgresSubjectStore persists verification state in app_users.
type PostgresSubjectStore struct {
	db *sql.DB
}

// NewPostgresSubjects constructs a PostgreSQL-backed registry.
func NewPostgresSubjects(db *sql.DB) *PostgresSubjectStore {
	return &PostgresSubjectStore{db: db}
}

func (s *PostgresSubjectStore) Upsert(ctx context.Context, state *models.VerificationState) error {
	if state == nil {
		return fmt.Errorf("verification state is required")
	}
	query := `
		INSERT INTO app_users (user_id, status, last_verified_at, attestation_ref, model_version)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			status = EXCLUDED.status,
			last_verified_at = EXCLUDED.last_verified_at,
			attestation_ref = EXCLUDED.attestation_ref,
			model_version = EXCLUDED.model_version
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(state.SubjectID),
		string(state.Status),
		state.LastVerifiedAt,
		nullString(state.AttestationRef),
		state.ModelVersion,
	)
	if err != nil {
		return fmt.Errorf("upsert subject: %w", err)
	}
	return nil
}

func (s *PostgresSubjectStore) Get(ctx context.Context, subjectID domain.SubjectID) (*models.VerificationState, error) {
	query := `
		SELECT user_id, status, last_verified_at, attestation_ref, model_version
		FROM app_users
		WHERE user_id = $1
	`
	var (
		id     uuid.UUID
		status string
		ref    sql.NullString
		state  models.VerificationState
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(subjectID)).Scan(
		&id, &status, &state.LastVerifiedAt, &ref, &state.ModelVersion,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("subject %s: %w", subjectID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("get subject: %w", err)
	}
	state.SubjectID = domain.SubjectID(id)
	state.Status = domain.Status(status)
	state.AttestationRef = ref.String
	return &state, nil
}

func (s *PostgresSubjectStore) CountByStatus(ctx context.Context) (StatusCounts, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM app_users GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count subjects: %w", err)
	}
	return scanStatusCounts(rows)
}

func scanStatusCounts(rows *sql.Rows) (StatusCounts, error) {
	defer rows.Close()
	counts := StatusCounts{}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[domain.Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}
	return counts, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
