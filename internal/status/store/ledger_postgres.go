package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"verigate/internal/status/models"
	"verigate/pkg/domain"
)

// PostgresLedger appends audit records to app_status_audit. It never updates or deletes.
type PostgresLedger struct {
	db *sql.DB
}

// NewPostgresLedger constructs a PostgreSQL-backed ledger.
func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (l *PostgresLedger) Append(ctx context.Context, record *models.AuditRecord) error {
	if record == nil {
		return fmt.Errorf("audit record is required")
	}
	query := `
		INSERT INTO app_status_audit (audit_id, user_id, status, reason_codes, score_bin, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := l.db.ExecContext(ctx, query,
		uuid.UUID(record.ID),
		uuid.UUID(record.SubjectID),
		string(record.Status),
		pq.Array(record.ReasonCodes),
		nullString(record.ScoreBin),
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	return nil
}

func (l *PostgresLedger) CountSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM app_status_audit WHERE created_at >= $1`, since,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count audit records: %w", err)
	}
	return n, nil
}

func (l *PostgresLedger) DistributionSince(ctx context.Context, since time.Time) (StatusCounts, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM app_status_audit WHERE created_at >= $1 GROUP BY status`, since,
	)
	if err != nil {
		return nil, fmt.Errorf("status distribution: %w", err)
	}
	return scanStatusCounts(rows)
}

func (l *PostgresLedger) RecentByStatus(ctx context.Context, status domain.Status, limit int) ([]*models.AuditRecord, error) {
	query := `
		SELECT audit_id, user_id, status, reason_codes, score_bin, created_at
		FROM app_status_audit
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := l.db.QueryContext(ctx, query, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("recent audit records: %w", err)
	}
	return scanAuditRecords(rows)
}

func (l *PostgresLedger) ListBySubject(ctx context.Context, subjectID domain.SubjectID) ([]*models.AuditRecord, error) {
	query := `
		SELECT audit_id, user_id, status, reason_codes, score_bin, created_at
		FROM app_status_audit
		WHERE user_id = $1
		ORDER BY created_at ASC
	`
	rows, err := l.db.QueryContext(ctx, query, uuid.UUID(subjectID))
	if err != nil {
		return nil, fmt.Errorf("list audit records: %w", err)
	}
	return scanAuditRecords(rows)
}

func scanAuditRecords(rows *sql.Rows) ([]*models.AuditRecord, error) {
	defer rows.Close()
	var out []*models.AuditRecord
	for rows.Next() {
		var (
			auditID   uuid.UUID
			subjectID uuid.UUID
			status    string
			reasons   pq.StringArray
			scoreBin  sql.NullString
			rec       models.AuditRecord
		)
		if err := rows.Scan(&auditID, &subjectID, &status, &reasons, &scoreBin, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		rec.ID = domain.AuditID(auditID)
		rec.SubjectID = domain.SubjectID(subjectID)
		rec.Status = domain.Status(status)
		rec.ReasonCodes = []string(reasons)
		rec.ScoreBin = scoreBin.String
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit records: %w", err)
	}
	return out, nil
}
