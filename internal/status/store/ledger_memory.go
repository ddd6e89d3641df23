package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"verigate/internal/status/models"
	"verigate/pkg/domain"
)

// InMemoryLedger is an append-only slice of audit records.
type InMemoryLedger struct {
	mu      sync.RWMutex
	records []models.AuditRecord
}

// NewInMemoryLedger constructs an empty ledger.
func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{}
}

func (l *InMemoryLedger) Append(_ context.Context, record *models.AuditRecord) error {
	if record == nil {
		return fmt.Errorf("audit record is required")
	}
	rec := *record
	rec.ReasonCodes = slices.Clone(record.ReasonCodes)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
	return nil
}

func (l *InMemoryLedger) CountSince(_ context.Context, since time.Time) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for i := range l.records {
		if !l.records[i].CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (l *InMemoryLedger) DistributionSince(_ context.Context, since time.Time) (StatusCounts, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	counts := StatusCounts{}
	for i := range l.records {
		if !l.records[i].CreatedAt.Before(since) {
			counts[l.records[i].Status]++
		}
	}
	return counts, nil
}

// RecentByStatus returns up to limit records with status, newest first.
func (l *InMemoryLedger) RecentByStatus(_ context.Context, status domain.Status, limit int) ([]*models.AuditRecord, error) {
	l.mu.RLock()
	matched := make([]*models.AuditRecord, 0)
	for i := range l.records {
		if l.records[i].Status == status {
			rec := l.records[i]
			matched = append(matched, &rec)
		}
	}
	l.mu.RUnlock()

	slices.SortStableFunc(matched, func(a, b *models.AuditRecord) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// ListBySubject returns every record for subjectID in append order.
func (l *InMemoryLedger) ListBySubject(_ context.Context, subjectID domain.SubjectID) ([]*models.AuditRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []*models.AuditRecord
	for i := range l.records {
		if l.records[i].SubjectID == subjectID {
			rec := l.records[i]
			out = append(out, &rec)
		}
	}
	return out, nil
}
