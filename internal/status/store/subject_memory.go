package store

import (
	"context"
	"fmt"
	"sync"

	"verigate/internal/status/models"
	"verigate/pkg/domain"
	"verigate/pkg/platform/sentinel"
)

// InMemorySubjectStore keeps verification state in memory for tests and dev.
type InMemorySubjectStore struct {
	mu       sync.RWMutex
	subjects map[domain.SubjectID]models.VerificationState
}

// NewInMemorySubjects constructs an empty registry.
func NewInMemorySubjects() *InMemorySubjectStore {
	return &InMemorySubjectStore{subjects: make(map[domain.SubjectID]models.VerificationState)}
}

func (s *InMemorySubjectStore) Upsert(_ context.Context, state *models.VerificationState) error {
	if state == nil {
		return fmt.Errorf("verification state is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subjects[state.SubjectID] = *state
	return nil
}

func (s *InMemorySubjectStore) Get(_ context.Context, subjectID domain.SubjectID) (*models.VerificationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.subjects[subjectID]
	if !ok {
		return nil, fmt.Errorf("subject %s: %w", subjectID, sentinel.ErrNotFound)
	}
	return &state, nil
}

func (s *InMemorySubjectStore) CountByStatus(_ context.Context) (StatusCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := StatusCounts{}
	for _, state := range s.subjects {
		counts[state.Status]++
	}
	return counts, nil
}
