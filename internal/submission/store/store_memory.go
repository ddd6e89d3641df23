// Package store persists portal submissions and answers the rollups the
// analytics view needs.
package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"verigate/internal/submission/models"
	"verigate/pkg/domain"
)

// InMemoryStore keeps submissions in memory for tests and dev.
type InMemoryStore struct {
	mu          sync.RWMutex
	submissions []models.Submission
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Save(_ context.Context, sub *models.Submission) error {
	if sub == nil {
		return fmt.Errorf("submission is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions = append(s.submissions, *sub)
	return nil
}

func (s *InMemoryStore) Summary(_ context.Context) (models.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum models.Summary
	for i := range s.submissions {
		sub := &s.submissions[i]
		sum.Total++
		if sub.IsVerifiedUser {
			sum.FromVerified++
		}
		if sub.Status == models.StatusPending {
			sum.Pending++
		}
		if sub.IsLowQuality() {
			sum.LowQuality++
		}
		if sub.IsGeneric() {
			sum.Generic++
		}
		if sub.BotAgent {
			sum.BotAgents++
		}
	}
	return sum, nil
}

// MultipleSubmitters returns subjects with more than one submission, busiest first.
func (s *InMemoryStore) MultipleSubmitters(_ context.Context, limit int) ([]models.SubjectCount, error) {
	return s.countBy(func(*models.Submission) bool { return true }, 2, limit), nil
}

// HighFrequency returns subjects with at least minCount submissions since since.
func (s *InMemoryStore) HighFrequency(_ context.Context, since time.Time, minCount int) ([]models.SubjectCount, error) {
	return s.countBy(func(sub *models.Submission) bool { return !sub.CreatedAt.Before(since) }, minCount, 0), nil
}

// SuspiciousNonVerified returns non-verified subjects with at least minCount submissions.
func (s *InMemoryStore) SuspiciousNonVerified(_ context.Context, minCount, limit int) ([]models.SubjectCount, error) {
	return s.countBy(func(sub *models.Submission) bool { return !sub.IsVerifiedUser }, minCount, limit), nil
}

// DuplicateDescriptions returns descriptions seen more than once, most repeated first.
func (s *InMemoryStore) DuplicateDescriptions(_ context.Context, limit int) ([]models.DuplicateDescription, error) {
	type group struct {
		count int
		users map[domain.SubjectID]struct{}
	}
	s.mu.RLock()
	groups := make(map[string]*group)
	for i := range s.submissions {
		key := models.NormalizeDescription(s.submissions[i].Description)
		g, ok := groups[key]
		if !ok {
			g = &group{users: make(map[domain.SubjectID]struct{})}
			groups[key] = g
		}
		g.count++
		g.users[s.submissions[i].SubjectID] = struct{}{}
	}
	s.mu.RUnlock()

	out := make([]models.DuplicateDescription, 0)
	for desc, g := range groups {
		if g.count > 1 {
			out = append(out, models.DuplicateDescription{Description: desc, Count: g.count, UniqueUsers: len(g.users)})
		}
	}
	slices.SortFunc(out, func(a, b models.DuplicateDescription) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return compareStrings(a.Description, b.Description)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DailyCounts buckets submissions since since by UTC day, oldest first.
func (s *InMemoryStore) DailyCounts(_ context.Context, since time.Time) ([]models.DailyCount, error) {
	s.mu.RLock()
	byDay := make(map[time.Time]int)
	for i := range s.submissions {
		if s.submissions[i].CreatedAt.Before(since) {
			continue
		}
		day := s.submissions[i].CreatedAt.UTC().Truncate(24 * time.Hour)
		byDay[day]++
	}
	s.mu.RUnlock()

	out := make([]models.DailyCount, 0, len(byDay))
	for day, n := range byDay {
		out = append(out, models.DailyCount{Date: day, Count: n})
	}
	slices.SortFunc(out, func(a, b models.DailyCount) int { return a.Date.Compare(b.Date) })
	return out, nil
}

func (s *InMemoryStore) countBy(keep func(*models.Submission) bool, minCount, limit int) []models.SubjectCount {
	s.mu.RLock()
	counts := make(map[domain.SubjectID]int)
	for i := range s.submissions {
		if keep(&s.submissions[i]) {
			counts[s.submissions[i].SubjectID]++
		}
	}
	s.mu.RUnlock()

	out := make([]models.SubjectCount, 0)
	for id, n := range counts {
		if n >= minCount {
			out = append(out, models.SubjectCount{SubjectID: id, Count: n})
		}
	}
	slices.SortFunc(out, func(a, b models.SubjectCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return compareStrings(a.SubjectID.String(), b.SubjectID.String())
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
