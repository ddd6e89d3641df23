package models

import (
	"strings"
	"time"

	"verigate/pkg/domain"
)

// StatusPending is the only status the service writes; reviewers move it on.
const StatusPending = "pending"

// Thresholds used by the quality rollups.
const (
	LowQualityMaxLen = 50
	GenericMaxLen    = 20
)

var genericMarkers = []string{"test", "fake", "asdf", "qwerty"}

// Submission is the companion record kept for every portal report.
type Submission struct {
	ID             string
	SubjectID      domain.SubjectID
	Description    string
	Status         string
	IsVerifiedUser bool
	BotAgent       bool
	CreatedAt      time.Time
}

// IsLowQuality reports a description too short to be a useful report.
func (s *Submission) IsLowQuality() bool {
	return len([]rune(s.Description)) < LowQualityMaxLen
}

// IsGeneric reports placeholder-looking descriptions.
func (s *Submission) IsGeneric() bool {
	if len([]rune(s.Description)) < GenericMaxLen {
		return true
	}
	lower := strings.ToLower(s.Description)
	for _, m := range genericMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// GenericMarkers returns the substrings that flag a generic description.
func GenericMarkers() []string {
	out := make([]string, len(genericMarkers))
	copy(out, genericMarkers)
	return out
}

// Summary is the headline submission rollup.
type Summary struct {
	Total        int
	FromVerified int
	Pending      int
	LowQuality   int
	Generic      int
	BotAgents    int
}

// SubjectCount pairs a subject with how many submissions it made.
type SubjectCount struct {
	SubjectID domain.SubjectID
	Count     int
}

// DuplicateDescription is a description submitted more than once after
// case folding and trimming.
type DuplicateDescription struct {
	Description string
	Count       int
	UniqueUsers int
}

// NormalizeDescription is the key duplicates are grouped on.
func NormalizeDescription(d string) string {
	return strings.ToLower(strings.TrimSpace(d))
}

// DailyCount is the number of submissions on a UTC day.
type DailyCount struct {
	Date  time.Time
	Count int
}
