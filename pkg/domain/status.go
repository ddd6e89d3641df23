package domain

import (
	"regexp"

	dErrors "verigate/pkg/domain-errors"
)

// Status is the two-valued verification outcome recorded for a subject.
type Status string

const (
	StatusVerified    Status = "verified"
	StatusNonVerified Status = "non_verified"
)

// ParseStatus accepts only the two known outcomes.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusVerified, StatusNonVerified:
		return Status(s), nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "unknown status: "+s)
}

func (s Status) String() string { return string(s) }

// IsVerified reports whether the status admits the subject.
func (s Status) IsVerified() bool { return s == StatusVerified }

// Sentinel score bins written by the pipeline when the scorer is not consulted.
const (
	ScoreBinAdmitted = "1.0-1.0"
	ScoreBinFailed   = "0.0-0.5"
)

var scoreBinPattern = regexp.MustCompile(`^\d+(\.\d+)?-\d+(\.\d+)?$`)

// ValidScoreBin reports whether s has the "min-max" form stored in the ledger.
func ValidScoreBin(s string) bool {
	return scoreBinPattern.MatchString(s)
}
