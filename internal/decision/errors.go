package decision

import (
	"errors"
	"fmt"
)

// ScorerErrorKind classifies scorer failures.
type ScorerErrorKind string

const (
	ScorerTimeout     ScorerErrorKind = "timeout"
	ScorerUnavailable ScorerErrorKind = "unavailable"
	ScorerMalformed   ScorerErrorKind = "malformed"
)

// ScorerError is returned by scorer clients. It never reaches HTTP callers;
// Classify turns it into reason codes.
type ScorerError struct {
	Kind       ScorerErrorKind
	Message    string
	Underlying error
}

func (e *ScorerError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("scorer %s: %s: %v", e.Kind, e.Message, e.Underlying)
	}
	return fmt.Sprintf("scorer %s: %s", e.Kind, e.Message)
}

func (e *ScorerError) Unwrap() error {
	return e.Underlying
}

// NewScorerError creates a classified scorer error.
func NewScorerError(kind ScorerErrorKind, message string, err error) *ScorerError {
	return &ScorerError{Kind: kind, Message: message, Underlying: err}
}

// ScorerErrorKindOf extracts the kind from err. Unclassified errors count as unavailable.
func ScorerErrorKindOf(err error) ScorerErrorKind {
	var se *ScorerError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ScorerUnavailable
}
