package models

import (
	"time"

	"verigate/pkg/domain"
)

// Handshake correlates a provider round trip with the subject that started it.
// It is single-use: resolving it removes it.
type Handshake struct {
	Token     string           `json:"token"`
	SubjectID domain.SubjectID `json:"subject_id"`
	CreatedAt time.Time        `json:"created_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// NewHandshake builds a handshake for subjectID valid for ttl from now.
func NewHandshake(token string, subjectID domain.SubjectID, now time.Time, ttl time.Duration) *Handshake {
	return &Handshake{
		Token:     token,
		SubjectID: subjectID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsExpired reports whether the handshake is past its TTL at now.
func (h *Handshake) IsExpired(now time.Time) bool {
	return !now.Before(h.ExpiresAt)
}
