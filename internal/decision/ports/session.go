package ports

import (
	"context"

	"verigate/pkg/domain"
)

// SessionValidator verifies proof tokens issued by the handshake callback.
type SessionValidator interface {
	Validate(token string) (domain.SubjectID, error)
}

// StatusReader reports whether a subject's registry row is currently verified.
type StatusReader interface {
	IsVerified(ctx context.Context, subjectID domain.SubjectID) (bool, error)
}

// KeyChecker decides whether an API key is privileged.
type KeyChecker interface {
	IsPrivileged(key string) bool
}
