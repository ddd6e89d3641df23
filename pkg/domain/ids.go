// Package domain provides type-safe identifiers and shared value types.
package domain

import (
	"github.com/google/uuid"

	dErrors "verigate/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing a SubjectID where an AuditID is expected.
type (
	SubjectID uuid.UUID
	AuditID   uuid.UUID
)

// Parse functions - use at trust boundaries (handlers, query parameters).

func ParseSubjectID(s string) (SubjectID, error) {
	id, err := parseUUID(s, "user_id")
	return SubjectID(id), err
}

func ParseAuditID(s string) (AuditID, error) {
	id, err := parseUUID(s, "audit ID")
	return AuditID(id), err
}

// NewAuditID mints a fresh ledger record identifier.
func NewAuditID() AuditID { return AuditID(uuid.New()) }

func (id SubjectID) String() string { return uuid.UUID(id).String() }
func (id AuditID) String() string   { return uuid.UUID(id).String() }

func (id SubjectID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id AuditID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	if id == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return id, nil
}

// MarshalText encodes the canonical UUID form so ids serialize as strings.
func (id SubjectID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

// UnmarshalText accepts the canonical UUID form.
func (id *SubjectID) UnmarshalText(b []byte) error {
	var u uuid.UUID
	if err := u.UnmarshalText(b); err != nil {
		return err
	}
	*id = SubjectID(u)
	return nil
}
