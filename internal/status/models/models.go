package models

import (
	"fmt"
	"time"

	"verigate/pkg/domain"
	dErrors "verigate/pkg/domain-errors"
	vstrings "verigate/pkg/platform/strings"
)

// VerificationState is the single live row per subject, overwritten on every decision.
type VerificationState struct {
	SubjectID      domain.SubjectID
	Status         domain.Status
	LastVerifiedAt time.Time
	AttestationRef string
	ModelVersion   string
}

// AuditRecord is an immutable ledger entry.
type AuditRecord struct {
	ID          domain.AuditID
	SubjectID   domain.SubjectID
	Status      domain.Status
	ReasonCodes []string
	ScoreBin    string
	CreatedAt   time.Time
}

// Decision is what a caller asks the recorder to persist.
type Decision struct {
	SubjectID      domain.SubjectID
	Status         domain.Status
	ReasonCodes    []string
	ScoreBin       string
	AttestationRef string
	ModelVersion   string
}

// Validate enforces the ledger invariants before anything is written.
func (d Decision) Validate() error {
	if d.SubjectID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "subject is required")
	}
	if _, err := domain.ParseStatus(string(d.Status)); err != nil {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("invalid status %q", d.Status))
	}
	if len(vstrings.DedupeAndTrim(d.ReasonCodes)) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one reason code is required")
	}
	if d.ScoreBin != "" && !domain.ValidScoreBin(d.ScoreBin) {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("invalid score bin %q", d.ScoreBin))
	}
	return nil
}

// NewState builds the registry row for d at now.
func NewState(d Decision, now time.Time) *VerificationState {
	return &VerificationState{
		SubjectID:      d.SubjectID,
		Status:         d.Status,
		LastVerifiedAt: now,
		AttestationRef: d.AttestationRef,
		ModelVersion:   d.ModelVersion,
	}
}

// NewAuditRecord builds the ledger entry for d at now with a fresh id.
func NewAuditRecord(d Decision, now time.Time) *AuditRecord {
	return &AuditRecord{
		ID:          domain.NewAuditID(),
		SubjectID:   d.SubjectID,
		Status:      d.Status,
		ReasonCodes: vstrings.DedupeAndTrim(d.ReasonCodes),
		ScoreBin:    d.ScoreBin,
		CreatedAt:   now,
	}
}
