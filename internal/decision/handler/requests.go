package handler

import (
	"strings"

	"verigate/pkg/domain"
	dErrors "verigate/pkg/domain-errors"
)

const (
	maxNameLen    = 200
	maxRoleLen    = 200
	maxProblemLen = 10_000
)

// SubmitRequest is the HTTP request body for POST /portal/submit.
type SubmitRequest struct {
	Name             string `json:"name"`
	Role             string `json:"role"`
	Problem          string `json:"problem"`
	APIKey           string `json:"apiKey"`
	SkipVerification bool   `json:"skipVerification"`
	UserID           string `json:"userId"`
	SessionToken     string `json:"sessionToken"`

	subjectID domain.SubjectID
}

// Normalize trims whitespace from all string fields.
func (r *SubmitRequest) Normalize() {
	if r == nil {
		return
	}
	r.Name = strings.TrimSpace(r.Name)
	r.Role = strings.TrimSpace(r.Role)
	r.Problem = strings.TrimSpace(r.Problem)
	r.APIKey = strings.TrimSpace(r.APIKey)
	r.UserID = strings.TrimSpace(r.UserID)
	r.SessionToken = strings.TrimSpace(r.SessionToken)
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *SubmitRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Name) > maxNameLen || len(r.Role) > maxRoleLen {
		return dErrors.New(dErrors.CodeValidation, "name and role must be at most 200 characters")
	}
	if len(r.Problem) > maxProblemLen {
		return dErrors.New(dErrors.CodeValidation, "problem must be at most 10000 characters")
	}
	if r.Problem == "" {
		return dErrors.New(dErrors.CodeBadRequest, "Problem description is required")
	}
	if r.UserID != "" {
		id, err := domain.ParseSubjectID(r.UserID)
		if err != nil {
			return err
		}
		r.subjectID = id
	}
	return nil
}

// ParsedSubjectID returns the validated user id, or the nil id when absent.
func (r *SubmitRequest) ParsedSubjectID() domain.SubjectID {
	return r.subjectID
}

// ValidateAPIKeyRequest is the HTTP request body for POST /portal/validate-api-key.
type ValidateAPIKeyRequest struct {
	APIKey string `json:"apiKey"`
}

func (r *ValidateAPIKeyRequest) Normalize() {
	if r != nil {
		r.APIKey = strings.TrimSpace(r.APIKey)
	}
}

func (r *ValidateAPIKeyRequest) Validate() error {
	if r == nil || r.APIKey == "" {
		return dErrors.New(dErrors.CodeBadRequest, "API key is required")
	}
	return nil
}
