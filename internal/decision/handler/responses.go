package handler

import "verigate/internal/decision"

// SubmitResponse is the portal-facing submission result.
type SubmitResponse struct {
	SubjectID    string   `json:"subjectId"`
	Status       string   `json:"status"`
	Decision     string   `json:"decision"`
	ScoreBin     string   `json:"scoreBin,omitempty"`
	ReasonCodes  []string `json:"reasonCodes"`
	SubmissionID string   `json:"submissionId,omitempty"`
}

// FromResult converts a domain result to its HTTP shape.
func FromResult(r *decision.SubmissionResult) SubmitResponse {
	reasons := r.ReasonCodes
	if reasons == nil {
		reasons = []string{}
	}
	return SubmitResponse{
		SubjectID:    r.SubjectID.String(),
		Status:       string(r.Status),
		Decision:     string(r.Status),
		ScoreBin:     r.ScoreBin,
		ReasonCodes:  reasons,
		SubmissionID: r.SubmissionID,
	}
}

// ValidateAPIKeyResponse reports key validity. Every valid key is privileged.
type ValidateAPIKeyResponse struct {
	Valid   bool `json:"valid"`
	IsAdmin bool `json:"isAdmin"`
}
