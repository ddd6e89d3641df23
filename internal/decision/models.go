package decision

import (
	"strings"

	"verigate/pkg/domain"
)

// Reason codes written to the audit ledger by the decision pipeline.
const (
	ReasonAPIKeyAuthenticated = "api_key_authenticated"
	ReasonPrivilegedAccess    = "privileged_access"
	ReasonAlreadyVerified     = "already_verified"
	ReasonSkipAIVerification  = "skip_ai_verification"
	ReasonAnalysisComplete    = "analysis_complete"
	ReasonAnalysisTimeout     = "ai_analysis_timeout"
	ReasonAnalysisFailed      = "ai_analysis_failed"
	ReasonAnalysisNull        = "analysis_result_null"
	ReasonDefaultNonVerified  = "default_non_verified"
)

// Route names which rule produced an outcome.
type Route string

const (
	RoutePrivilegedKey  Route = "privileged_key"
	RouteTrustedSession Route = "trusted_session"
	RouteScorer         Route = "scorer"
)

// Input is a portal submission after HTTP decoding.
type Input struct {
	Name             string
	Role             string
	Problem          string
	APIKey           string
	SkipVerification bool
	SubjectID        domain.SubjectID
	SessionToken     string
	UserAgent        string
}

// ScorerText renders the fields the scorer analyses.
func (in Input) ScorerText() string {
	var b strings.Builder
	if in.Name != "" {
		b.WriteString("Name: " + in.Name + "\n")
	}
	if in.Role != "" {
		b.WriteString("Role: " + in.Role + "\n")
	}
	b.WriteString("Problem: " + in.Problem)
	return b.String()
}

// Facts are the server-side observations the rule chain decides on.
// Nothing here is taken from the request without verification.
type Facts struct {
	PrivilegedKey   bool
	SessionVerified bool
}

// Outcome is the decision a rule produced.
type Outcome struct {
	Route       Route
	Status      domain.Status
	ReasonCodes []string
	ScoreBin    string
}

// ScorerResult is the parsed body of a successful scorer call.
type ScorerResult struct {
	Decision    string
	ScoreBin    string
	ReasonCodes []string
}

// SubmissionResult is returned to the portal.
type SubmissionResult struct {
	SubjectID    domain.SubjectID
	Status       domain.Status
	ScoreBin     string
	ReasonCodes  []string
	SubmissionID string
}

// ForwardEvent is the body posted to the metrics sink.
type ForwardEvent struct {
	UserID      string   `json:"user_id"`
	Status      string   `json:"status"`
	ScoreBin    string   `json:"score_bin,omitempty"`
	ReasonCodes []string `json:"reason_codes"`
}
