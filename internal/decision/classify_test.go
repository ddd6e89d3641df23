package decision

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"verigate/pkg/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		result   *ScorerResult
		err      error
		status   domain.Status
		reasons  []string
		scoreBin string
	}{
		{
			name:     "timeout",
			err:      NewScorerError(ScorerTimeout, "request timeout", context.DeadlineExceeded),
			status:   domain.StatusNonVerified,
			reasons:  []string{ReasonAnalysisTimeout, ReasonDefaultNonVerified},
			scoreBin: domain.ScoreBinFailed,
		},
		{
			name:     "bare deadline exceeded",
			err:      fmt.Errorf("do: %w", context.DeadlineExceeded),
			status:   domain.StatusNonVerified,
			reasons:  []string{ReasonAnalysisTimeout, ReasonDefaultNonVerified},
			scoreBin: domain.ScoreBinFailed,
		},
		{
			name:     "unavailable",
			err:      NewScorerError(ScorerUnavailable, "unexpected status 502", nil),
			status:   domain.StatusNonVerified,
			reasons:  []string{ReasonAnalysisFailed, ReasonDefaultNonVerified},
			scoreBin: domain.ScoreBinFailed,
		},
		{
			name:     "unclassified error",
			err:      errors.New("boom"),
			status:   domain.StatusNonVerified,
			reasons:  []string{ReasonAnalysisFailed, ReasonDefaultNonVerified},
			scoreBin: domain.ScoreBinFailed,
		},
		{
			name:     "malformed",
			err:      NewScorerError(ScorerMalformed, "failed to parse response", errors.New("invalid character")),
			status:   domain.StatusNonVerified,
			reasons:  []string{ReasonAnalysisNull, ReasonDefaultNonVerified},
			scoreBin: domain.ScoreBinFailed,
		},
		{
			name:     "null body",
			status:   domain.StatusNonVerified,
			reasons:  []string{ReasonAnalysisNull, ReasonDefaultNonVerified},
			scoreBin: domain.ScoreBinFailed,
		},
		{
			name:     "verified with codes",
			result:   &ScorerResult{Decision: "verified", ScoreBin: "0.8-1.0", ReasonCodes: []string{"cve_match", " cve_match "}},
			status:   domain.StatusVerified,
			reasons:  []string{"cve_match"},
			scoreBin: "0.8-1.0",
		},
		{
			name:     "non verified without codes",
			result:   &ScorerResult{Decision: "non_verified", ScoreBin: "0.5-0.7"},
			status:   domain.StatusNonVerified,
			reasons:  []string{ReasonAnalysisComplete},
			scoreBin: "0.5-0.7",
		},
		{
			name:    "unknown decision is not verified",
			result:  &ScorerResult{Decision: "VERIFIED"},
			status:  domain.StatusNonVerified,
			reasons: []string{ReasonAnalysisComplete},
		},
		{
			name:    "malformed bin is dropped",
			result:  &ScorerResult{Decision: "verified", ScoreBin: "high"},
			status:  domain.StatusVerified,
			reasons: []string{ReasonAnalysisComplete},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Classify(tt.result, tt.err)
			assert.Equal(t, RouteScorer, out.Route)
			assert.Equal(t, tt.status, out.Status)
			assert.Equal(t, tt.reasons, out.ReasonCodes)
			assert.Equal(t, tt.scoreBin, out.ScoreBin)
		})
	}
}

func TestEvaluate(t *testing.T) {
	t.Run("no facts defers to the scorer", func(t *testing.T) {
		_, ok := Evaluate(DefaultRules, Facts{})
		assert.False(t, ok)
	})

	t.Run("privileged key wins over a verified session", func(t *testing.T) {
		out, ok := Evaluate(DefaultRules, Facts{PrivilegedKey: true, SessionVerified: true})
		assert.True(t, ok)
		assert.Equal(t, RoutePrivilegedKey, out.Route)
		assert.Equal(t, []string{ReasonAPIKeyAuthenticated, ReasonPrivilegedAccess}, out.ReasonCodes)
	})

	t.Run("verified session", func(t *testing.T) {
		out, ok := Evaluate(DefaultRules, Facts{SessionVerified: true})
		assert.True(t, ok)
		assert.Equal(t, RouteTrustedSession, out.Route)
		assert.Equal(t, domain.StatusVerified, out.Status)
		assert.Equal(t, domain.ScoreBinAdmitted, out.ScoreBin)
	})
}

func TestInputScorerText(t *testing.T) {
	assert.Equal(t, "Problem: leak", Input{Problem: "leak"}.ScorerText())
	assert.Equal(t, "Name: Ann\nRole: dev\nProblem: leak", Input{Name: "Ann", Role: "dev", Problem: "leak"}.ScorerText())
}
