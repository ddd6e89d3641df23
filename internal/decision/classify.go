package decision

import (
	"context"
	"errors"

	"verigate/pkg/domain"
	vstrings "verigate/pkg/platform/strings"
)

// Classify maps a scorer call to an outcome. It is pure and never fails.
//
//	timeout             -> non_verified [ai_analysis_timeout, default_non_verified]
//	unavailable/non-2xx -> non_verified [ai_analysis_failed, default_non_verified]
//	malformed or null   -> non_verified [analysis_result_null, default_non_verified]
//	parsed body         -> verified iff decision=="verified"
func Classify(result *ScorerResult, err error) Outcome {
	if err != nil {
		kind := ScorerErrorKindOf(err)
		if errors.Is(err, context.DeadlineExceeded) {
			kind = ScorerTimeout
		}
		switch kind {
		case ScorerTimeout:
			return failed(ReasonAnalysisTimeout)
		case ScorerMalformed:
			return failed(ReasonAnalysisNull)
		default:
			return failed(ReasonAnalysisFailed)
		}
	}
	if result == nil {
		return failed(ReasonAnalysisNull)
	}

	status := domain.StatusNonVerified
	if result.Decision == string(domain.StatusVerified) {
		status = domain.StatusVerified
	}
	reasons := vstrings.DedupeAndTrim(result.ReasonCodes)
	if len(reasons) == 0 {
		reasons = []string{ReasonAnalysisComplete}
	}
	scoreBin := ""
	if domain.ValidScoreBin(result.ScoreBin) {
		scoreBin = result.ScoreBin
	}
	return Outcome{
		Route:       RouteScorer,
		Status:      status,
		ReasonCodes: reasons,
		ScoreBin:    scoreBin,
	}
}

func failed(reason string) Outcome {
	return Outcome{
		Route:       RouteScorer,
		Status:      domain.StatusNonVerified,
		ReasonCodes: []string{reason, ReasonDefaultNonVerified},
		ScoreBin:    domain.ScoreBinFailed,
	}
}
