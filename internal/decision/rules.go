package decision

import "verigate/pkg/domain"

// Rule inspects facts and reports whether it decides the submission.
// Rules are pure: no I/O, no clock.
type Rule func(Facts) (Outcome, bool)

// DefaultRules is the ordered precedence chain evaluated before the scorer.
// The first matching rule wins; when none match the scorer decides.
var DefaultRules = []Rule{
	PrivilegedKeyRule,
	TrustedSessionRule,
}

// Evaluate returns the outcome of the first matching rule.
func Evaluate(rules []Rule, facts Facts) (Outcome, bool) {
	for _, rule := range rules {
		if out, ok := rule(facts); ok {
			return out, true
		}
	}
	return Outcome{}, false
}

// PrivilegedKeyRule admits callers presenting a configured key.
func PrivilegedKeyRule(f Facts) (Outcome, bool) {
	if !f.PrivilegedKey {
		return Outcome{}, false
	}
	return Outcome{
		Route:       RoutePrivilegedKey,
		Status:      domain.StatusVerified,
		ReasonCodes: []string{ReasonAPIKeyAuthenticated, ReasonPrivilegedAccess},
		ScoreBin:    domain.ScoreBinAdmitted,
	}, true
}

// TrustedSessionRule admits subjects holding a valid session token whose
// registry row is currently verified. The client's skip flag alone never matches.
func TrustedSessionRule(f Facts) (Outcome, bool) {
	if !f.SessionVerified {
		return Outcome{}, false
	}
	return Outcome{
		Route:       RouteTrustedSession,
		Status:      domain.StatusVerified,
		ReasonCodes: []string{ReasonAlreadyVerified, ReasonSkipAIVerification},
		ScoreBin:    domain.ScoreBinAdmitted,
	}, true
}
