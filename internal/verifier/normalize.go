package verifier

import (
	"net/url"
	"strings"

	"verigate/pkg/domain"
)

// NormalizeStartURL turns whatever a provider produced into an absolute URL.
// Empty or query-only values fall back to the local mock callback; relative
// paths are resolved against fallbackBase; non-http(s) schemes fall back too.
func NormalizeStartURL(raw, fallbackBase string, subjectID domain.SubjectID, token string) string {
	base := strings.TrimRight(fallbackBase, "/")
	fallback := mockCallbackURL(base+"/auth/callback", subjectID, token)

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.HasPrefix(trimmed, "?") {
		return fallback
	}

	lower := strings.ToLower(trimmed)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		if strings.Contains(trimmed, "://") {
			return fallback
		}
		if !strings.HasPrefix(trimmed, "/") {
			trimmed = "/" + trimmed
		}
		trimmed = base + trimmed
	}

	u, err := url.Parse(trimmed)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fallback
	}
	return trimmed
}
