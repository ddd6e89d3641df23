package verifier

import (
	"net/url"

	"verigate/pkg/domain"
)

const mockAttestationRef = "mock_verification"

// Mock short-circuits the provider hop by redirecting straight back to the callback.
type Mock struct {
	callbackURL string
	interpret   func(url.Values) CallbackResult
}

// NewMock builds a mock provider that loops back to callbackURL.
func NewMock(callbackURL string) *Mock {
	m := &Mock{callbackURL: callbackURL}
	m.interpret = m.interpretQuery
	return m
}

func (m *Mock) Kind() ProviderKind   { return KindMock }
func (m *Mock) ModelVersion() string { return "mock" }

// StartURL returns <callback>?mock=1&ok=1&user_id=<id>&state=<token>.
func (m *Mock) StartURL(subjectID domain.SubjectID, token string) (string, error) {
	return mockCallbackURL(m.callbackURL, subjectID, token), nil
}

// HandleCallback succeeds iff ok=1.
func (m *Mock) HandleCallback(query url.Values) CallbackResult {
	return safeInterpret(func() CallbackResult { return m.interpret(query) })
}

func (m *Mock) interpretQuery(query url.Values) CallbackResult {
	if query.Get("ok") == "1" {
		return CallbackResult{
			Success:        true,
			AttestationRef: mockAttestationRef,
			ReasonCodes:    []string{ReasonMockFlow},
			ScoreBin:       ScoreBinPassed,
		}
	}
	return CallbackResult{
		AttestationRef: mockAttestationRef,
		ReasonCodes:    []string{ReasonMockFlow},
		ScoreBin:       ScoreBinFailed,
	}
}

func mockCallbackURL(base string, subjectID domain.SubjectID, token string) string {
	q := url.Values{}
	q.Set("mock", "1")
	q.Set("ok", "1")
	q.Set("user_id", subjectID.String())
	q.Set("state", token)
	return base + "?" + q.Encode()
}
