package verifier

import (
	"net/url"

	"verigate/pkg/domain"
)

const (
	personaStartURL       = "https://withpersona.com/verify/start"
	personaSandboxRef     = "persona_sbx"
	personaInquiryIDParam = "inquiry-id"
)

// Persona redirects to the hosted Persona flow.
type Persona struct {
	clientID    string
	redirectURI string
	environment string
}

// NewPersona builds a Persona provider. environment is informational ("sandbox" or "production").
func NewPersona(clientID, redirectURI, environment string) *Persona {
	return &Persona{clientID: clientID, redirectURI: redirectURI, environment: environment}
}

func (p *Persona) Kind() ProviderKind   { return KindPersona }
func (p *Persona) ModelVersion() string { return "persona" }

// Environment reports the configured Persona environment.
func (p *Persona) Environment() string { return p.environment }

func (p *Persona) StartURL(_ domain.SubjectID, token string) (string, error) {
	q := url.Values{}
	q.Set("client_id", p.clientID)
	q.Set("redirect_uri", p.redirectURI)
	q.Set("state", token)
	q.Set("scope", "identity")
	return personaStartURL + "?" + q.Encode(), nil
}

// HandleCallback succeeds when Persona returned either an authorization code or an inquiry id.
func (p *Persona) HandleCallback(query url.Values) CallbackResult {
	return safeInterpret(func() CallbackResult {
		code := query.Get("code")
		inquiryID := query.Get(personaInquiryIDParam)
		ref := inquiryID
		if ref == "" {
			ref = personaSandboxRef
		}
		if code == "" && inquiryID == "" {
			return CallbackResult{
				AttestationRef: ref,
				ReasonCodes:    []string{ReasonPersonaSandbox},
				ScoreBin:       ScoreBinFailed,
			}
		}
		return CallbackResult{
			Success:        true,
			AttestationRef: ref,
			ReasonCodes:    []string{ReasonPersonaSandbox},
			ScoreBin:       ScoreBinPassed,
		}
	})
}
