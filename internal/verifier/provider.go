// Package verifier interprets the out-of-band identity verification round trip.
// A single Provider is selected at startup; callers never branch on the kind.
package verifier

import (
	"fmt"
	"log/slog"
	"net/url"

	"verigate/internal/platform/config"
	"verigate/pkg/domain"
)

// ProviderKind names a supported verification provider.
type ProviderKind string

const (
	KindMock    ProviderKind = "mock"
	KindPersona ProviderKind = "persona"
)

// Reason codes and attestation refs written by the providers.
const (
	ReasonMockFlow        = "MOCK_FLOW"
	ReasonPersonaSandbox  = "PERSONA_SANDBOX"
	ReasonCallbackInvalid = "callback_invalid"

	ScoreBinPassed = "0.8-0.9"
	ScoreBinFailed = "0.0-0.2"
)

// CallbackResult is the provider's reading of a callback query.
type CallbackResult struct {
	Success        bool
	AttestationRef string
	ReasonCodes    []string
	ScoreBin       string
}

// Status maps the callback outcome to a recorded status.
func (r CallbackResult) Status() domain.Status {
	if r.Success {
		return domain.StatusVerified
	}
	return domain.StatusNonVerified
}

// Provider builds start URLs and interprets callbacks.
type Provider interface {
	Kind() ProviderKind
	StartURL(subjectID domain.SubjectID, token string) (string, error)
	HandleCallback(query url.Values) CallbackResult
	ModelVersion() string
}

// New selects the provider named by cfg.Verifier.Provider.
func New(cfg config.Server, logger *slog.Logger) (Provider, error) {
	callbackURL := cfg.PublicAPIOrigin + "/auth/callback"
	switch ProviderKind(cfg.Verifier.Provider) {
	case KindMock, "":
		return NewMock(callbackURL), nil
	case KindPersona:
		redirect := cfg.Verifier.RedirectURI
		if redirect == "" {
			redirect = callbackURL
		}
		if cfg.Verifier.ClientID == "" && logger != nil {
			logger.Warn("persona provider selected without PERSONA_CLIENT_ID")
		}
		return NewPersona(cfg.Verifier.ClientID, redirect, cfg.Verifier.Environment), nil
	default:
		return nil, fmt.Errorf("unknown verification provider %q", cfg.Verifier.Provider)
	}
}

// safeInterpret runs fn and converts a panic into a failed callback.
func safeInterpret(fn func() CallbackResult) (res CallbackResult) {
	defer func() {
		if rec := recover(); rec != nil {
			res = CallbackResult{
				Success:     false,
				ReasonCodes: []string{ReasonCallbackInvalid},
				ScoreBin:    ScoreBinFailed,
			}
		}
	}()
	return fn()
}
