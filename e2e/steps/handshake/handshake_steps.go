package handshake

import (
	"context"
	"fmt"
	"net/url"

	"github.com/cucumber/godog"
	"github.com/google/uuid"
)

// TestContext is what the handshake steps need from the scenario context.
type TestContext interface {
	GET(path string, headers map[string]string) error
	GetLastResponseStatus() int
	GetLastLocation() *url.URL
	GetSubjectID() string
	SetSubjectID(id string)
	SetSessionToken(token string)
}

// RegisterSteps registers steps that drive the mock verification handshake.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &handshakeSteps{tc: tc}

	ctx.Step(`^a new anonymous user$`, steps.newUser)
	ctx.Step(`^the user completes verification$`, steps.completeVerification)
	ctx.Step(`^the result page should report "([^"]*)"$`, steps.resultShouldReport)
	ctx.Step(`^I replay the last verification callback$`, steps.replayCallback)
}

type handshakeSteps struct {
	tc           TestContext
	callback     *url.URL
	resultStatus string
}

func (s *handshakeSteps) newUser(context.Context) error {
	s.tc.SetSubjectID(uuid.NewString())
	return nil
}

// completeVerification follows start -> provider (mock loops back) -> callback -> result page.
func (s *handshakeSteps) completeVerification(context.Context) error {
	if err := s.tc.GET("/auth/start?user_id="+url.QueryEscape(s.tc.GetSubjectID()), nil); err != nil {
		return err
	}
	loc, err := s.redirect("start")
	if err != nil {
		return err
	}
	s.callback = loc

	if err := s.tc.GET(loc.String(), nil); err != nil {
		return err
	}
	return s.readResult()
}

func (s *handshakeSteps) replayCallback(context.Context) error {
	if s.callback == nil {
		return fmt.Errorf("no callback to replay")
	}
	if err := s.tc.GET(s.callback.String(), nil); err != nil {
		return err
	}
	return s.readResult()
}

func (s *handshakeSteps) readResult() error {
	result, err := s.redirect("callback")
	if err != nil {
		return err
	}
	s.resultStatus = result.Query().Get("status")
	if token := result.Query().Get("session"); token != "" {
		s.tc.SetSessionToken(token)
	}
	return nil
}

func (s *handshakeSteps) redirect(hop string) (*url.URL, error) {
	if s.tc.GetLastResponseStatus() != 302 {
		return nil, fmt.Errorf("%s: expected 302, got %d", hop, s.tc.GetLastResponseStatus())
	}
	loc := s.tc.GetLastLocation()
	if loc == nil {
		return nil, fmt.Errorf("%s: redirect without Location", hop)
	}
	return loc, nil
}

func (s *handshakeSteps) resultShouldReport(_ context.Context, want string) error {
	if s.resultStatus != want {
		return fmt.Errorf("expected result status %q, got %q", want, s.resultStatus)
	}
	return nil
}
