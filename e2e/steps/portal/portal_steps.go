package portal

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext is what the portal steps need from the scenario context.
type TestContext interface {
	POST(path string, body any) error
	GET(path string, headers map[string]string) error
	GetResponseField(field string) (any, error)
	GetAdminKey() string
	GetSubjectID() string
	GetSessionToken() string
}

// RegisterSteps registers portal submission and admin steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &portalSteps{tc: tc}

	ctx.Step(`^I submit the problem "([^"]*)"$`, steps.submit)
	ctx.Step(`^I submit the problem "([^"]*)" with the admin key$`, steps.submitWithAdminKey)
	ctx.Step(`^I submit the problem "([^"]*)" skipping verification$`, steps.submitSkipping)
	ctx.Step(`^I submit the problem "([^"]*)" skipping verification without proof$`, steps.submitSkippingWithoutProof)
	ctx.Step(`^the reason codes should include "([^"]*)"$`, steps.reasonsInclude)
	ctx.Step(`^the reason codes should not include "([^"]*)"$`, steps.reasonsExclude)
	ctx.Step(`^I validate the admin key$`, steps.validateAdminKey)
	ctx.Step(`^I validate the key "([^"]*)"$`, steps.validateKey)
	ctx.Step(`^I request analytics with the admin key$`, steps.analyticsWithAdminKey)
	ctx.Step(`^I request analytics with the key "([^"]*)"$`, steps.analyticsWithKey)
	ctx.Step(`^I look up the user's status$`, steps.lookupStatus)
}

type portalSteps struct {
	tc TestContext
}

func (s *portalSteps) body(problem string) map[string]any {
	b := map[string]any{
		"name":    "E2E Reporter",
		"role":    "Security Engineer",
		"problem": problem,
	}
	if id := s.tc.GetSubjectID(); id != "" {
		b["userId"] = id
	}
	return b
}

func (s *portalSteps) submit(_ context.Context, problem string) error {
	return s.tc.POST("/portal/submit", s.body(problem))
}

func (s *portalSteps) submitWithAdminKey(_ context.Context, problem string) error {
	if s.tc.GetAdminKey() == "" {
		return godog.ErrSkip
	}
	b := s.body(problem)
	b["apiKey"] = s.tc.GetAdminKey()
	return s.tc.POST("/portal/submit", b)
}

func (s *portalSteps) submitSkipping(_ context.Context, problem string) error {
	b := s.body(problem)
	b["skipVerification"] = true
	b["sessionToken"] = s.tc.GetSessionToken()
	return s.tc.POST("/portal/submit", b)
}

func (s *portalSteps) submitSkippingWithoutProof(_ context.Context, problem string) error {
	b := s.body(problem)
	b["skipVerification"] = true
	return s.tc.POST("/portal/submit", b)
}

func (s *portalSteps) reasons() ([]string, error) {
	v, err := s.tc.GetResponseField("reasonCodes")
	if err != nil {
		return nil, err
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("reasonCodes is not a list: %v", v)
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, fmt.Sprint(item))
	}
	return out, nil
}

func (s *portalSteps) reasonsInclude(_ context.Context, code string) error {
	got, err := s.reasons()
	if err != nil {
		return err
	}
	if slices.Contains(got, code) {
		return nil
	}
	return fmt.Errorf("reason %q not in [%s]", code, strings.Join(got, ", "))
}

func (s *portalSteps) reasonsExclude(_ context.Context, code string) error {
	got, err := s.reasons()
	if err != nil {
		return err
	}
	if slices.Contains(got, code) {
		return fmt.Errorf("reason %q unexpectedly in [%s]", code, strings.Join(got, ", "))
	}
	return nil
}

func (s *portalSteps) validateAdminKey(ctx context.Context) error {
	if s.tc.GetAdminKey() == "" {
		return godog.ErrSkip
	}
	return s.validateKey(ctx, s.tc.GetAdminKey())
}

func (s *portalSteps) validateKey(_ context.Context, key string) error {
	return s.tc.POST("/portal/validate-api-key", map[string]any{"apiKey": key})
}

func (s *portalSteps) analyticsWithAdminKey(ctx context.Context) error {
	if s.tc.GetAdminKey() == "" {
		return godog.ErrSkip
	}
	return s.analyticsWithKey(ctx, s.tc.GetAdminKey())
}

func (s *portalSteps) analyticsWithKey(_ context.Context, key string) error {
	return s.tc.GET("/admin/analytics", map[string]string{"X-Admin-API-Key": key})
}

func (s *portalSteps) lookupStatus(context.Context) error {
	return s.tc.GET("/user/"+s.tc.GetSubjectID()+"/status", nil)
}
