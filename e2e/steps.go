package e2e

import (
	"github.com/cucumber/godog"

	"verigate/e2e/steps/common"
	"verigate/e2e/steps/handshake"
	"verigate/e2e/steps/portal"
)

// RegisterSteps registers all step definitions from the step packages.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	handshake.RegisterSteps(ctx, tc)
	portal.RegisterSteps(ctx, tc)
}
