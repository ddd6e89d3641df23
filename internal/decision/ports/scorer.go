package ports

import (
	"context"

	"verigate/internal/decision"
)

// Scorer is the external analysis service consulted when no rule decides.
// Implementations return *decision.ScorerError for classified failures and a
// nil result when the body is JSON null.
type Scorer interface {
	Analyze(ctx context.Context, text string) (*decision.ScorerResult, error)
}
