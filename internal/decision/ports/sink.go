package ports

import (
	"context"

	"verigate/internal/decision"
	"verigate/pkg/domain"
)

// Sink receives a best-effort copy of every decision, routed by outcome.
type Sink interface {
	Forward(ctx context.Context, status domain.Status, event decision.ForwardEvent) error
}
