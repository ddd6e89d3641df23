// Package httpapi composes the public router from the module handlers.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"verigate/internal/platform/metrics"
	"verigate/pkg/platform/middleware/metadata"
	"verigate/pkg/platform/middleware/ratelimit"
	"verigate/pkg/platform/middleware/request"
	"verigate/pkg/platform/middleware/requesttime"
)

const maxBodyBytes = 64 << 10

// Registrar mounts a module's routes.
type Registrar interface {
	Register(r chi.Router)
}

// Dependencies are the handlers and cross-cutting pieces the router composes.
type Dependencies struct {
	Logger         *slog.Logger
	RequestTimeout time.Duration
	RequestMetrics *request.Metrics

	Health    Registrar
	Handshake Registrar
	Status    Registrar
	Portal    Registrar
	Analytics Registrar

	// Submit is mounted at POST /portal/submit behind SubmitLimiter.
	Submit        http.HandlerFunc
	SubmitLimiter *ratelimit.Limiter
}

// NewRouter wires every public endpoint.
func NewRouter(d Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(request.Recovery(d.Logger))
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Logger(d.Logger))
	r.Use(requesttime.Middleware)
	r.Use(request.LatencyMiddleware(d.RequestMetrics))

	// Health checks and scraping stay outside the request budget.
	d.Health.Register(r)
	r.Handle("/metrics", metrics.Handler())

	// The handshake always answers with a redirect. It bounds its own writes
	// and must not be replaced by the timeout envelope.
	d.Handshake.Register(r)

	r.Group(func(r chi.Router) {
		r.Use(request.Timeout(d.RequestTimeout))
		r.Use(request.ContentTypeJSON)
		r.Use(request.BodyLimit(maxBodyBytes))

		d.Status.Register(r)
		d.Portal.Register(r)
		d.Analytics.Register(r)

		var limits []func(http.Handler) http.Handler
		if d.SubmitLimiter != nil {
			limits = append(limits, d.SubmitLimiter.Middleware)
		}
		r.With(limits...).Post("/portal/submit", d.Submit)
	})

	return r
}
