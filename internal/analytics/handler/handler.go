package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"verigate/internal/analytics/models"
	"verigate/pkg/platform/httputil"
	"verigate/pkg/platform/middleware/admin"
	"verigate/pkg/requestcontext"
)

// Service defines the analytics operations the handler needs.
type Service interface {
	Snapshot(ctx context.Context) (*models.Snapshot, error)
}

// Handler serves admin analytics behind the privileged-key gate.
type Handler struct {
	service Service
	keys    admin.KeyChecker
	logger  *slog.Logger
}

// New constructs an analytics handler.
func New(service Service, keys admin.KeyChecker, logger *slog.Logger) *Handler {
	return &Handler{service: service, keys: keys, logger: logger}
}

// Register mounts GET /admin/analytics with the admin key middleware.
func (h *Handler) Register(r chi.Router) {
	r.With(admin.RequireAPIKey(h.keys, h.logger)).Get("/admin/analytics", h.HandleAnalytics)
}

// HandleAnalytics handles GET /admin/analytics.
func (h *Handler) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	snap, err := h.service.Snapshot(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "analytics failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "analytics served",
		"request_id", requestID,
		"total_users", snap.TotalUsers,
	)
	httputil.WriteJSON(w, http.StatusOK, snap)
}
