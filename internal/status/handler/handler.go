package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"verigate/internal/status/models"
	"verigate/pkg/domain"
	"verigate/pkg/platform/httputil"
	"verigate/pkg/requestcontext"
)

// Service defines the status lookups the handler needs.
type Service interface {
	Get(ctx context.Context, subjectID domain.SubjectID) (*models.VerificationState, error)
}

// Handler serves current verification status.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a status handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts status endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/user/{id}/status", h.HandleGetStatus)
}

// StatusResponse is the body of GET /user/{id}/status.
type StatusResponse struct {
	UserID         string    `json:"user_id"`
	Status         string    `json:"status"`
	LastVerifiedAt time.Time `json:"last_verified_at"`
}

// HandleGetStatus handles GET /user/{id}/status.
func (h *Handler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	subjectID, err := domain.ParseSubjectID(chi.URLParam(r, "id"))
	if err != nil {
		h.logger.WarnContext(ctx, "invalid user id", "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	state, err := h.service.Get(ctx, subjectID)
	if err != nil {
		h.logger.InfoContext(ctx, "status lookup failed",
			"request_id", requestID,
			"user_id", subjectID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, StatusResponse{
		UserID:         state.SubjectID.String(),
		Status:         state.Status.String(),
		LastVerifiedAt: state.LastVerifiedAt,
	})
}
