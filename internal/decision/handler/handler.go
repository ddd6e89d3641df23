package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"verigate/internal/decision"
	"verigate/pkg/platform/httputil"
	"verigate/pkg/requestcontext"
)

// Service defines the interface for portal decision operations.
type Service interface {
	Submit(ctx context.Context, in decision.Input) (*decision.SubmissionResult, error)
	ValidateAPIKey(key string) bool
}

// Handler wires portal endpoints to the decision service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a portal handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the key check. The submit route is mounted separately so
// the router can wrap it with rate limiting.
func (h *Handler) Register(r chi.Router) {
	r.Post("/portal/validate-api-key", h.HandleValidateAPIKey)
}

// HandleSubmit handles POST /portal/submit requests.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger)
	if !ok {
		return
	}

	userAgent := requestcontext.UserAgent(ctx)
	if userAgent == "" {
		userAgent = r.UserAgent()
	}

	result, err := h.service.Submit(ctx, decision.Input{
		Name:             req.Name,
		Role:             req.Role,
		Problem:          req.Problem,
		APIKey:           req.APIKey,
		SkipVerification: req.SkipVerification,
		SubjectID:        req.ParsedSubjectID(),
		SessionToken:     req.SessionToken,
		UserAgent:        userAgent,
	})
	if err != nil {
		level := slog.LevelError
		if httputil.StatusFor(err) < http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		h.logger.Log(ctx, level, "portal submission failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}

// HandleValidateAPIKey handles POST /portal/validate-api-key requests.
func (h *Handler) HandleValidateAPIKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ValidateAPIKeyRequest](w, r, h.logger)
	if !ok {
		return
	}

	valid := h.service.ValidateAPIKey(req.APIKey)
	h.logger.InfoContext(ctx, "api key validated",
		"request_id", requestID,
		"valid", valid,
	)
	httputil.WriteJSON(w, http.StatusOK, ValidateAPIKeyResponse{Valid: valid, IsAdmin: valid})
}
