package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"verigate/internal/handshake/service"
	"verigate/pkg/domain"
	"verigate/pkg/platform/httputil"
	"verigate/pkg/requestcontext"
)

// Service defines the handshake operations the handler needs.
type Service interface {
	Start(ctx context.Context, subjectID domain.SubjectID) (string, error)
	Callback(ctx context.Context, query url.Values) service.CallbackOutcome
}

// Handler serves the browser-facing verification redirects.
type Handler struct {
	service         Service
	logger          *slog.Logger
	publicWebOrigin string
}

// New constructs a handshake handler. Callback results land on publicWebOrigin.
func New(service Service, logger *slog.Logger, publicWebOrigin string) *Handler {
	return &Handler{service: service, logger: logger, publicWebOrigin: publicWebOrigin}
}

// Register mounts the handshake endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/auth/start", h.HandleStart)
	r.Get("/auth/callback", h.HandleCallback)
}

// HandleStart handles GET /auth/start?user_id=<uuid>.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	subjectID, err := domain.ParseSubjectID(r.URL.Query().Get("user_id"))
	if err != nil {
		h.logger.WarnContext(ctx, "invalid user_id on start", "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	target, err := h.service.Start(ctx, subjectID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// HandleCallback handles GET /auth/callback. It always redirects to the result page.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	outcome := h.service.Callback(ctx, r.URL.Query())

	q := url.Values{}
	q.Set("status", outcome.Status.String())
	if outcome.SessionToken != "" {
		q.Set("session", outcome.SessionToken)
	}
	http.Redirect(w, r, h.publicWebOrigin+"/auth/result?"+q.Encode(), http.StatusFound)
}
