package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"cheerconnect/internal/connection/models"
	"cheerconnect/internal/platform/metrics"
	"cheerconnect/internal/platform/middleware"
	id "cheerconnect/pkg/domain"
	"cheerconnect/pkg/platform/httputil"
	"cheerconnect/pkg/requestcontext"
)

// Service defines the connection operations this handler exposes.
type Service interface {
	AcceptConnection(ctx context.Context, senderID, caller id.UserID) (*models.Connection, error)
	RemoveConnection(ctx context.Context, otherID, caller id.UserID) error
}

// Handler wires connection endpoints to the connection service. All routes
// require an authenticated session.
type Handler struct {
	logger    *slog.Logger
	service   Service
	metrics   *metrics.Metrics
	validator middleware.SessionValidator
}

func New(service Service, logger *slog.Logger, m *metrics.Metrics, validator middleware.SessionValidator) *Handler {
	return &Handler{logger: logger, service: service, metrics: m, validator: validator}
}

// Register registers the connection routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	connRouter := chi.NewRouter()
	connRouter.Use(middleware.Recovery(h.logger))
	connRouter.Use(middleware.RequestID)
	connRouter.Use(middleware.ClientMetadata)
	connRouter.Use(middleware.Logger(h.logger))
	connRouter.Use(middleware.Timeout(30 * time.Second))
	connRouter.Use(middleware.ContentTypeJSON)
	if h.metrics != nil {
		connRouter.Use(middleware.Latency(h.metrics))
	}
	connRouter.Use(middleware.RequireAuth(h.validator, h.logger))

	connRouter.Post("/{userID}/accept", h.handleAcceptConnection)
	connRouter.Delete("/{userID}", h.handleRemoveConnection)

	r.Mount("/connections", connRouter)
}

func (h *Handler) handleAcceptConnection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	senderID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	conn, err := h.service.AcceptConnection(ctx, senderID, requestcontext.UserID(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "accept connection failed",
			"sender_id", senderID.String(),
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, conn)
}

func (h *Handler) handleRemoveConnection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	otherID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.RemoveConnection(ctx, otherID, requestcontext.UserID(ctx)); err != nil {
		h.logger.WarnContext(ctx, "remove connection failed",
			"other_id", otherID.String(),
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
