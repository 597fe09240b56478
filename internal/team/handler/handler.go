package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"cheerconnect/internal/platform/metrics"
	"cheerconnect/internal/platform/middleware"
	"cheerconnect/internal/team/models"
	id "cheerconnect/pkg/domain"
	"cheerconnect/pkg/platform/httputil"
	"cheerconnect/pkg/requestcontext"
)

// Service defines the lifecycle operations this handler exposes.
type Service interface {
	AcceptInvite(ctx context.Context, inviteID id.InviteID, caller id.UserID) (*models.Team, error)
	RejectInvite(ctx context.Context, inviteID id.InviteID, caller id.UserID) error
	ListMembers(ctx context.Context, teamSlug string, caller id.UserID) (*models.MemberList, error)
}

// Handler wires invite and member-listing endpoints to the lifecycle service.
type Handler struct {
	logger    *slog.Logger
	service   Service
	metrics   *metrics.Metrics
	validator middleware.SessionValidator
}

func New(service Service, logger *slog.Logger, m *metrics.Metrics, validator middleware.SessionValidator) *Handler {
	return &Handler{logger: logger, service: service, metrics: m, validator: validator}
}

// Register registers the team routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	teamRouter := chi.NewRouter()
	teamRouter.Use(middleware.Recovery(h.logger))
	teamRouter.Use(middleware.RequestID)
	teamRouter.Use(middleware.ClientMetadata)
	teamRouter.Use(middleware.Logger(h.logger))
	teamRouter.Use(middleware.Timeout(30 * time.Second))
	teamRouter.Use(middleware.ContentTypeJSON)
	if h.metrics != nil {
		teamRouter.Use(middleware.Latency(h.metrics))
	}

	teamRouter.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Post("/invites/{inviteID}/accept", h.handleAcceptInvite)
		r.Post("/invites/{inviteID}/reject", h.handleRejectInvite)
	})
	teamRouter.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAuth(h.validator, h.logger))
		r.Get("/teams/{slug}/members", h.handleListMembers)
	})

	r.Mount("/", teamRouter)
}

func (h *Handler) handleAcceptInvite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	inviteID, err := id.ParseInviteID(chi.URLParam(r, "inviteID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	team, err := h.service.AcceptInvite(ctx, inviteID, requestcontext.UserID(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "accept invite failed",
			"invite_id", inviteID.String(),
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, team)
}

func (h *Handler) handleRejectInvite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	inviteID, err := id.ParseInviteID(chi.URLParam(r, "inviteID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.RejectInvite(ctx, inviteID, requestcontext.UserID(ctx)); err != nil {
		h.logger.WarnContext(ctx, "reject invite failed",
			"invite_id", inviteID.String(),
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	list, err := h.service.ListMembers(ctx, chi.URLParam(r, "slug"), requestcontext.UserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if list.Members == nil {
		list.Members = []models.Member{}
	}

	httputil.WriteJSON(w, http.StatusOK, list)
}
