package team

import (
	"log/slog"

	"cheerconnect/internal/platform/metrics"
	platformmw "cheerconnect/internal/platform/middleware"
	"cheerconnect/internal/team/handler"
	"cheerconnect/internal/team/service"
	"cheerconnect/pkg/platform/audit"
)

// Service exposes the invite and membership lifecycle.
type Service = service.Service

// Handler wires HTTP endpoints to the lifecycle service.
type Handler = handler.Handler

// NewService constructs the lifecycle service with required dependencies.
func NewService(store service.Store, tx service.Tx, m *metrics.Metrics, emitter audit.Emitter) *Service {
	return service.New(store, tx, m, emitter)
}

// NewHandler constructs an HTTP handler for invite and member routes.
func NewHandler(s *Service, logger *slog.Logger, m *metrics.Metrics, validator platformmw.SessionValidator) *Handler {
	return handler.New(s, logger, m, validator)
}
