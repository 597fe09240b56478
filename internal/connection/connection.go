// Package connection bundles the connection lifecycle: models, stores,
// service, and HTTP handler.
package connection

import (
	"log/slog"

	"cheerconnect/internal/connection/handler"
	"cheerconnect/internal/connection/service"
	"cheerconnect/internal/platform/metrics"
	"cheerconnect/internal/platform/middleware"
	"cheerconnect/pkg/platform/audit"
)

type (
	Service = service.Service
	Handler = handler.Handler
)

// NewService builds the connection service.
func NewService(store service.Store, m *metrics.Metrics, emitter audit.Emitter) *Service {
	return service.New(store, m, emitter)
}

// NewHandler builds the HTTP handler for connection routes.
func NewHandler(s *Service, logger *slog.Logger, m *metrics.Metrics, validator middleware.SessionValidator) *Handler {
	return handler.New(s, logger, m, validator)
}
