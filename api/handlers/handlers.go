package handlers

import (
	"github.com/docdrip/docdrip/internal/service/document"
	"github.com/docdrip/docdrip/pkg/logger"
)

// Handlers bundles all HTTP handlers for route registration.
type Handlers struct {
	Document *DocumentHandler
	Health   *HealthHandler
}

// New wires the handlers to their services.
func New(svc *document.Service, log logger.Logger, version string) *Handlers {
	return &Handlers{
		Document: NewDocumentHandler(svc, log),
		Health:   NewHealthHandler(version),
	}
}
