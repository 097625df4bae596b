package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/docdrip/docdrip/api/handlers"
	"github.com/docdrip/docdrip/api/middleware"
)

// Setup registers all routes. Everything under /v1 requires the API
// key; the health endpoint does not.
func Setup(r *gin.Engine, h *handlers.Handlers, secretKey string) {
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS())

	r.GET("/healthz", h.Health.Check)

	v1 := r.Group("/v1")
	v1.Use(middleware.APIKeyAuth(secretKey))
	{
		v1.POST("/convert", h.Document.Convert)
		v1.POST("/validate", h.Document.Validate)
		v1.GET("/formats", h.Document.Formats)
	}
}
