package routes

import (
	"net/http"

	"agentic-context/internal/config"
	"agentic-context/internal/telemetry"
	"agentic-context/middleware"
	"agentic-context/models"
	"agentic-context/services"

	"github.com/gin-gonic/gin"
)

// Services bundles the pipelines the HTTP handlers compose.
type Services struct {
	Ingestion  *services.IngestionService
	Retrieval  *services.RetrievalService
	Formatting *services.FormattingService
	Query      *services.QueryService
	Agents     *services.AgentService
}

// SetupRouter builds the gin engine with middleware and every route.
func SetupRouter(cfg *config.Config, svc *Services, metrics *telemetry.Metrics) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	if cfg.OTelEnabled {
		router.Use(middleware.TracingMiddleware())
		router.Use(middleware.EnrichTrace())
	}
	if metrics != nil {
		router.Use(middleware.MetricsMiddleware(metrics))
	}
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORSMiddlewareWithOrigins(cfg.CORSOrigins))

	// Health check endpoint
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{Status: "healthy", Message: "RAG system is running"})
	})

	SetupRAGRoutes(router, cfg, svc, middleware.APIKeyMiddleware(cfg))
	return router
}

// maxJSONBodySize caps the JSON endpoints. Uploads have their own limit.
const maxJSONBodySize = 10 << 20

// SetupRAGRoutes registers the /api/v1 endpoints behind auth.
func SetupRAGRoutes(router *gin.Engine, cfg *config.Config, svc *Services, auth gin.HandlerFunc) {
	api := router.Group("/api/v1")
	api.Use(auth)

	api.POST("/upload", HandleUpload(cfg, svc.Ingestion))

	limit := middleware.RequestSizeLimit(maxJSONBodySize)
	api.POST("/retrieve", limit, HandleRetrieve(svc.Retrieval))
	api.POST("/format", limit, HandleFormat(svc.Formatting))
	api.POST("/query", limit, HandleQuery(svc.Query))
	api.DELETE("/agents/:agent_id", HandleDeleteAgent(svc.Agents))
}
