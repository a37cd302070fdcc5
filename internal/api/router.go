package api

import (
	"github.com/Conceptual-Machines/hairstyle-ai/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/hairstyle-ai/internal/api/middleware"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/config"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/database"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/media"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/metrics"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/middleware"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/session"
	webhandlers "github.com/Conceptual-Machines/hairstyle-ai/internal/web/handlers"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Dependencies are the long-lived services the router wires into handlers
type Dependencies struct {
	DB           *gorm.DB // nil when the usage log is disabled
	Generator    session.Generator
	ProviderName string
	Sessions     *session.Store
	CloudWatch   *metrics.Client
}

func SetupRouter(cfg *config.Config, deps Dependencies, version string) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(deps.CloudWatch))

	router.Use(apimiddleware.CORS(cfg.CORSAllowedOrigins))

	// Uploads are buffered in memory up to the upload limit
	router.MaxMultipartMemory = cfg.MaxUploadBytes

	// Health check
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.ProviderName)
	router.GET("/health", healthHandler.HealthCheck)

	// Metrics endpoint
	metricsHandler := handlers.NewMetricsHandler(version, deps.Sessions, database.NewUsageRepository(deps.DB), deps.ProviderName)
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	sessionMiddleware := middleware.Session(middleware.NewCookieStore(cfg), deps.Sessions)

	// Web pages
	webHandler := webhandlers.NewWebHandler(media.NewLoader(cfg.MaxUploadBytes))
	web := router.Group("/", sessionMiddleware)
	{
		web.GET("/", webHandler.Home)
		web.GET("/htmx/result", webHandler.ResultPanel)

		web.POST("/session/photo", webHandler.UploadUserPhoto)
		web.POST("/session/photo/remove", webHandler.RemoveUserPhoto)
		web.POST("/session/reference", webHandler.UploadReference)
		web.POST("/session/reference/remove", webHandler.RemoveReference)
		web.POST("/session/prompt", webHandler.SetPrompt)
		web.POST("/session/mode", webHandler.SetMode)
		web.POST("/session/generate", webHandler.Generate)
		web.GET("/session/result/download", webHandler.DownloadResult)
	}

	// JSON API v1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/session", sessionMiddleware, handlers.GetSession)

		generationHandler := handlers.NewGenerationHandler(deps.Generator, cfg.GenerationTimeout, cfg.MaxUploadBytes)
		v1.POST("/generations", generationHandler.Generate)
	}

	return router
}
