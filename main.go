package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Conceptual-Machines/hairstyle-ai/internal/api"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/config"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/database"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/llm"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/metrics"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/observability"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/services"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/session"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

const (
	sentryFlushTimeout    = 2 * time.Second
	environmentProduction = "production"
	sessionSweepInterval  = 5 * time.Minute
	readHeaderTimeout     = 10 * time.Second
	shutdownTimeout       = 30 * time.Second
)

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

// GetVersion returns the current release version
func GetVersion() string {
	return releaseVersion
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()

	// Initialize Sentry
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          "hairstyle-ai@" + releaseVersion,         // Use embedded release version
			EnableTracing:    true,                                     // Enable tracing for spans
			TracesSampleRate: 1.0,                                      // 100% sampling for now, adjust based on volume
			EnableLogs:       true,                                     // Enable Sentry Logs feature
			Debug:            cfg.Environment != environmentProduction, // Enable debug in non-prod
			BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
				// Filter out sensitive data
				if event.Request != nil {
					event.Request.Headers = filterSensitiveHeaders(event.Request.Headers)
					// Request bodies carry the uploaded photos
					event.Request.Data = ""
				}
				return event
			},
		}); err != nil {
			log.Printf("Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s, release: %s)", cfg.Environment, releaseVersion)
			// Flush on shutdown
			defer sentry.Flush(sentryFlushTimeout)
		}
	} else {
		log.Println("⚠️  Sentry not configured (SENTRY_DSN not set)")
	}

	// Cancelled on SIGINT/SIGTERM; stops the session sweeper and the server
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Usage log is optional
	var db *gorm.DB
	if cfg.HasDatabase() {
		var err error
		db, err = database.Connect(cfg.DatabaseURL)
		if err != nil {
			sentry.CaptureException(err)
			log.Fatal("Failed to connect to database:", err)
		}

		if err := database.Migrate(db); err != nil {
			sentry.CaptureException(err)
			log.Fatal("Failed to run migrations:", err)
		}
	} else {
		log.Println("⚠️  DATABASE_URL not set, generation usage log disabled")
	}

	tracer := observability.InitializeLangfuse(ctx, cfg)

	cloudWatch, err := metrics.NewClient(ctx, cfg.Environment)
	if err != nil {
		log.Printf("⚠️  CloudWatch metrics unavailable: %v", err)
		cloudWatch = nil
	}

	// Generation client
	factory := llm.NewProviderFactory(cfg.OpenAIAPIKey, cfg.GeminiAPIKey).
		WithModels(cfg.GeminiImageModel, cfg.OpenAIImageModel)
	provider, err := factory.GetProvider(ctx, "", cfg.GenerationProvider)
	if err != nil {
		log.Printf("⚠️  Generation provider unavailable: %v", err)
		provider = llm.NewUnconfiguredProvider(err)
	} else {
		log.Printf("✅ Generation provider: %s", provider.Name())
	}

	generator := services.NewGenerationService(provider, providerModel(cfg, provider.Name()), cfg.GenerationRatePerMinute, services.Dependencies{
		Tracer:        tracer,
		SentryMetrics: metrics.NewSentryMetrics(),
		CloudWatch:    cloudWatch,
		Usage:         database.NewUsageRepository(db),
	})

	sessions := session.NewStore(generator, cfg.GenerationTimeout, cfg.SessionIdleTTL)
	sessions.StartSweeper(ctx, sessionSweepInterval)

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	router := api.SetupRouter(cfg, api.Dependencies{
		DB:           db,
		Generator:    generator,
		ProviderName: provider.Name(),
		Sessions:     sessions,
		CloudWatch:   cloudWatch,
	}, GetVersion())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	log.Printf("🚀 Starting server on port %s", cfg.Port)
	if err := serve(ctx, srv, shutdownTimeout); err != nil {
		sentry.CaptureException(err)
		log.Printf("❌ Server error: %v", err)
		return
	}
	log.Println("👋 Server stopped")
}

// serve runs srv until ctx is cancelled, then shuts it down and waits for in-flight
// requests up to timeout
func serve(ctx context.Context, srv *http.Server, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("🛑 Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func providerModel(cfg *config.Config, providerName string) string {
	if providerName == "openai" {
		return cfg.OpenAIImageModel
	}
	return cfg.GeminiImageModel
}

func filterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string)
	sensitiveKeys := map[string]bool{
		"authorization": true,
		"cookie":        true,
		"x-api-key":     true,
	}

	for k, v := range headers {
		if sensitiveKeys[strings.ToLower(k)] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}
