package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultGeminiImageModel   = "gemini-2.5-flash-image"
	defaultOpenAIImageModel   = "gpt-image-1"
	defaultGenerationTimeout  = 2 * time.Minute
	defaultSessionIdleTTL     = 2 * time.Hour
	defaultMaxUploadBytes     = 25 * 1024 * 1024
	defaultRatePerMinute      = 30
	environmentProduction     = "production"
	developmentSessionSecret  = "hairstyle-ai-development-secret-change-me"
	defaultLangfuseHost       = "https://cloud.langfuse.com"
	defaultGenerationProvider = "gemini"
)

// Config holds the application configuration
// Sessions live in memory only; DATABASE_URL enables the optional generation usage log.
type Config struct {
	// Environment
	Environment string
	Port        string

	// Generation client
	GenerationProvider      string        // "gemini" or "openai"
	GeminiAPIKey            string        // Google Gemini API key
	OpenAIAPIKey            string        // OpenAI API key
	GeminiImageModel        string        // Gemini image model name
	OpenAIImageModel        string        // OpenAI image model name
	GenerationTimeout       time.Duration // Upper bound for one generation call
	GenerationRatePerMinute int           // Generation calls allowed per minute across all sessions

	// Uploads and sessions
	MaxUploadBytes int64
	SessionSecret  string
	SessionIdleTTL time.Duration

	// Origins allowed to call the JSON API from a browser
	CORSAllowedOrigins []string

	// Storage (optional)
	DatabaseURL string

	// Observability
	SentryDSN         string // Sentry DSN for error tracking
	LangfusePublicKey string // Langfuse public key
	LangfuseSecretKey string // Langfuse secret key
	LangfuseHost      string // Langfuse host URL (cloud or self-hosted)
	LangfuseEnabled   bool   // Feature flag for Langfuse
}

func Load() *Config {
	cfg := &Config{
		Environment:             getEnv("ENVIRONMENT", "development"),
		Port:                    getEnv("PORT", "8080"),
		GenerationProvider:      getEnv("GENERATION_PROVIDER", defaultGenerationProvider),
		GeminiAPIKey:            getEnv("GEMINI_API_KEY", ""),
		OpenAIAPIKey:            getEnv("OPENAI_API_KEY", ""),
		GeminiImageModel:        getEnv("GEMINI_IMAGE_MODEL", defaultGeminiImageModel),
		OpenAIImageModel:        getEnv("OPENAI_IMAGE_MODEL", defaultOpenAIImageModel),
		GenerationTimeout:       getDurationEnv("GENERATION_TIMEOUT", defaultGenerationTimeout),
		GenerationRatePerMinute: getIntEnv("GENERATION_RATE_PER_MINUTE", defaultRatePerMinute),
		MaxUploadBytes:          int64(getIntEnv("MAX_UPLOAD_BYTES", defaultMaxUploadBytes)),
		SessionSecret:           getEnv("SESSION_SECRET", developmentSessionSecret),
		SessionIdleTTL:          getDurationEnv("SESSION_IDLE_TTL", defaultSessionIdleTTL),
		CORSAllowedOrigins:      getListEnv("CORS_ALLOWED_ORIGINS"),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		SentryDSN:               getEnv("SENTRY_DSN", ""),
		LangfusePublicKey:       getEnv("LANGFUSE_PUBLIC_KEY", ""),
		LangfuseSecretKey:       getEnv("LANGFUSE_SECRET_KEY", ""),
		LangfuseHost:            getEnv("LANGFUSE_HOST", defaultLangfuseHost),
		LangfuseEnabled:         getEnv("LANGFUSE_ENABLED", "false") == "true",
	}

	if cfg.IsProduction() && cfg.SessionSecret == developmentSessionSecret {
		log.Println("⚠️  SESSION_SECRET not set in production, using the development secret")
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

// getListEnv splits a comma-separated value, dropping empty entries
func getListEnv(key string) []string {
	var values []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using default %s", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

// IsProduction returns true when running in the production environment
func (c *Config) IsProduction() bool {
	return c.Environment == environmentProduction
}

// HasDatabase returns true when the usage log is backed by Postgres
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}
