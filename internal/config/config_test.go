package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"ENVIRONMENT", "PORT", "GENERATION_PROVIDER", "GEMINI_IMAGE_MODEL", "GENERATION_TIMEOUT",
		"GENERATION_RATE_PER_MINUTE", "MAX_UPLOAD_BYTES", "SESSION_IDLE_TTL", "DATABASE_URL", "LANGFUSE_ENABLED",
		"CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "gemini", cfg.GenerationProvider)
	assert.Equal(t, "gemini-2.5-flash-image", cfg.GeminiImageModel)
	assert.Equal(t, 2*time.Minute, cfg.GenerationTimeout)
	assert.Equal(t, 30, cfg.GenerationRatePerMinute)
	assert.Equal(t, int64(25*1024*1024), cfg.MaxUploadBytes)
	assert.Equal(t, 2*time.Hour, cfg.SessionIdleTTL)
	assert.False(t, cfg.LangfuseEnabled)
	assert.Empty(t, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.HasDatabase())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("GENERATION_PROVIDER", "openai")
	t.Setenv("GENERATION_TIMEOUT", "45s")
	t.Setenv("GENERATION_RATE_PER_MINUTE", "5")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("DATABASE_URL", "postgres://localhost/hairstyle")
	t.Setenv("LANGFUSE_ENABLED", "true")

	cfg := Load()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "openai", cfg.GenerationProvider)
	assert.Equal(t, 45*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, 5, cfg.GenerationRatePerMinute)
	assert.Equal(t, int64(1024), cfg.MaxUploadBytes)
	assert.True(t, cfg.HasDatabase())
	assert.True(t, cfg.LangfuseEnabled)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("GENERATION_TIMEOUT", "soon")
	t.Setenv("GENERATION_RATE_PER_MINUTE", "many")

	cfg := Load()

	assert.Equal(t, 2*time.Minute, cfg.GenerationTimeout)
	assert.Equal(t, 30, cfg.GenerationRatePerMinute)
}

func TestLoad_CORSAllowedOrigins(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg := Load()

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}
