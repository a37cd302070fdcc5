package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Conceptual-Machines/hairstyle-ai/internal/config"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testRouter() *gin.Engine {
	cfg := &config.Config{
		SessionSecret:     "test-secret",
		SessionIdleTTL:    time.Hour,
		MaxUploadBytes:    1024 * 1024,
		GenerationTimeout: time.Second,
	}
	generator := session.GeneratorFunc(func(context.Context, session.Request) (session.Outcome, error) {
		return session.Outcome{ImageURL: "data:image/png;base64,UkVTVUxU"}, nil
	})
	return SetupRouter(cfg, Dependencies{
		Generator:    generator,
		ProviderName: "fake",
		Sessions:     session.NewStore(generator, time.Second, time.Hour),
	}, "test")
}

func TestSetupRouter_Routes(t *testing.T) {
	router := testRouter()

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/metrics", http.StatusOK},
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/htmx/result", http.StatusOK},
		{http.MethodGet, "/api/v1/session", http.StatusOK},
		{http.MethodPost, "/session/photo/remove", http.StatusSeeOther},
		{http.MethodPost, "/session/generate", http.StatusSeeOther},
		{http.MethodGet, "/session/result/download", http.StatusNotFound},
		{http.MethodGet, "/missing", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}

func TestSetupRouter_StatelessGeneration(t *testing.T) {
	router := testRouter()

	body := `{"user_image":"data:image/png;base64,aW1hZ2UtYQ==","mode":"TEXT_DESCRIPTION","prompt":"red curly bob"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/generations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "data:image/png;base64,UkVTVUxU")
	assert.Contains(t, w.Body.String(), w.Header().Get("X-Request-ID"))
}
