package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Conceptual-Machines/hairstyle-ai/internal/config"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func noopGenerator() session.Generator {
	return session.GeneratorFunc(func(context.Context, session.Request) (session.Outcome, error) {
		return session.Outcome{}, nil
	})
}

func setupSessionRouter(registry *session.Store) *gin.Engine {
	cfg := &config.Config{SessionSecret: "test-secret", SessionIdleTTL: time.Hour}
	router := gin.New()
	router.Use(Session(NewCookieStore(cfg), registry))
	router.GET("/", func(c *gin.Context) {
		controller, ok := GetSession(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, controller.ID())
	})
	return router
}

func TestSession_CreatesAndReusesSession(t *testing.T) {
	registry := session.NewStore(noopGenerator(), time.Second, time.Hour)
	router := setupSessionRouter(registry)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)

	firstID := w.Body.String()
	assert.NotEmpty(t, firstID)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, firstID, w.Body.String())
	assert.Empty(t, w.Result().Cookies(), "cookie is only written for new sessions")
	assert.Equal(t, 1, registry.Len())
}

func TestSession_InvalidCookieStartsFreshSession(t *testing.T) {
	registry := session.NewStore(noopGenerator(), time.Second, time.Hour)
	router := setupSessionRouter(registry)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: "forged"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Body.String())
	assert.Len(t, w.Result().Cookies(), 1)
}

func TestSession_ExpiredSessionIsRecreatedWithSameID(t *testing.T) {
	registry := session.NewStore(noopGenerator(), time.Second, time.Hour)
	router := setupSessionRouter(registry)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	id := w.Body.String()
	cookie := w.Result().Cookies()[0]

	registry.Delete(id)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, id, w.Body.String())
}

func TestGetSession_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := GetSession(c)
	assert.False(t, ok)
}
