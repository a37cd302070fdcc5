package middleware

import (
	"net/http"

	"github.com/Conceptual-Machines/hairstyle-ai/internal/config"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/logger"
	"github.com/Conceptual-Machines/hairstyle-ai/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

const (
	cookieName      = "hairstyle_session"
	sessionIDKey    = "id"
	contextIDKey    = "session_id"
	contextStateKey = "session"
)

// NewCookieStore builds the signed cookie store that carries the session id
func NewCookieStore(cfg *config.Config) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = cfg.IsProduction() // Use secure cookies in production
	store.Options.SameSite = http.SameSiteLaxMode
	store.Options.MaxAge = int(cfg.SessionIdleTTL.Seconds())
	return store
}

// Session attaches the caller's session controller to the context, creating the session
// and its cookie on first visit. Images stay in memory; the cookie only holds the id.
func Session(cookies sessions.Store, registry *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := cookies.Get(c.Request, cookieName)
		if err != nil {
			// Tampered or stale cookies get a fresh session
			logger.Debug("Discarding invalid session cookie", logger.Fields{"error": err.Error()})
		}

		id, _ := cookie.Values[sessionIDKey].(string)
		controller := registry.GetOrCreate(id)

		if controller.ID() != id {
			cookie.Values[sessionIDKey] = controller.ID()
			if err := cookie.Save(c.Request, c.Writer); err != nil {
				logger.Error("Failed to save session cookie", err, logger.WithContext(c))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start session"})
				c.Abort()
				return
			}
		}

		c.Set(contextIDKey, controller.ID())
		c.Set(contextStateKey, controller)

		c.Next()
	}
}

// GetSession returns the controller attached by Session
func GetSession(c *gin.Context) (*session.Controller, bool) {
	value, exists := c.Get(contextStateKey)
	if !exists {
		return nil, false
	}
	controller, ok := value.(*session.Controller)
	return controller, ok
}
