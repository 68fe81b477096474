// cmd/middleware/auth.go
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/File-Sharing-BondBridg/Photo-Service/internal/auth"
	"github.com/File-Sharing-BondBridg/Photo-Service/internal/logger"
	"github.com/File-Sharing-BondBridg/Photo-Service/internal/models"
	"github.com/File-Sharing-BondBridg/Photo-Service/internal/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	UserKey      = "user"
	SessionIDKey = "session_id"
	LoginPath    = "/login"
)

// CurrentUser returns the signed-in user, or nil when the request is anonymous.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// LoadSession resolves the session cookie. It never rejects a request.
func LoadSession(store sessions.Store, cookie *sessions.Cookie, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := cookie.Read(c.Request)
		if !ok {
			c.Next()
			return
		}

		s, err := store.Get(c.Request.Context(), id)
		switch {
		case err == nil:
			c.Set(SessionIDKey, s.ID)
			if s.Authenticated() {
				c.Set(UserKey, s.User)
			}
		case !errors.Is(err, sessions.ErrNotFound):
			log.Error("Failed to load session", zap.Error(err))
		}
		c.Next()
	}
}

// RequireAuth rejects anonymous requests. Browsers are sent to the login
// page; /api clients get a 401 unless they present a valid bearer ID token.
func RequireAuth(provider auth.IdentityProvider, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) != nil {
			c.Next()
			return
		}

		if !strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing auth"})
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		if tokenStr == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid format"})
			return
		}

		user, err := provider.Verify(c.Request.Context(), tokenStr)
		if err != nil {
			log.Warn("Bearer token rejected", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(UserKey, &user)
		c.Next()
	}
}
