package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/File-Sharing-BondBridg/Photo-Service/internal/auth"
	"github.com/File-Sharing-BondBridg/Photo-Service/internal/logger"
	"github.com/File-Sharing-BondBridg/Photo-Service/internal/sessions"
	"github.com/File-Sharing-BondBridg/Photo-Service/internal/views"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// loginWindow bounds how long a started login may take to come back.
const loginWindow = 10 * time.Minute

// AuthHandler runs the authorization code flow and owns the session cookie.
type AuthHandler struct {
	provider auth.IdentityProvider
	store    sessions.Store
	cookie   *sessions.Cookie
	log      *logger.Logger
}

func NewAuthHandler(provider auth.IdentityProvider, store sessions.Store, cookie *sessions.Cookie, log *logger.Logger) *AuthHandler {
	return &AuthHandler{provider: provider, store: store, cookie: cookie, log: log}
}

// Login starts a pre-auth session holding the state and sends the browser to
// the identity provider.
func (a *AuthHandler) Login(c *gin.Context) {
	s := sessions.New(loginWindow)
	s.State = uuid.NewString()

	if err := a.store.Save(c.Request.Context(), s); err != nil {
		a.log.Error("Failed to save login session", zap.Error(err))
		a.fail(c, http.StatusInternalServerError)
		return
	}

	a.cookie.Write(c.Writer, s.ID)
	c.Redirect(http.StatusFound, a.provider.AuthCodeURL(s.State))
}

// Callback exchanges the code and replaces the pre-auth session with an
// authenticated one under a fresh id. Any failure leaves the user signed out.
func (a *AuthHandler) Callback(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := a.cookie.Read(c.Request)
	if !ok {
		a.log.Warn("OAuth callback without session cookie")
		a.fail(c, http.StatusUnauthorized)
		return
	}

	pending, err := a.store.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, sessions.ErrNotFound) {
			a.log.Error("Failed to load login session", zap.Error(err))
		}
		a.fail(c, http.StatusUnauthorized)
		return
	}
	if pending.Authenticated() {
		// a stray callback must not sign out the session it rides on
		a.log.Warn("OAuth callback on an authenticated session")
		a.render(c, http.StatusUnauthorized)
		return
	}
	// the pending session is single use
	_ = a.store.Delete(ctx, pending.ID)

	state := c.Query("state")
	if pending.State == "" || subtle.ConstantTimeCompare([]byte(state), []byte(pending.State)) != 1 {
		a.log.Warn("OAuth state mismatch")
		a.fail(c, http.StatusUnauthorized)
		return
	}
	if e := c.Query("error"); e != "" {
		a.log.Warn("Identity provider returned an error", zap.String("error", e))
		a.fail(c, http.StatusUnauthorized)
		return
	}

	user, err := a.provider.Exchange(ctx, c.Query("code"))
	if err != nil {
		a.log.Warn("OAuth exchange failed", zap.Error(err))
		a.fail(c, http.StatusUnauthorized)
		return
	}

	s := sessions.New(a.cookie.TTL())
	s.User = &user
	if err := a.store.Save(ctx, s); err != nil {
		a.log.Error("Failed to save session", zap.Error(err))
		a.fail(c, http.StatusInternalServerError)
		return
	}

	a.log.Info("User signed in", zap.String("email", user.Email))
	a.cookie.Write(c.Writer, s.ID)
	c.Redirect(http.StatusFound, "/gallery")
}

func (a *AuthHandler) Logout(c *gin.Context) {
	if id, ok := a.cookie.Read(c.Request); ok {
		if err := a.store.Delete(c.Request.Context(), id); err != nil {
			a.log.Error("Failed to delete session", zap.Error(err))
		}
	}
	a.cookie.Clear(c.Writer)
	c.Redirect(http.StatusFound, "/")
}

func (a *AuthHandler) fail(c *gin.Context, status int) {
	a.cookie.Clear(c.Writer)
	a.render(c, status)
}

func (a *AuthHandler) render(c *gin.Context, status int) {
	c.HTML(status, views.Message, views.MessagePage{
		Message: "Authentication failed.",
		Error:   true,
		Back:    "/login",
	})
}
