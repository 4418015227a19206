package handler

import (
	"context"
	"net/http"
	"time"

	"session-guard/internal/auth"
	"session-guard/internal/auth/provider"
	"session-guard/internal/auth/resolver"
	"session-guard/internal/logger"
	"session-guard/internal/session"

	"github.com/gin-gonic/gin"
)

// Accounts is the email/password backend.
type Accounts interface {
	Register(ctx context.Context, email, password string) (*auth.User, error)
	Authenticate(ctx context.Context, email, password string) (*auth.User, error)
}

type Options struct {
	SessionTTL         time.Duration
	SessionIdleTimeout time.Duration
	CookieSecure       bool
	HomePath           string
}

// Handler serves the login surface that the guard redirects to.
type Handler struct {
	providers    *provider.Registry
	sessionStore session.Store
	resolver     resolver.Resolver
	accounts     Accounts
	profiles     resolver.ProfileEnsurer
	opts         Options
}

func NewHandler(
	registry *provider.Registry,
	sessionStore session.Store,
	resolver resolver.Resolver,
	accounts Accounts,
	profiles resolver.ProfileEnsurer,
	opts Options,
) *Handler {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.SessionIdleTimeout <= 0 {
		opts.SessionIdleTimeout = opts.SessionTTL
	}
	if opts.HomePath == "" {
		opts.HomePath = "/"
	}

	return &Handler{
		providers:    registry,
		sessionStore: sessionStore,
		resolver:     resolver,
		accounts:     accounts,
		profiles:     profiles,
		opts:         opts,
	}
}

// RegisterRoutes mounts the login surface. Extra handlers (rate limiting)
// run before every credential-accepting route.
func (h *Handler) RegisterRoutes(r gin.IRouter, guards ...gin.HandlerFunc) {
	r.GET("/auth/login", h.loginOptions)
	r.POST("/auth/logout", h.Logout)

	limited := r.Group("", guards...)
	limited.POST("/auth/login", h.passwordLogin)
	limited.POST("/auth/register", h.register)
	limited.GET("/oauth/login/:provider", h.oauthLogin)
	limited.GET("/oauth/callback/:provider", h.oauthCallback)
}

func (h *Handler) cookieOptions() session.CookieOptions {
	return session.CookieOptions{
		Secure:   h.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *Handler) loginOptions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"providers": h.providers.Names(),
		"password":  h.accounts != nil,
	})
}

// startSession persists a new session for user and sets the cookie.
func (h *Handler) startSession(c *gin.Context, user *auth.User) bool {
	sess, err := session.New(user.ID, user.Email, h.opts.SessionIdleTimeout, h.opts.SessionTTL)
	if err != nil {
		logger.Error("failed to create session", map[string]any{"error": err.Error()})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return false
	}

	if err := h.sessionStore.Create(c.Request.Context(), sess); err != nil {
		logger.Error("failed to persist session", map[string]any{"error": err.Error()})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist session"})
		return false
	}

	session.SetCookie(c.Writer, sess, h.cookieOptions())

	logger.Info("login succeeded", map[string]any{
		"user_id": user.ID,
		"ip":      c.ClientIP(),
	})
	return true
}

// Logout is idempotent: it clears the cookie whether or not a session exists.
func (h *Handler) Logout(c *gin.Context) {
	if sessionID, ok := session.ReadCookie(c.Request); ok {
		if err := h.sessionStore.Delete(c.Request.Context(), sessionID); err != nil {
			logger.Warn("session delete failed", map[string]any{"error": err.Error()})
		}
		logger.Info("logout", map[string]any{"ip": c.ClientIP()})
	}

	session.ClearCookie(c.Writer, h.cookieOptions())
	c.Status(http.StatusNoContent)
}
