package app

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"session-guard/internal/auth/credentials"
	"session-guard/internal/auth/handler"
	"session-guard/internal/auth/provider"
	"session-guard/internal/auth/provider/oidc"
	"session-guard/internal/auth/resolver"
	"session-guard/internal/config"
	"session-guard/internal/guard"
	"session-guard/internal/logger"
	"session-guard/internal/middleware"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func oidcConfigs(cfg config.Config) []oidc.Config {
	keycloak := oidc.Config{
		Name:        "keycloak",
		Issuer:      cfg.KeycloakIssuer,
		ClientID:    cfg.KeycloakClientID,
		RedirectURL: cfg.KeycloakRedirectURL,
	}
	if cfg.KeycloakPublicBaseURL != "" && cfg.KeycloakIssuer != "" {
		keycloak.PublicAuthURL = publicAuthURL(cfg.KeycloakIssuer, cfg.KeycloakPublicBaseURL)
	}

	return []oidc.Config{
		{
			Name:         "google",
			Issuer:       "https://accounts.google.com",
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
		},
		keycloak,
	}
}

func setupOAuthProviders(ctx context.Context, cfg config.Config) (*provider.Registry, error) {
	var list []provider.OAuthProvider
	for _, c := range oidcConfigs(cfg) {
		if !c.Complete() {
			logger.Info("oidc provider not configured", map[string]any{"provider": c.Name})
			continue
		}
		p, err := oidc.New(ctx, c)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return provider.NewRegistry(list...), nil
}

func newGuard(cfg config.Config, infra *Infra) (*guard.Guard, error) {
	return guard.New(
		infra.Provider,
		infra.Profiles,
		guard.WithLoginPath(cfg.LoginPath),
		guard.WithHomePath(cfg.HomePath),
		guard.WithAdminEnforcement(cfg.EnforceAdmin),
		guard.WithLogger(logger.L().Named("guard")),
	)
}

func setupHTTP(ctx context.Context, cfg config.Config, infra *Infra) (*gin.Engine, error) {
	g, err := newGuard(cfg, infra)
	if err != nil {
		return nil, err
	}
	authMiddleware := middleware.NewAuthMiddleware(g)

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ----------------------------
	// Login surface (first-party sessions only; Kratos hosts its own)
	// ----------------------------

	if infra.Sessions != nil {
		registry, err := setupOAuthProviders(ctx, cfg)
		if err != nil {
			return nil, err
		}

		limiter := middleware.NewRateLimiter(ctx, rate.Limit(cfg.LoginRatePerSec), cfg.LoginRateBurst)

		authHandler := handler.NewHandler(
			registry,
			infra.Sessions,
			resolver.NewDBResolver(infra.DB, infra.Profiles),
			credentials.NewService(infra.DB),
			infra.Profiles,
			handler.Options{
				SessionTTL:         cfg.SessionTTL,
				SessionIdleTimeout: cfg.SessionIdleTimeout,
				CookieSecure:       cfg.CookieSecure,
				HomePath:           cfg.HomePath,
			},
		)
		authHandler.RegisterRoutes(router, limiter.Gin())
	}

	// ----------------------------
	// Pages
	// ----------------------------

	router.GET("/", middleware.GinOptionalUser(authMiddleware), func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{
			"authenticated": ok,
			"user":          user,
		})
	})

	router.GET("/dashboard", middleware.GinRequireAuth(authMiddleware), func(c *gin.Context) {
		user, _ := middleware.CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"page": "dashboard", "user": user})
	})

	router.GET("/admin", middleware.GinRequireAdmin(authMiddleware), func(c *gin.Context) {
		user, _ := middleware.CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"page": "admin", "user": user})
	})

	// ----------------------------
	// API
	// ----------------------------

	api := router.Group("/api")

	api.GET("/me", middleware.GinAPIRequireAuth(g), func(c *gin.Context) {
		user, _ := middleware.CurrentUser(c)
		c.JSON(http.StatusOK, user)
	})

	api.GET("/admin/ping", middleware.GinAPIRequireAdmin(g), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	return router, nil
}

// publicAuthURL rewrites the issuer's authorization endpoint onto the
// browser-facing base URL, keeping the realm path. An unparsable issuer
// yields "" so discovery's endpoint is used unchanged.
func publicAuthURL(issuer, publicBase string) string {
	u, err := url.Parse(issuer)
	if err != nil {
		return ""
	}
	return strings.TrimRight(publicBase, "/") + strings.TrimRight(u.Path, "/") + "/protocol/openid-connect/auth"
}
