// Package oidc signs users in against any OpenID Connect issuer
// (Google, Keycloak, ...) using the authorization code flow with PKCE.
package oidc

import (
	"context"
	"errors"
	"fmt"

	"session-guard/internal/auth"
	"session-guard/internal/logger"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

type Config struct {
	Name         string
	Issuer       string
	ClientID     string
	ClientSecret string // empty for public clients
	RedirectURL  string

	// PublicAuthURL replaces the discovered authorization endpoint when the
	// issuer is reachable from the server under a different host than from
	// the browser (e.g. Keycloak inside a container network).
	PublicAuthURL string
}

// Complete reports whether the config has enough to build a provider.
func (c Config) Complete() bool {
	return c.Name != "" && c.Issuer != "" && c.ClientID != "" && c.RedirectURL != ""
}

type Provider struct {
	name        string
	oauthConfig *oauth2.Config
	verifier    *gooidc.IDTokenVerifier
}

// New runs OIDC discovery against cfg.Issuer.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	if !cfg.Complete() {
		return nil, fmt.Errorf("oidc %q: config missing required fields", cfg.Name)
	}

	discovered, err := gooidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc %q: discovery failed: %w", cfg.Name, err)
	}

	endpoint := discovered.Endpoint()
	if cfg.PublicAuthURL != "" {
		endpoint.AuthURL = cfg.PublicAuthURL
	}

	return &Provider{
		name: cfg.Name,
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{gooidc.ScopeOpenID, "profile", "email"},
		},
		verifier: discovered.Verifier(&gooidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

func (p *Provider) Name() string {
	return p.name
}

func (p *Provider) AuthCodeURL(state string, codeChallenge string) string {
	return p.oauthConfig.AuthCodeURL(
		state,
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

// ExchangeCode redeems the code, verifies the ID token and returns the
// identity it asserts.
func (p *Provider) ExchangeCode(
	ctx context.Context,
	code string,
	codeVerifier string,
) (*auth.Identity, error) {
	token, err := p.oauthConfig.Exchange(
		ctx,
		code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
	)
	if err != nil {
		return nil, fmt.Errorf("%s token exchange failed: %w", p.name, err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fmt.Errorf("%s did not return id_token", p.name)
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%s id_token verification failed: %w", p.name, err)
	}

	var claims struct {
		Subject       string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%s id_token claims parse failed: %w", p.name, err)
	}
	if claims.Subject == "" || claims.Email == "" {
		return nil, errors.New(p.name + " id_token missing required claims")
	}

	logger.Info("oidc identity verified", map[string]any{
		"provider":       p.name,
		"issuer":         idToken.Issuer,
		"email_verified": claims.EmailVerified,
		"expiry_unix":    idToken.Expiry.Unix(),
	})

	return &auth.Identity{
		Provider:       p.name,
		ProviderUserID: claims.Subject,
		Email:          claims.Email,
		EmailVerified:  claims.EmailVerified,
	}, nil
}
