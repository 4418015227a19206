package provider

import (
	"context"

	"session-guard/internal/auth"
)

// OAuthProvider is a sign-in method behind the login surface.
// Implementations return identity facts only and never touch users or sessions.
type OAuthProvider interface {
	Name() string

	// AuthCodeURL returns the authorization URL for the given state and
	// S256 PKCE challenge.
	AuthCodeURL(state string, codeChallenge string) string

	ExchangeCode(
		ctx context.Context,
		code string,
		codeVerifier string,
	) (*auth.Identity, error)
}
