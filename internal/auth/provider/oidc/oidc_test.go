package oidc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newIssuer serves just enough of an OIDC issuer for discovery and token exchange.
func newIssuer(t *testing.T, tokenResponse map[string]any) *httptest.Server {
	t.Helper()

	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                                srv.URL,
			"authorization_endpoint":                srv.URL + "/auth",
			"token_endpoint":                        srv.URL + "/token",
			"jwks_uri":                              srv.URL + "/keys",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "verifier-123", r.PostForm.Get("code_verifier"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(tokenResponse)
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestConfigComplete(t *testing.T) {
	full := Config{Name: "google", Issuer: "https://accounts.google.com", ClientID: "id", RedirectURL: "https://app/cb"}
	assert.True(t, full.Complete())

	missing := full
	missing.ClientID = ""
	assert.False(t, missing.Complete())
}

func TestNew_Incomplete(t *testing.T) {
	p, err := New(context.Background(), Config{Name: "keycloak"})

	assert.Nil(t, p)
	assert.Error(t, err)
}

func TestAuthCodeURL(t *testing.T) {
	issuer := newIssuer(t, nil)

	p, err := New(context.Background(), Config{
		Name:        "keycloak",
		Issuer:      issuer.URL,
		ClientID:    "guard",
		RedirectURL: "https://app.example.com/oauth/callback/keycloak",
	})
	require.NoError(t, err)
	assert.Equal(t, "keycloak", p.Name())

	u, err := url.Parse(p.AuthCodeURL("state-1", "challenge-1"))
	require.NoError(t, err)

	assert.Equal(t, "/auth", u.Path)
	q := u.Query()
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "challenge-1", q.Get("code_challenge"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, "guard", q.Get("client_id"))
	assert.Contains(t, q.Get("scope"), "openid")
}

func TestAuthCodeURL_PublicOverride(t *testing.T) {
	issuer := newIssuer(t, nil)

	p, err := New(context.Background(), Config{
		Name:          "keycloak",
		Issuer:        issuer.URL,
		ClientID:      "guard",
		RedirectURL:   "https://app.example.com/cb",
		PublicAuthURL: "https://login.example.com/realms/app/protocol/openid-connect/auth",
	})
	require.NoError(t, err)

	u, err := url.Parse(p.AuthCodeURL("s", "c"))
	require.NoError(t, err)
	assert.Equal(t, "login.example.com", u.Host)
}

func TestExchangeCode_MissingIDToken(t *testing.T) {
	issuer := newIssuer(t, map[string]any{
		"access_token": "at",
		"token_type":   "Bearer",
		"expires_in":   3600,
	})

	p, err := New(context.Background(), Config{
		Name:        "google",
		Issuer:      issuer.URL,
		ClientID:    "guard",
		RedirectURL: "https://app.example.com/cb",
	})
	require.NoError(t, err)

	identity, err := p.ExchangeCode(context.Background(), "code-1", "verifier-123")

	assert.Nil(t, identity)
	assert.ErrorContains(t, err, "did not return id_token")
}
