// Package kratos looks up the current user through an Ory Kratos
// public API by forwarding the browser's cookies.
package kratos

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"session-guard/internal/auth"
	"session-guard/internal/guard"

	kratos "github.com/ory/kratos-client-go"
)

var (
	ErrUnavailable     = errors.New("kratos: identity provider unavailable")
	ErrMissingIdentity = errors.New("kratos: session has no identity")
)

type Provider struct {
	client  *kratos.APIClient
	timeout time.Duration
}

// New creates a provider for the Kratos public API at baseURL.
func New(baseURL string, timeout time.Duration) *Provider {
	configuration := kratos.NewConfiguration()
	configuration.Servers = []kratos.ServerConfiguration{
		{URL: baseURL},
	}
	configuration.HTTPClient = &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &Provider{
		client:  kratos.NewAPIClient(configuration),
		timeout: timeout,
	}
}

func (p *Provider) CurrentUser(ctx context.Context, r *http.Request) (*auth.User, error) {
	cookie := cookieHeader(r)
	if cookie == "" {
		return nil, guard.ErrNoSession
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	sess, resp, err := p.client.FrontendAPI.ToSession(ctx).Cookie(cookie).Execute()
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
				return nil, guard.ErrNoSession
			}
			return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if sess.Active != nil && !*sess.Active {
		return nil, guard.ErrNoSession
	}
	if sess.Identity == nil {
		return nil, ErrMissingIdentity
	}

	return &auth.User{
		ID:    sess.Identity.Id,
		Email: traitEmail(sess.Identity.Traits),
	}, nil
}

func traitEmail(traits any) string {
	m, ok := traits.(map[string]any)
	if !ok {
		return ""
	}
	email, _ := m["email"].(string)
	return email
}

// cookieHeader folds every Cookie header into one. HTTP/2 clients may send
// each cookie as its own header field.
func cookieHeader(r *http.Request) string {
	return strings.Join(r.Header.Values("Cookie"), "; ")
}
