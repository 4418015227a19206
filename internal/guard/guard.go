// Package guard decides whether a request carries an authenticated session.
//
// Every check asks the configured Provider for the current user exactly once
// and returns a Decision. Callers act on the Decision themselves; the guard
// never writes to the response.
package guard

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"session-guard/internal/auth"

	"go.uber.org/zap"
)

var (
	// ErrNoSession is returned by providers when the request has no live session.
	ErrNoSession = errors.New("guard: no session")

	// ErrProviderPanic wraps a panic recovered from a provider or profile call.
	ErrProviderPanic = errors.New("guard: provider panicked")

	ErrNotAdmin             = errors.New("guard: user is not an admin")
	ErrProfileStoreRequired = errors.New("guard: admin enforcement requires a profile store")
)

// Provider looks up the user behind a request.
// A nil user with a nil error means the request is anonymous.
type Provider interface {
	CurrentUser(ctx context.Context, r *http.Request) (*auth.User, error)
}

// ProfileStore answers the admin question for a user.
type ProfileStore interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// Decision is the outcome of a guard check.
// When Redirect is set the caller must send the client there and stop.
// Forbidden marks a redirect caused by a known caller who may not pass,
// as opposed to one who still has to log in.
type Decision struct {
	User      *auth.User
	Redirect  string
	Forbidden bool
}

func (d Decision) Redirected() bool {
	return d.Redirect != ""
}

func allow(u *auth.User) Decision {
	return Decision{User: u}
}

func redirect(path string) Decision {
	return Decision{Redirect: path}
}

func forbid(path string) Decision {
	return Decision{Redirect: path, Forbidden: true}
}

type Guard struct {
	provider     Provider
	profiles     ProfileStore
	loginPath    string
	homePath     string
	enforceAdmin bool
	log          *zap.Logger
}

type Option func(*Guard)

func WithLoginPath(path string) Option {
	return func(g *Guard) { g.loginPath = path }
}

func WithHomePath(path string) Option {
	return func(g *Guard) { g.homePath = path }
}

// WithAdminEnforcement toggles the admin check. When disabled,
// RequireAdmin lets every request through.
func WithAdminEnforcement(enabled bool) Option {
	return func(g *Guard) { g.enforceAdmin = enabled }
}

func WithLogger(l *zap.Logger) Option {
	return func(g *Guard) { g.log = l }
}

// New builds a Guard. Admin enforcement is on unless disabled by option.
func New(provider Provider, profiles ProfileStore, opts ...Option) (*Guard, error) {
	if provider == nil {
		return nil, errors.New("guard: provider is nil")
	}

	g := &Guard{
		provider:     provider,
		profiles:     profiles,
		loginPath:    "/auth/login",
		homePath:     "/",
		enforceAdmin: true,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.enforceAdmin && g.profiles == nil {
		return nil, ErrProfileStoreRequired
	}

	if !g.enforceAdmin {
		g.log.Warn("admin enforcement disabled, admin routes are open to every caller")
	}

	return g, nil
}

func (g *Guard) LoginPath() string { return g.loginPath }
func (g *Guard) HomePath() string  { return g.homePath }

// RequireAuth allows the request only when the provider reports a user.
// Provider errors, panics and anonymous requests all redirect to login.
func (g *Guard) RequireAuth(r *http.Request) Decision {
	user, err := g.currentUser(r)
	if err != nil || user == nil {
		g.log.Error("auth check failed",
			zap.String("path", r.URL.Path),
			zap.Error(orNoSession(err)),
		)
		return redirect(g.loginPath)
	}
	return allow(user)
}

// RequireAdmin allows the request only for users whose profile is flagged
// admin. With enforcement disabled it returns an empty Decision for every
// request without consulting the provider.
func (g *Guard) RequireAdmin(r *http.Request) Decision {
	if !g.enforceAdmin {
		return Decision{}
	}

	user, err := g.currentUser(r)
	if errors.Is(err, ErrProviderPanic) {
		g.log.Error("admin check failed", zap.String("path", r.URL.Path), zap.Error(err))
		return forbid(g.homePath)
	}
	if err != nil || user == nil {
		g.log.Error("admin check failed",
			zap.String("path", r.URL.Path),
			zap.Error(orNoSession(err)),
		)
		return redirect(g.loginPath)
	}

	isAdmin, err := g.isAdmin(r.Context(), user.ID)
	if err == nil && !isAdmin {
		err = ErrNotAdmin
	}
	if err != nil {
		g.log.Error("admin check failed",
			zap.String("path", r.URL.Path),
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
		return forbid(g.homePath)
	}

	return allow(user)
}

// OptionalUser returns the current user, or nil when there is none or the
// lookup fails. It never redirects.
func (g *Guard) OptionalUser(r *http.Request) *auth.User {
	user, err := g.currentUser(r)
	if err != nil {
		g.log.Warn("optional auth check failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		return nil
	}
	return user
}

func (g *Guard) currentUser(r *http.Request) (user *auth.User, err error) {
	defer func() {
		if p := recover(); p != nil {
			user, err = nil, fmt.Errorf("%w: %v", ErrProviderPanic, p)
		}
	}()
	return g.provider.CurrentUser(r.Context(), r)
}

func (g *Guard) isAdmin(ctx context.Context, userID string) (ok bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			ok, err = false, fmt.Errorf("%w: %v", ErrProviderPanic, p)
		}
	}()
	return g.profiles.IsAdmin(ctx, userID)
}

func orNoSession(err error) error {
	if err == nil {
		return ErrNoSession
	}
	return err
}
