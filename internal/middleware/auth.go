package middleware

import (
	"context"
	"net/http"

	"session-guard/internal/auth"
	"session-guard/internal/guard"
)

// unexported, collision-proof context key
type userContextKeyType struct{}

var userKey = userContextKeyType{}

// UserFromContext returns the user attached by the auth middleware.
func UserFromContext(ctx context.Context) (*auth.User, bool) {
	u, ok := ctx.Value(userKey).(*auth.User)
	return u, ok && u != nil
}

func withUser(ctx context.Context, u *auth.User) context.Context {
	if u == nil {
		return ctx
	}
	return context.WithValue(ctx, userKey, u)
}

// AuthMiddleware turns guard decisions into net/http responses.
type AuthMiddleware struct {
	Guard *guard.Guard
}

func NewAuthMiddleware(g *guard.Guard) *AuthMiddleware {
	return &AuthMiddleware{Guard: g}
}

func (a *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serveDecision(w, r, a.Guard.RequireAuth(r), next)
	})
}

func (a *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serveDecision(w, r, a.Guard.RequireAdmin(r), next)
	})
}

// OptionalUser attaches the user when there is one and always continues.
func (a *AuthMiddleware) OptionalUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := a.Guard.OptionalUser(r)
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), u)))
	})
}

func serveDecision(w http.ResponseWriter, r *http.Request, d guard.Decision, next http.Handler) {
	if d.Redirected() {
		http.Redirect(w, r, d.Redirect, http.StatusSeeOther)
		return
	}
	next.ServeHTTP(w, r.WithContext(withUser(r.Context(), d.User)))
}
