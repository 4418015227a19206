package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"session-guard/internal/guard"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.GET("/target", mw, func(c *gin.Context) {
		if u, ok := CurrentUser(c); ok {
			c.String(http.StatusOK, u.ID)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})
	return r
}

func get(r http.Handler) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/target", nil))
	return rec
}

func TestGinRequireAuth(t *testing.T) {
	ok := newRouter(GinRequireAuth(NewAuthMiddleware(newGuard(t, stubProvider{user: alice}))))
	rec := get(ok)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", rec.Body.String())

	denied := newRouter(GinRequireAuth(NewAuthMiddleware(newGuard(t, stubProvider{}))))
	rec = get(denied)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))
	assert.NotContains(t, rec.Body.String(), "anonymous")
}

func TestGinRequireAdmin(t *testing.T) {
	rec := get(newRouter(GinRequireAdmin(NewAuthMiddleware(newGuard(t, stubProvider{user: bob})))))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestGinOptionalUser(t *testing.T) {
	rec := get(newRouter(GinOptionalUser(NewAuthMiddleware(newGuard(t, stubProvider{err: errors.New("down")})))))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())

	rec = get(newRouter(GinOptionalUser(NewAuthMiddleware(newGuard(t, stubProvider{user: alice})))))
	assert.Equal(t, "user-1", rec.Body.String())
}

func TestGinAPIRequireAuth(t *testing.T) {
	rec := get(newRouter(GinAPIRequireAuth(newGuard(t, stubProvider{}))))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Header().Get("Location"))
	assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())

	rec = get(newRouter(GinAPIRequireAuth(newGuard(t, stubProvider{user: alice}))))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", rec.Body.String())
}

func TestGinAPIRequireAdmin(t *testing.T) {
	tests := []struct {
		name     string
		provider stubProvider
		opts     []guard.Option
		code     int
	}{
		{name: "admin", provider: stubProvider{user: alice}, code: http.StatusOK},
		{name: "non-admin", provider: stubProvider{user: bob}, code: http.StatusForbidden},
		{name: "anonymous", provider: stubProvider{}, code: http.StatusUnauthorized},
		{
			name:     "non-admin when login and home share a path",
			provider: stubProvider{user: bob},
			opts:     []guard.Option{guard.WithLoginPath("/"), guard.WithHomePath("/")},
			code:     http.StatusForbidden,
		},
		{
			name:     "anonymous when login and home share a path",
			provider: stubProvider{},
			opts:     []guard.Option{guard.WithLoginPath("/"), guard.WithHomePath("/")},
			code:     http.StatusUnauthorized,
		},
		{
			name:     "enforcement disabled",
			provider: stubProvider{},
			opts:     []guard.Option{guard.WithAdminEnforcement(false)},
			code:     http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(newRouter(GinAPIRequireAdmin(newGuard(t, tt.provider, tt.opts...))))

			assert.Equal(t, tt.code, rec.Code)
			assert.Empty(t, rec.Header().Get("Location"))
		})
	}
}

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, rate.Limit(1), 2)
	r := newRouter(rl.Gin())

	assert.Equal(t, http.StatusOK, get(r).Code)
	assert.Equal(t, http.StatusOK, get(r).Code)

	rec := get(r)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestRateLimiter_Cleanup(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, rate.Limit(1), 1)
	rl.getLimiter("10.0.0.1")
	rl.limiters["10.0.0.1"].lastSeen = rl.limiters["10.0.0.1"].lastSeen.Add(-10 * rl.idle)
	rl.getLimiter("10.0.0.2")

	rl.cleanup(rl.limiters["10.0.0.2"].lastSeen)

	assert.NotContains(t, rl.limiters, "10.0.0.1")
	assert.Contains(t, rl.limiters, "10.0.0.2")
}
