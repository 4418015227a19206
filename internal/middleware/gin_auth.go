package middleware

import (
	"net/http"

	"session-guard/internal/auth"
	"session-guard/internal/guard"

	"github.com/gin-gonic/gin"
)

// UserKey is the gin context key holding the *auth.User.
const UserKey = "user"

// CurrentUser returns the user a guard handler stored on the gin context.
func CurrentUser(c *gin.Context) (*auth.User, bool) {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*auth.User)
	return u, ok && u != nil
}

// GinRequireAuth adapts the net/http RequireAuth middleware to gin page routes.
func GinRequireAuth(a *AuthMiddleware) gin.HandlerFunc {
	return bridge(a.RequireAuth)
}

// GinRequireAdmin adapts the net/http RequireAdmin middleware to gin page routes.
func GinRequireAdmin(a *AuthMiddleware) gin.HandlerFunc {
	return bridge(a.RequireAdmin)
}

// GinOptionalUser adapts the net/http OptionalUser middleware to gin.
func GinOptionalUser(a *AuthMiddleware) gin.HandlerFunc {
	return bridge(a.OptionalUser)
}

func bridge(mw func(http.Handler) http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Bridge handler to allow net/http middleware execution
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.Request = r
			if u, ok := UserFromContext(r.Context()); ok {
				c.Set(UserKey, u)
			}
			c.Next()
		})

		mw(next).ServeHTTP(c.Writer, c.Request)

		// The middleware answered without calling next.
		if c.Writer.Written() {
			c.Abort()
		}
	}
}

// GinAPIRequireAuth is RequireAuth for JSON routes: a redirect becomes 401.
func GinAPIRequireAuth(g *guard.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := g.RequireAuth(c.Request)
		if d.Redirected() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		setUser(c, d.User)
		c.Next()
	}
}

// GinAPIRequireAdmin is RequireAdmin for JSON routes. A forbidden decision
// becomes 403 and any other redirect becomes 401.
func GinAPIRequireAdmin(g *guard.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := g.RequireAdmin(c.Request)
		switch {
		case !d.Redirected():
			setUser(c, d.User)
			c.Next()
		case d.Forbidden:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		}
	}
}

func setUser(c *gin.Context, u *auth.User) {
	if u == nil {
		return
	}
	c.Set(UserKey, u)
	c.Request = c.Request.WithContext(withUser(c.Request.Context(), u))
}
