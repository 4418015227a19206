package session

import (
	"net/http"
	"time"
)

// CookieName uses the __Host- prefix, so the cookie must be Secure,
// host-only and scoped to "/" in production.
const CookieName = "__Host-session"

type CookieOptions struct {
	Path     string
	Secure   bool
	SameSite http.SameSite
}

func (o CookieOptions) normalize() CookieOptions {
	if o.Path == "" {
		o.Path = "/"
	}
	if o.SameSite == 0 {
		o.SameSite = http.SameSiteLaxMode
	}
	return o
}

// SetCookie issues the session cookie. It is always HttpOnly.
func SetCookie(w http.ResponseWriter, s Session, opts CookieOptions) {
	opts = opts.normalize()

	// The store enforces the idle deadline; the cookie only needs to
	// outlive the session's hard limit.
	deadline := s.AbsoluteExpiresAt
	if deadline.IsZero() {
		deadline = s.ExpiresAt
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.SessionID,
		Path:     opts.Path,
		Expires:  deadline,
		MaxAge:   int(time.Until(deadline).Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
}

// ClearCookie removes the session cookie from the client.
func ClearCookie(w http.ResponseWriter, opts CookieOptions) {
	opts = opts.normalize()

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     opts.Path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
}

// ReadCookie returns the session ID carried by the request, if any.
func ReadCookie(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}
