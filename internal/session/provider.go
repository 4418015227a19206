package session

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"session-guard/internal/auth"
	"session-guard/internal/guard"
	"session-guard/internal/logger"
)

// Provider resolves the current user from the session cookie and the store.
// Each successful lookup may slide the session's idle deadline forward.
type Provider struct {
	store Store
	idle  time.Duration
	now   func() time.Time
}

func NewProvider(store Store, idle time.Duration) *Provider {
	return &Provider{store: store, idle: idle, now: time.Now}
}

func (p *Provider) CurrentUser(ctx context.Context, r *http.Request) (*auth.User, error) {
	sessionID, ok := ReadCookie(r)
	if !ok {
		return nil, guard.ErrNoSession
	}

	sess, err := p.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("session: load: %w", err)
	}
	if sess == nil {
		return nil, guard.ErrNoSession
	}

	now := p.now()
	if sess.Expired(now) {
		if err := p.store.Delete(ctx, sessionID); err != nil {
			logger.Warn("failed to delete expired session", map[string]any{
				"user_id": sess.UserID,
				"error":   err.Error(),
			})
		}
		return nil, guard.ErrNoSession
	}

	if sess.Refresh(now, p.idle) {
		if err := p.store.Update(ctx, *sess); err != nil {
			logger.Warn("failed to extend session", map[string]any{
				"user_id": sess.UserID,
				"error":   err.Error(),
			})
		}
	}

	return &auth.User{ID: sess.UserID, Email: sess.Email}, nil
}
