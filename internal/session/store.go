package session

import (
	"context"
	"errors"
	"time"
)

var ErrInvalidSession = errors.New("session: invalid session")

// Session points at a user; it holds no credentials.
type Session struct {
	SessionID         string    `json:"session_id"`
	UserID            string    `json:"user_id"`
	Email             string    `json:"email,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	AbsoluteExpiresAt time.Time `json:"absolute_expires_at"`
	ExpiresAt         time.Time `json:"expires_at"`
}

// Expired reports whether the session is past either of its deadlines.
func (s Session) Expired(now time.Time) bool {
	if !s.AbsoluteExpiresAt.IsZero() && now.After(s.AbsoluteExpiresAt) {
		return true
	}
	return now.After(s.ExpiresAt)
}

// Store persists sessions. Get returns (nil, nil) for an unknown ID.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Update(ctx context.Context, s Session) error
	Delete(ctx context.Context, sessionID string) error
}

// Refresh slides ExpiresAt to now+idle, never past AbsoluteExpiresAt.
// It only moves the deadline once less than half of the idle window is
// left, and reports whether it changed anything.
func (s *Session) Refresh(now time.Time, idle time.Duration) bool {
	if idle <= 0 || s.ExpiresAt.Sub(now) >= idle/2 {
		return false
	}

	next := now.Add(idle)
	if !s.AbsoluteExpiresAt.IsZero() && next.After(s.AbsoluteExpiresAt) {
		next = s.AbsoluteExpiresAt
	}
	if !next.After(s.ExpiresAt) {
		return false
	}

	s.ExpiresAt = next
	return true
}

// New builds a session for userID. It expires after idle without activity
// and after absolute no matter what.
func New(userID, email string, idle, absolute time.Duration) (Session, error) {
	id, err := GenerateID()
	if err != nil {
		return Session{}, err
	}

	now := time.Now()
	hardLimit := now.Add(absolute)
	expiry := now.Add(min(idle, absolute))

	return Session{
		SessionID:         id,
		UserID:            userID,
		Email:             email,
		CreatedAt:         now,
		AbsoluteExpiresAt: hardLimit,
		ExpiresAt:         expiry,
	}, nil
}
