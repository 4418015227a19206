package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"session-guard/internal/db"
)

var ErrNotFound = errors.New("profile: not found")

// Store reads and writes the profiles table.
type Store struct {
	db *db.DB
}

func NewStore(db *db.DB) *Store {
	return &Store{db: db}
}

// IsAdmin reports the is_admin flag for userID.
// A user without a profile row yields ErrNotFound.
func (s *Store) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var isAdmin bool
	err := s.db.QueryRowContext(ctx, `
		SELECT is_admin
		FROM profiles
		WHERE id = $1
	`, userID).Scan(&isAdmin)

	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("profile: lookup %s: %w", userID, err)
	}

	return isAdmin, nil
}

// Ensure creates a non-admin profile for userID if none exists.
func (s *Store) Ensure(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id)
		VALUES ($1)
		ON CONFLICT (id) DO NOTHING
	`, userID)
	if err != nil {
		return fmt.Errorf("profile: ensure %s: %w", userID, err)
	}
	return nil
}

// SetAdmin upserts the profile with the given admin flag.
func (s *Store) SetAdmin(ctx context.Context, userID string, isAdmin bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, is_admin)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE
		SET is_admin = EXCLUDED.is_admin, updated_at = NOW()
	`, userID, isAdmin)
	if err != nil {
		return fmt.Errorf("profile: set admin %s: %w", userID, err)
	}
	return nil
}
