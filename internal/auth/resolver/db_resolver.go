package resolver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"session-guard/internal/auth"
	"session-guard/internal/db"

	"github.com/google/uuid"
)

// DBResolver resolves identities against the users and identities tables.
type DBResolver struct {
	db       *db.DB
	profiles ProfileEnsurer
}

func NewDBResolver(db *db.DB, profiles ProfileEnsurer) *DBResolver {
	return &DBResolver{db: db, profiles: profiles}
}

// Resolve looks the identity up by (provider, subject), then links it to an
// existing user with the same verified email, and otherwise creates a user.
// Every resolved user is guaranteed a profile row.
func (r *DBResolver) Resolve(ctx context.Context, identity *auth.Identity) (string, error) {
	if identity == nil {
		return "", errors.New("resolver: identity is nil")
	}

	userID, err := r.resolve(ctx, identity)
	if err != nil {
		return "", fmt.Errorf("resolver: %s: %w", identity.Provider, err)
	}

	if err := r.profiles.Ensure(ctx, userID.String()); err != nil {
		return "", err
	}
	return userID.String(), nil
}

func (r *DBResolver) resolve(ctx context.Context, identity *auth.Identity) (uuid.UUID, error) {
	var userID uuid.UUID

	err := r.db.QueryRowContext(ctx, `
		SELECT user_id
		FROM identities
		WHERE provider = $1
		  AND provider_user_id = $2
	`, identity.Provider, identity.ProviderUserID).Scan(&userID)
	if err == nil {
		return userID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, err
	}

	// Only link on a verified email, otherwise anyone could claim an account
	// by registering the address at another provider.
	if identity.EmailVerified {
		err = r.db.QueryRowContext(ctx, `
			SELECT id
			FROM users
			WHERE LOWER(email) = LOWER($1)
		`, identity.Email).Scan(&userID)
		if err == nil {
			return userID, r.link(ctx, userID, identity)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, err
		}
	}

	err = r.db.QueryRowContext(ctx, `
		INSERT INTO users (email, email_verified)
		VALUES ($1, $2)
		RETURNING id
	`, identity.Email, identity.EmailVerified).Scan(&userID)
	if err != nil {
		return uuid.Nil, err
	}

	return userID, r.link(ctx, userID, identity)
}

func (r *DBResolver) link(ctx context.Context, userID uuid.UUID, identity *auth.Identity) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO identities (user_id, provider, provider_user_id)
		VALUES ($1, $2, $3)
	`, userID, identity.Provider, identity.ProviderUserID)
	return err
}
