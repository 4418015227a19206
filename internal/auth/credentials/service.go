package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"session-guard/internal/auth"
	"session-guard/internal/db"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyRegistered  = errors.New("credentials already exist")
)

// Service owns email/password accounts.
type Service struct {
	db *db.DB
}

func NewService(db *db.DB) *Service {
	return &Service{db: db}
}

// Register creates a new user with a password credential. An email that
// already belongs to a user, including one created through an OAuth sign-in,
// yields ErrAlreadyRegistered and nothing is written.
func (s *Service) Register(ctx context.Context, email, password string) (*auth.User, error) {
	hash, version, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	var userID uuid.UUID
	err = s.db.QueryRowContext(ctx, `
		SELECT id FROM users
		WHERE LOWER(email) = LOWER($1)
	`, email).Scan(&userID)
	if err == nil {
		return nil, ErrAlreadyRegistered
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("credentials: lookup user: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO users (email, email_verified)
		VALUES ($1, false)
		ON CONFLICT ((LOWER(email))) DO NOTHING
		RETURNING id
	`, email).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAlreadyRegistered
	}
	if err != nil {
		return nil, fmt.Errorf("credentials: create user: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO credentials (user_id, password_hash, hash_version)
		VALUES ($1, $2, $3)
	`, userID, hash, version)
	if err != nil {
		return nil, fmt.Errorf("credentials: insert: %w", err)
	}

	return &auth.User{ID: userID.String(), Email: email}, nil
}

// Authenticate checks an email/password pair. Unknown emails and wrong
// passwords both yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*auth.User, error) {
	var (
		userID       uuid.UUID
		storedEmail  string
		passwordHash string
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.email, c.password_hash
		FROM users u
		JOIN credentials c ON c.user_id = u.id
		WHERE LOWER(u.email) = LOWER($1)
	`, email).Scan(&userID, &storedEmail, &passwordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("credentials: lookup: %w", err)
	}

	if err := VerifyPassword(passwordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &auth.User{ID: userID.String(), Email: storedEmail}, nil
}
