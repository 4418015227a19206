package resolver

import (
	"context"
	"errors"
	"testing"

	"session-guard/internal/auth"
	"session-guard/internal/db"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingProfiles implements ProfileEnsurer for testing.
type recordingProfiles struct {
	ensured []string
	err     error
}

func (r *recordingProfiles) Ensure(_ context.Context, userID string) error {
	r.ensured = append(r.ensured, userID)
	return r.err
}

func newTestResolver(t *testing.T, profiles ProfileEnsurer) (*DBResolver, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = sqlDB.Close()
	})

	return NewDBResolver(&db.DB{DB: sqlDB}, profiles), mock
}

var identity = &auth.Identity{
	Provider:       "google",
	ProviderUserID: "sub-1",
	Email:          "alice@example.com",
	EmailVerified:  true,
}

func TestResolve_KnownIdentity(t *testing.T) {
	profiles := &recordingProfiles{}
	r, mock := newTestResolver(t, profiles)
	id := uuid.New()

	mock.ExpectQuery("FROM identities").WithArgs("google", "sub-1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(id.String()))

	got, err := r.Resolve(context.Background(), identity)

	require.NoError(t, err)
	assert.Equal(t, id.String(), got)
	assert.Equal(t, []string{id.String()}, profiles.ensured)
}

func TestResolve_LinksVerifiedEmail(t *testing.T) {
	r, mock := newTestResolver(t, &recordingProfiles{})
	id := uuid.New()

	mock.ExpectQuery("FROM identities").WillReturnRows(sqlmock.NewRows([]string{"user_id"}))
	mock.ExpectQuery("FROM users").WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))
	mock.ExpectExec("INSERT INTO identities").WithArgs(id, "google", "sub-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := r.Resolve(context.Background(), identity)

	require.NoError(t, err)
	assert.Equal(t, id.String(), got)
}

func TestResolve_CreatesUser(t *testing.T) {
	r, mock := newTestResolver(t, &recordingProfiles{})
	id := uuid.New()
	unverified := *identity
	unverified.EmailVerified = false

	mock.ExpectQuery("FROM identities").WillReturnRows(sqlmock.NewRows([]string{"user_id"}))
	mock.ExpectQuery("INSERT INTO users").WithArgs("alice@example.com", false).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))
	mock.ExpectExec("INSERT INTO identities").WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := r.Resolve(context.Background(), &unverified)

	require.NoError(t, err)
	assert.Equal(t, id.String(), got)
}

func TestResolve_Errors(t *testing.T) {
	_, err := NewDBResolver(nil, &recordingProfiles{}).Resolve(context.Background(), nil)
	assert.Error(t, err)

	r, mock := newTestResolver(t, &recordingProfiles{})
	mock.ExpectQuery("FROM identities").WillReturnError(errors.New("db down"))
	_, err = r.Resolve(context.Background(), identity)
	assert.ErrorContains(t, err, "db down")

	r, mock = newTestResolver(t, &recordingProfiles{err: errors.New("profiles down")})
	mock.ExpectQuery("FROM identities").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(uuid.NewString()))
	_, err = r.Resolve(context.Background(), identity)
	assert.ErrorContains(t, err, "profiles down")
}
