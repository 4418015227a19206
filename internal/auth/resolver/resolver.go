package resolver

import (
	"context"

	"session-guard/internal/auth"
)

// Resolver maps an external identity to an internal user ID,
// creating the user on first sign-in.
type Resolver interface {
	Resolve(ctx context.Context, identity *auth.Identity) (userID string, err error)
}

// ProfileEnsurer creates the default profile for a newly seen user.
type ProfileEnsurer interface {
	Ensure(ctx context.Context, userID string) error
}
