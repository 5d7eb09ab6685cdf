package auth

import "context"

// Credential is the read-only view of a directory record needed to
// authenticate a user.
type Credential struct {
	Username     string
	PasswordHash string
	Roles        []string
	Validated    bool
}

// Directory is the external user store this package authenticates against.
// Implementations return ErrUserNotFound when no record exists for the
// username. Consistency under concurrent access is the implementation's
// responsibility; this package only reads, plus the single SetValidated
// write during account validation.
type Directory interface {
	FindCredential(ctx context.Context, username string) (Credential, error)
	ListRoles(ctx context.Context, username string) ([]string, error)
	IsValidated(ctx context.Context, username string) (bool, error)
	SetValidated(ctx context.Context, username string) error
}
