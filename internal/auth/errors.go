package auth

import "errors"

// Credential failures. Surfaced as 401 responses at the login and
// account-validation boundaries.
var (
	ErrUserNotFound      = errors.New("auth: user not found")
	ErrEmptyPasswordHash = errors.New("auth: password cannot be empty")
	ErrPasswordMismatch  = errors.New("auth: password mismatch")
)

// Decode failures. The policy folds both into a TokenInvalid denial; the
// split exists so logs can tell a tampered token from a garbled one.
var (
	ErrTokenMalformed = errors.New("auth: malformed token")
	ErrBadSignature   = errors.New("auth: bad token signature")
)

// CredentialMessage returns the caller-visible text for a credential error.
func CredentialMessage(err error) string {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return "User not found"
	case errors.Is(err, ErrEmptyPasswordHash):
		return "Password cannot be empty"
	case errors.Is(err, ErrPasswordMismatch):
		return "Failure"
	}
	return "authentication failed"
}
