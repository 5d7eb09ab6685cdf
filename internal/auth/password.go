package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plaintext password using bcrypt.
func HashPassword(password string) (string, error) {
	if len(password) == 0 {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword verifies a supplied password against the stored hash for the
// username. A missing record and an empty stored hash are distinct failures
// so login responses can report them separately. The comparison is
// constant-time by way of bcrypt; plaintext is never compared directly.
func CheckPassword(ctx context.Context, dir Directory, username, password string) error {
	cred, err := dir.FindCredential(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}
	if cred.PasswordHash == "" {
		return ErrEmptyPasswordHash
	}
	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) != nil {
		return ErrPasswordMismatch
	}
	return nil
}
