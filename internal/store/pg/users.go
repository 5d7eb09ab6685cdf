package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"photomosaic.app/internal/auth"
)

// User is the profile view returned to API callers. The password hash never
// leaves the store except inside auth.Credential.
type User struct {
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Validated bool      `json:"validated"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateUser registers a new account with the default USER role, not yet
// validated. Duplicate username or email yields ErrAlreadyExists, checked
// up front the way the original directory did.
func (s *Store) CreateUser(ctx context.Context, username, email, passwordHash string) (User, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from users where username=$1 or email=$2)`,
		username, email,
	).Scan(&exists)
	if err != nil {
		return User{}, err
	}
	if exists {
		return User{}, ErrAlreadyExists
	}

	roles := []string{auth.RoleUser}
	rolesRaw, err := json.Marshal(roles)
	if err != nil {
		return User{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`insert into users(username, email, password_hash, validated, roles) values($1,$2,$3,false,$4)`,
		username, email, passwordHash, rolesRaw,
	)
	if err != nil {
		return User{}, err
	}
	return User{Username: username, Email: email, Roles: roles, CreatedAt: time.Now().UTC()}, nil
}

// GetUser returns the profile for a username.
func (s *Store) GetUser(ctx context.Context, username string) (User, error) {
	row := s.db.QueryRowContext(ctx,
		`select username, email, validated, roles, created_at from users where username=$1`, username)
	var (
		u        User
		rolesRaw []byte
	)
	if err := row.Scan(&u.Username, &u.Email, &u.Validated, &rolesRaw, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, auth.ErrUserNotFound
		}
		return User{}, err
	}
	_ = json.Unmarshal(rolesRaw, &u.Roles)
	return u, nil
}

// DeleteUser removes the account; media rows go with it via cascade.
func (s *Store) DeleteUser(ctx context.Context, username string) error {
	res, err := s.db.ExecContext(ctx, `delete from users where username=$1`, username)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

// FindCredential implements auth.Directory.
func (s *Store) FindCredential(ctx context.Context, username string) (auth.Credential, error) {
	row := s.db.QueryRowContext(ctx,
		`select username, password_hash, validated, roles from users where username=$1`, username)
	var (
		cred     auth.Credential
		rolesRaw []byte
	)
	if err := row.Scan(&cred.Username, &cred.PasswordHash, &cred.Validated, &rolesRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.Credential{}, auth.ErrUserNotFound
		}
		return auth.Credential{}, err
	}
	_ = json.Unmarshal(rolesRaw, &cred.Roles)
	return cred, nil
}

// ListRoles implements auth.Directory.
func (s *Store) ListRoles(ctx context.Context, username string) ([]string, error) {
	var rolesRaw []byte
	err := s.db.QueryRowContext(ctx,
		`select roles from users where username=$1`, username).Scan(&rolesRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	var roles []string
	_ = json.Unmarshal(rolesRaw, &roles)
	return roles, nil
}

// IsValidated implements auth.Directory.
func (s *Store) IsValidated(ctx context.Context, username string) (bool, error) {
	var validated bool
	err := s.db.QueryRowContext(ctx,
		`select validated from users where username=$1`, username).Scan(&validated)
	if errors.Is(err, sql.ErrNoRows) {
		return false, auth.ErrUserNotFound
	}
	if err != nil {
		return false, err
	}
	return validated, nil
}

// SetValidated implements auth.Directory.
func (s *Store) SetValidated(ctx context.Context, username string) error {
	res, err := s.db.ExecContext(ctx,
		`update users set validated = true where username=$1`, username)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}
