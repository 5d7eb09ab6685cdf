package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeDirectory is an in-memory user directory for service tests.
type fakeDirectory struct {
	records map[string]*Credential
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{records: make(map[string]*Credential)}
}

func (d *fakeDirectory) add(username, password string, validated bool, roles ...string) {
	hash := ""
	if password != "" {
		h, err := HashPassword(password)
		if err != nil {
			panic(err)
		}
		hash = h
	}
	d.records[username] = &Credential{
		Username:     username,
		PasswordHash: hash,
		Roles:        roles,
		Validated:    validated,
	}
}

func (d *fakeDirectory) FindCredential(ctx context.Context, username string) (Credential, error) {
	rec, ok := d.records[username]
	if !ok {
		return Credential{}, ErrUserNotFound
	}
	return *rec, nil
}

func (d *fakeDirectory) ListRoles(ctx context.Context, username string) ([]string, error) {
	rec, ok := d.records[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return rec.Roles, nil
}

func (d *fakeDirectory) IsValidated(ctx context.Context, username string) (bool, error) {
	rec, ok := d.records[username]
	if !ok {
		return false, ErrUserNotFound
	}
	return rec.Validated, nil
}

func (d *fakeDirectory) SetValidated(ctx context.Context, username string) error {
	rec, ok := d.records[username]
	if !ok {
		return ErrUserNotFound
	}
	rec.Validated = true
	return nil
}

func newTestService(t *testing.T, dir Directory, clock *time.Time) *Service {
	t.Helper()
	svc, err := NewService(Config{Secret: []byte("service-test-secret")}, dir,
		WithClock(func() time.Time { return *clock }))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestLoginCredentialFailures(t *testing.T) {
	dir := newFakeDirectory()
	dir.add("bob", "pw", true, RoleUser)
	dir.add("hollow", "", true, RoleUser)
	clock := time.Now()
	svc := newTestService(t, dir, &clock)
	ctx := context.Background()

	if _, err := svc.Login(ctx, "nobody", "pw"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := svc.Login(ctx, "hollow", "pw"); !errors.Is(err, ErrEmptyPasswordHash) {
		t.Fatalf("expected ErrEmptyPasswordHash, got %v", err)
	}
	if _, err := svc.Login(ctx, "bob", "wrong"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestLoginIssuesSnapshotToken(t *testing.T) {
	dir := newFakeDirectory()
	dir.add("bob", "pw", true, RoleUser)
	clock := time.Now()
	svc := newTestService(t, dir, &clock)

	token, err := svc.Login(context.Background(), "bob", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := svc.Codec().Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if claims.Username != "bob" || !claims.Validated {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if want := clock.Add(DefaultTTL).Unix(); claims.ExpireAt != want {
		t.Fatalf("expire_at = %d, want %d", claims.ExpireAt, want)
	}
}

func TestValidateAccountFlipsFlagBeforeIssuing(t *testing.T) {
	dir := newFakeDirectory()
	dir.add("carol", "pw", false, RoleUser)
	clock := time.Now()
	svc := newTestService(t, dir, &clock)
	ctx := context.Background()

	// Before validation the issued token is denied by the policy.
	token, err := svc.Login(ctx, "carol", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if d := svc.Authorize(token, "carol", RoleUser); d.Allowed || d.Reason != ReasonUserNotValidated {
		t.Fatalf("expected UserNotValidated before validation, got %+v", d)
	}

	token, err = svc.ValidateAccount(ctx, "carol", "pw")
	if err != nil {
		t.Fatalf("ValidateAccount: %v", err)
	}
	claims, err := svc.Codec().Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !claims.Validated {
		t.Fatalf("token issued by ValidateAccount must carry validated=true")
	}
	if d := svc.Authorize(token, "carol", RoleUser); !d.Allowed {
		t.Fatalf("expected allow after validation, got %+v", d)
	}
}

func TestAuthorizeEndToEnd(t *testing.T) {
	dir := newFakeDirectory()
	dir.add("bob", "pw", true, RoleUser)
	clock := time.Now()
	svc := newTestService(t, dir, &clock)

	token, err := svc.Login(context.Background(), "bob", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if d := svc.Authorize(token, "bob", RoleUser); !d.Allowed {
		t.Fatalf("expected allow for owner, got %+v", d)
	}
	if d := svc.Authorize("Bearer "+token, "bob", RoleUser); !d.Allowed {
		t.Fatalf("expected allow with bearer prefix, got %+v", d)
	}
	if d := svc.Authorize(token, "carol", RoleUser); d.Allowed || d.Reason != ReasonUsernameMismatch {
		t.Fatalf("expected UsernameMismatch for carol, got %+v", d)
	}

	// Single role and one-element role list behave identically.
	one := svc.Authorize(token, "bob", RoleUser)
	list := svc.Authorize(token, "bob", []string{RoleUser}...)
	if one != list {
		t.Fatalf("single role and one-element list diverged: %+v vs %+v", one, list)
	}

	// Advance the clock past expiry.
	clock = clock.Add(DefaultTTL + time.Second)
	if d := svc.Authorize(token, "bob", RoleUser); d.Allowed || d.Reason != ReasonTokenExpired {
		t.Fatalf("expected TokenExpired after clock advance, got %+v", d)
	}
}

func TestIssueTokenMissingRecordFailsClosed(t *testing.T) {
	dir := newFakeDirectory()
	clock := time.Now()
	svc := newTestService(t, dir, &clock)

	// No directory record: token still issues, but with empty roles and
	// validated=false, so every authorization check denies it.
	token, err := svc.IssueToken(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if d := svc.Authorize(token, "ghost", RoleUser); d.Allowed || d.Reason != ReasonUserNotValidated {
		t.Fatalf("expected fail-closed denial, got %+v", d)
	}
}
