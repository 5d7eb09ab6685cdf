package auth

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// DefaultTTL is the fixed lifetime added to issuance time when no TTL is
// configured.
const DefaultTTL = 3600 * time.Second

// Config carries the immutable process-wide auth settings. It is built once
// during startup and passed by injection; there is no ambient global.
type Config struct {
	Secret []byte
	TTL    time.Duration
}

// Service orchestrates password verification, token issuance and
// authorization checks. It holds no per-request mutable state, so concurrent
// calls are independent; the only blocking work is the directory read (and
// the single validated-flag write).
type Service struct {
	codec *Codec
	dir   Directory
	ttl   time.Duration
	now   func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the service. A missing secret is a configuration
// error and aborts startup rather than degrading to unsigned tokens.
func NewService(cfg Config, dir Directory, opts ...ServiceOption) (*Service, error) {
	codec, err := NewCodec(cfg.Secret)
	if err != nil {
		return nil, err
	}
	if dir == nil {
		return nil, errors.New("auth: directory is required")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Service{codec: codec, dir: dir, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Codec exposes the token codec for transports that only need to decode.
func (s *Service) Codec() *Codec { return s.codec }

// TTL returns the configured token lifetime.
func (s *Service) TTL() time.Duration { return s.ttl }

// IssueToken builds a claims snapshot for the user and signs it. A missing
// directory record yields empty roles and validated=false; the policy denies
// such tokens downstream, so issuance itself has no failure path beyond
// signing.
func (s *Service) IssueToken(ctx context.Context, username string) (string, error) {
	roles, err := s.dir.ListRoles(ctx, username)
	if err != nil {
		roles = nil
	}
	validated, err := s.dir.IsValidated(ctx, username)
	if err != nil {
		validated = false
	}
	return s.codec.Encode(Claims{
		Username:  username,
		Roles:     roles,
		Validated: validated,
		ExpireAt:  s.now().Add(s.ttl).Unix(),
	})
}

// Login verifies the credentials and returns a fresh token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	if err := CheckPassword(ctx, s.dir, username, password); err != nil {
		return "", err
	}
	return s.IssueToken(ctx, username)
}

// ValidateAccount marks the account validated after a successful password
// check, then issues a token whose validated claim reflects the update.
func (s *Service) ValidateAccount(ctx context.Context, username, password string) (string, error) {
	if err := CheckPassword(ctx, s.dir, username, password); err != nil {
		return "", err
	}
	if err := s.dir.SetValidated(ctx, username); err != nil {
		return "", err
	}
	return s.IssueToken(ctx, username)
}

// Authorize decodes the presented token material and applies the access
// policy for the given resource owner. Passing no allowed roles restricts
// the operation to admins; a single role may be passed directly thanks to
// the variadic parameter. The check never reaches the directory — claims
// are self-contained.
func (s *Service) Authorize(material, username string, allowedRoles ...string) Decision {
	claims, err := s.codec.Decode(material)
	return Decide(claims, err, username, allowedRoles, s.now())
}

// AuthorizeHeader is Authorize for callers holding a header map.
func (s *Service) AuthorizeHeader(h http.Header, username string, allowedRoles ...string) Decision {
	return s.Authorize(h.Get(authorizationHeader), username, allowedRoles...)
}
