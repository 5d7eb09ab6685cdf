package auth

import "github.com/golang-jwt/jwt/v5"

// Role values carried in tokens and directory records. Matching is exact;
// roles are stored uppercase.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// Claims is a snapshot of directory state taken at issuance time. Role or
// validation changes made afterwards do not take effect until a new token
// is issued; verification never re-reads the directory.
type Claims struct {
	Username  string   `json:"username"`
	Roles     []string `json:"roles"`
	Validated bool     `json:"validated"`
	ExpireAt  int64    `json:"expire_at"`
}

// HasRole reports whether the claims carry the given role.
func (c Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Expiry lives in the custom expire_at claim and is enforced by the
// authorization policy, not by the JWT library. Returning nil here keeps the
// parser from rejecting expired tokens, so TokenExpired stays distinguishable
// from a decode failure.
func (c Claims) GetExpirationTime() (*jwt.NumericDate, error) { return nil, nil }

func (c Claims) GetIssuedAt() (*jwt.NumericDate, error)  { return nil, nil }
func (c Claims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }
func (c Claims) GetIssuer() (string, error)              { return "", nil }
func (c Claims) GetSubject() (string, error)             { return c.Username, nil }
func (c Claims) GetAudience() (jwt.ClaimStrings, error)  { return nil, nil }
