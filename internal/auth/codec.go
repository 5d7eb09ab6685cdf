package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const (
	authorizationHeader = "Authorization"
	bearerScheme        = "bearer "
)

// Codec signs claims into transportable tokens and verifies them back. It is
// a pure function of (claims, secret) in one direction and (token, secret)
// in the other; the secret is loaded once at startup and never mutated.
type Codec struct {
	secret []byte
}

// NewCodec fails fast on a missing secret so the process can never start in
// a state where it would issue unsigned tokens.
func NewCodec(secret []byte) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: signing secret is required")
	}
	return &Codec{secret: secret}, nil
}

// Encode signs the claims with HS256.
func (c *Codec) Encode(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies the token and returns its claims. The material may be a
// raw token or carry a bearer scheme prefix; both normalize to the same
// token before verification.
func (c *Codec) Decode(material string) (*Claims, error) {
	raw := stripBearer(material)
	if raw == "" {
		return nil, ErrTokenMalformed
	}
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrBadSignature
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, ErrBadSignature) || errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, ErrBadSignature
		}
		return nil, ErrTokenMalformed
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenMalformed
	}
	if strings.TrimSpace(claims.Username) == "" {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

// DecodeHeader pulls the token out of an Authorization header map.
func (c *Codec) DecodeHeader(h http.Header) (*Claims, error) {
	return c.Decode(h.Get(authorizationHeader))
}

func stripBearer(material string) string {
	material = strings.TrimSpace(material)
	if len(material) >= len(bearerScheme) && strings.EqualFold(material[:len(bearerScheme)], bearerScheme) {
		material = material[len(bearerScheme):]
	}
	return strings.TrimSpace(material)
}
