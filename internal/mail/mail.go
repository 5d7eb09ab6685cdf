// Package mail sends transactional email for account verification.
package mail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// verificationTTL is how long the emailed verification link stays usable.
const verificationTTL = 3 * time.Hour

// Sender delivers a single HTML email.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// VerificationToken carries the account name and the link deadline in
// millisecond precision, base64-encoded into the emailed URL.
type VerificationToken struct {
	Username string `json:"username"`
	ExpireAt int64  `json:"expireAt"`
}

// EncodeVerificationToken packs the token for embedding in a query string.
func EncodeVerificationToken(username string, now time.Time) (string, error) {
	raw, err := json.Marshal(VerificationToken{
		Username: username,
		ExpireAt: now.Add(verificationTTL).UnixMilli(),
	})
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeVerificationToken reverses EncodeVerificationToken.
func DecodeVerificationToken(token string) (VerificationToken, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return VerificationToken{}, fmt.Errorf("mail: decode token: %w", err)
	}
	var vt VerificationToken
	if err := json.Unmarshal(raw, &vt); err != nil {
		return VerificationToken{}, fmt.Errorf("mail: decode token: %w", err)
	}
	if vt.Username == "" {
		return VerificationToken{}, errors.New("mail: token missing username")
	}
	return vt, nil
}

// SendVerification mails the validate link for a freshly registered account.
func SendVerification(ctx context.Context, sender Sender, frontendURL, username, email string, now time.Time) error {
	token, err := EncodeVerificationToken(username, now)
	if err != nil {
		return err
	}
	body := fmt.Sprintf(`<b>HELLO %s!</b>
<p>Follow this link to verify your account</p>
<p>The link will expire in 3 hours</p>
<a href="%s/validate?token=%s">Validate</a>`, username, frontendURL, token)
	return sender.Send(ctx, email, "New Photomosaic User", body)
}
