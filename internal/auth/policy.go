package auth

import "time"

// Reason identifies why an authorization check denied access.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonTokenInvalid
	ReasonTokenExpired
	ReasonUserNotValidated
	ReasonUsernameMismatch
	ReasonInsufficientRole
)

// String returns a stable machine-readable label, used as a metric and
// audit field.
func (r Reason) String() string {
	switch r {
	case ReasonTokenInvalid:
		return "token_invalid"
	case ReasonTokenExpired:
		return "token_expired"
	case ReasonUserNotValidated:
		return "user_not_validated"
	case ReasonUsernameMismatch:
		return "username_mismatch"
	case ReasonInsufficientRole:
		return "insufficient_role"
	}
	return "none"
}

// Message returns the caller-visible denial text.
func (r Reason) Message() string {
	switch r {
	case ReasonTokenInvalid:
		return "Token invalid"
	case ReasonTokenExpired:
		return "Token expired"
	case ReasonUserNotValidated:
		return "User has not been validated"
	case ReasonUsernameMismatch:
		return "Username does not match"
	case ReasonInsufficientRole:
		return "User does not have the required roles"
	}
	return "Success"
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision        { return Decision{Allowed: true} }
func deny(r Reason) Decision { return Decision{Reason: r} }

// Decide evaluates the access rules for decoded claims (or a decode failure)
// against the resource owner and the roles the operation allows. The
// evaluation order is fixed: it determines which reason is reported when
// several conditions hold at once. The function is total — every input maps
// to Allow or a typed denial, nothing escapes as an error.
func Decide(claims *Claims, decodeErr error, username string, allowedRoles []string, now time.Time) Decision {
	allowed := normalizeAllowedRoles(allowedRoles)
	switch {
	case decodeErr != nil || claims == nil:
		return deny(ReasonTokenInvalid)
	case claims.ExpireAt < now.Unix():
		return deny(ReasonTokenExpired)
	case !claims.Validated:
		return deny(ReasonUserNotValidated)
	case claims.HasRole(RoleAdmin):
		// Admin overrides both the ownership and role checks: an admin token
		// authorizes operations on any resource owner.
		return allow()
	case username != claims.Username:
		return deny(ReasonUsernameMismatch)
	case !intersects(claims.Roles, allowed):
		return deny(ReasonInsufficientRole)
	}
	return allow()
}

// normalizeAllowedRoles defaults an absent role set to admin-only and
// guarantees ADMIN is always part of the set.
func normalizeAllowedRoles(roles []string) []string {
	out := make([]string, 0, len(roles)+1)
	for _, r := range roles {
		if r != "" {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return []string{RoleAdmin}
	}
	for _, r := range out {
		if r == RoleAdmin {
			return out
		}
	}
	return append(out, RoleAdmin)
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
