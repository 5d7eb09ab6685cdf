package httpapi

import (
	"net/http"

	"photomosaic.app/internal/audit"
	"photomosaic.app/internal/auth"
	"photomosaic.app/internal/obs"
)

// ownerHandler serves a resource scoped to a single account.
type ownerHandler func(w http.ResponseWriter, r *http.Request, username string)

// guard wraps an ownerHandler with the token check: the bearer token must
// belong to the resource owner or carry one of the allowed roles. Admins
// pass regardless of ownership. With no roles listed the resource is
// admin-only. Every denial is counted and audited.
func (a *API) guard(next ownerHandler, allowedRoles ...string) ownerHandler {
	return func(w http.ResponseWriter, r *http.Request, username string) {
		claims, err := a.auth.Codec().DecodeHeader(r.Header)
		decision := auth.Decide(claims, err, username, allowedRoles, a.now())
		obs.ObserveAuthDecision(decision.Allowed, decision.Reason.String())
		if !decision.Allowed {
			_ = audit.LogEvent(r.Context(), "auth.denied", map[string]any{
				"path":   r.URL.Path,
				"owner":  username,
				"reason": decision.Reason.String(),
			})
			writeError(w, r, http.StatusForbidden, decision.Reason.Message())
			return
		}
		ctx := auth.ContextWithClaims(r.Context(), *claims)
		next(w, r.WithContext(ctx), username)
	}
}
