package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"photomosaic.app/internal/audit"
	"photomosaic.app/internal/auth"
	"photomosaic.app/internal/mail"
	"photomosaic.app/internal/store/pg"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	token, err := a.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		a.credentialFailure(w, r, "auth.login.failed", req.Username, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{"user": req.Username})
	writeJSON(w, http.StatusOK, tokenResponse{
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(a.auth.TTL()),
	})
}

func (a *API) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	token, err := a.auth.ValidateAccount(r.Context(), req.Username, req.Password)
	if err != nil {
		a.credentialFailure(w, r, "auth.validate.failed", req.Username, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.validated", map[string]any{"user": req.Username})
	writeJSON(w, http.StatusOK, tokenResponse{
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(a.auth.TTL()),
	})
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "username, email and password are required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "could not process password")
		return
	}
	user, err := a.users.CreateUser(r.Context(), req.Username, req.Email, hash)
	if err != nil {
		if errors.Is(err, pg.ErrAlreadyExists) {
			writeError(w, r, http.StatusConflict, "username or email already taken")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "registration failed")
		return
	}

	if err := mail.SendVerification(r.Context(), a.mailer, a.frontendURL, user.Username, user.Email, a.now()); err != nil {
		writeError(w, r, http.StatusBadGateway, "could not send verification email")
		return
	}
	_ = audit.LogEvent(r.Context(), "user.registered", map[string]any{"user": user.Username})
	writeJSON(w, http.StatusOK, map[string]any{"message": "sent email"})
}

// credentialFailure maps password-check errors to the caller-visible 401
// texts and audits the attempt. Unexpected store errors become 500s.
func (a *API) credentialFailure(w http.ResponseWriter, r *http.Request, event, username string, err error) {
	if !errors.Is(err, auth.ErrUserNotFound) &&
		!errors.Is(err, auth.ErrEmptyPasswordHash) &&
		!errors.Is(err, auth.ErrPasswordMismatch) {
		writeError(w, r, http.StatusInternalServerError, "authentication error")
		return
	}
	msg := auth.CredentialMessage(err)
	_ = audit.LogEvent(r.Context(), event, map[string]any{"user": username, "error": msg})
	writeError(w, r, http.StatusUnauthorized, msg)
}
