package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"photomosaic.app/internal/auth"
)

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestLoginIssuesToken(t *testing.T) {
	env := newTestEnv()
	env.dir.add("bob", "secret", []string{auth.RoleUser}, true)

	rr := postJSON(t, env.handler, "/v1/login", `{"username":"bob","password":"secret"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var resp tokenResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("empty token")
	}
	claims, err := env.api.auth.Codec().Decode(resp.Token)
	if err != nil {
		t.Fatalf("decode issued token: %v", err)
	}
	if claims.Username != "bob" || !claims.Validated {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	env := newTestEnv()

	rr := postJSON(t, env.handler, "/v1/login", `{"username":"ghost","password":"x"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	var body map[string]any
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	if body["message"] != "User not found" {
		t.Fatalf("message = %v", body["message"])
	}
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv()
	env.dir.add("bob", "secret", []string{auth.RoleUser}, true)

	rr := postJSON(t, env.handler, "/v1/login", `{"username":"bob","password":"nope"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	var body map[string]any
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	if body["message"] != "Failure" {
		t.Fatalf("message = %v", body["message"])
	}
}

func TestValidateFlipsAccountFlag(t *testing.T) {
	env := newTestEnv()
	env.dir.add("bob", "secret", []string{auth.RoleUser}, false)

	rr := postJSON(t, env.handler, "/v1/validate", `{"username":"bob","password":"secret"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var resp tokenResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	claims, err := env.api.auth.Codec().Decode(resp.Token)
	if err != nil {
		t.Fatalf("decode issued token: %v", err)
	}
	if !claims.Validated {
		t.Fatalf("token must carry validated=true after account validation")
	}
	if !env.dir.creds["bob"].Validated {
		t.Fatalf("directory flag not updated")
	}
}

func TestRegisterSendsVerificationMail(t *testing.T) {
	env := newTestEnv()

	rr := postJSON(t, env.handler, "/v1/register",
		`{"username":"alice","email":"alice@example.com","password":"pw"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if env.mailer.sent != 1 || env.mailer.to != "alice@example.com" {
		t.Fatalf("verification mail not sent: %+v", env.mailer)
	}
	if !strings.Contains(env.mailer.body, "/validate?token=") {
		t.Fatalf("mail body missing validate link: %s", env.mailer.body)
	}
	if _, ok := env.users.users["alice"]; !ok {
		t.Fatalf("user row missing")
	}
}

func TestRegisterDuplicateConflicts(t *testing.T) {
	env := newTestEnv()

	first := postJSON(t, env.handler, "/v1/register",
		`{"username":"alice","email":"alice@example.com","password":"pw"}`)
	if first.Code != http.StatusOK {
		t.Fatalf("first register: %d", first.Code)
	}
	second := postJSON(t, env.handler, "/v1/register",
		`{"username":"alice","email":"other@example.com","password":"pw"}`)
	if second.Code != http.StatusConflict {
		t.Fatalf("duplicate register status = %d, want 409", second.Code)
	}
}

func TestRegisterRequiresFields(t *testing.T) {
	env := newTestEnv()

	rr := postJSON(t, env.handler, "/v1/register", `{"username":"","email":"","password":""}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestLoginRejectsGet(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/v1/login", nil)
	rr := httptest.NewRecorder()
	env.handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rr.Code)
	}
	if allow := rr.Header().Get("Allow"); allow != http.MethodPost {
		t.Fatalf("Allow = %q", allow)
	}
}
