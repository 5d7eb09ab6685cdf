// Package httpapi is the HTTP transport: routing, middleware and the
// access-control guard in front of username-scoped resources.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"photomosaic.app/internal/auth"
	"photomosaic.app/internal/mail"
	"photomosaic.app/internal/media"
	"photomosaic.app/internal/obs"
	"photomosaic.app/internal/store/pg"
)

// ReadyProbe reports whether backing services are reachable.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// UserStore is the slice of the persistence layer the HTTP handlers touch
// directly. *pg.Store satisfies it.
type UserStore interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (pg.User, error)
	GetUser(ctx context.Context, username string) (pg.User, error)
	DeleteUser(ctx context.Context, username string) error
}

// Config carries the handler collaborators.
type Config struct {
	Auth        *auth.Service
	Users       UserStore
	Media       *media.Service
	Mailer      mail.Sender
	FrontendURL string
	ReadyProbe  ReadyProbe
	Version     string
}

// API is the HTTP layer.
type API struct {
	mux         *http.ServeMux
	auth        *auth.Service
	users       UserStore
	media       *media.Service
	mailer      mail.Sender
	frontendURL string
	readyProbe  ReadyProbe
	version     string
	now         func() time.Time
}

func New(cfg Config) *API {
	a := &API{
		mux:         http.NewServeMux(),
		auth:        cfg.Auth,
		users:       cfg.Users,
		media:       cfg.Media,
		mailer:      cfg.Mailer,
		frontendURL: cfg.FrontendURL,
		readyProbe:  cfg.ReadyProbe,
		version:     cfg.Version,
		now:         time.Now,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// account lifecycle
	a.mux.HandleFunc("/v1/register", a.handleRegister)
	a.mux.HandleFunc("/v1/login", a.handleLogin)
	a.mux.HandleFunc("/v1/validate", a.handleValidate)

	// username-scoped resources
	a.mux.HandleFunc("/v1/users/", a.handleUserResource)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	h := http.Handler(a.mux)
	h = MaxBodyBytes(h, 32<<20)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "photomosaic-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "photomosaic-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}
