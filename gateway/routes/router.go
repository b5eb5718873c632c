package routes

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"nanowallet/config"
	"nanowallet/core/types"
	"nanowallet/gateway/middleware"
	"nanowallet/store"
)

// WriteScope is required on every route that mutates wallet state.
const WriteScope = "wallet:write"

// StateStore is the slice of the store the gateway reads and dispatches to.
type StateStore interface {
	GetState() store.State
	Dispatch(action store.Action)
	Subscribe(ctx context.Context, cursor string) (<-chan store.Update, func(), []store.Update, error)
}

// Session performs the account workflows that return a result to the caller.
type Session interface {
	Login(ctx context.Context, publicKey string) (*types.Account, error)
	Logout()
	SubmitPending(tx types.Transaction) error
}

// Preferences persists user choices across restarts.
type Preferences interface {
	SetDefaultNetwork(network string) error
	SetLastAddress(address string) error
}

type Config struct {
	Store         StateStore
	Session       Session
	Networks      config.Networks
	Preferences   Preferences
	Authenticator *middleware.Authenticator
	RateLimiter   *middleware.RateLimiter
	RateLimitKey  string
	Observability *middleware.Observability
	CORS          middleware.CORSConfig
	Logger        *slog.Logger
}

type handlers struct {
	store    StateStore
	session  Session
	networks config.Networks
	prefs    Preferences
	logger   *slog.Logger
}

func New(cfg Config) (http.Handler, error) {
	if cfg.Store == nil {
		return nil, errors.New("routes: store required")
	}
	if cfg.Session == nil {
		return nil, errors.New("routes: session required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	networks := cfg.Networks
	if networks == nil {
		networks = config.DefaultNetworks()
	}
	h := &handlers{
		store:    cfg.Store,
		session:  cfg.Session,
		networks: networks,
		prefs:    cfg.Preferences,
		logger:   logger.With("component", "gateway"),
	}

	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.CORS))

	obs := cfg.Observability
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if obs != nil {
		r.Handle("/metrics", obs.MetricsHandler())
	}

	r.Route("/v1", func(v chi.Router) {
		if cfg.RateLimiter != nil && cfg.RateLimitKey != "" {
			v.Use(cfg.RateLimiter.Middleware(cfg.RateLimitKey))
		}
		if obs != nil {
			v.Use(obs.Middleware("v1"))
		}
		v.Get("/state", h.getState)
		v.Get("/networks", h.listNetworks)
		v.Get("/stream", h.stream)
		v.Get("/transactions/export", h.exportTransactions)
		v.Get("/transactions/{id}", h.getTransaction)
		v.Handle("/peer/*", otelhttp.NewHandler(newPeerProxy(cfg.Store, logger), "peer-proxy"))

		v.Group(func(w chi.Router) {
			if cfg.Authenticator != nil {
				w.Use(cfg.Authenticator.Middleware(WriteScope))
			}
			w.Post("/session", h.login)
			w.Delete("/session", h.logout)
			w.Put("/network", h.setNetwork)
			w.Post("/accounts/{address}/transactions/init", h.initTransactions)
			w.Post("/transactions/filter", h.setFilter)
			w.Post("/transactions/pending", h.submitPending)
			w.Post("/transactions/refresh", h.refresh)
			w.Post("/transactions/{id}/load", h.loadTransaction)
		})
	})

	return r, nil
}
