package routes

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"mountbreed/gateway/middleware"
)

// ReadScope is the token scope required by the query routes when
// authentication is enabled.
const ReadScope = "mountbreed:read"

type Config struct {
	ServiceName   string
	Queryer       Queryer
	Logger        *slog.Logger
	Authenticator *middleware.Authenticator
	RateLimiter   *middleware.RateLimiter
	Observability *middleware.Observability
	CORS          middleware.CORSConfig
}

// New builds the gateway handler. Health and metrics stay unauthenticated.
func New(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	name := cfg.ServiceName
	if name == "" {
		name = "mountbreed-gateway"
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.CORS))

	obs := cfg.Observability
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if obs != nil {
		r.Handle("/metrics", obs.MetricsHandler())
	}

	q := &queryRoutes{q: cfg.Queryer, logger: logger}
	r.Route("/v1/mountbreed", func(sr chi.Router) {
		if obs != nil {
			sr.Use(obs.Middleware("mountbreed"))
		}
		if cfg.RateLimiter != nil {
			sr.Use(cfg.RateLimiter.Middleware("mountbreed"))
		}
		if cfg.Authenticator != nil {
			sr.Use(cfg.Authenticator.Middleware(ReadScope))
		}
		q.mount(sr)
	})

	return otelhttp.NewHandler(r, name)
}
