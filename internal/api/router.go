package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/OmarEhab007/dhscanner-orchestrator/internal/api/middleware"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/config"
)

// RouterConfig holds every dependency the ingress router needs to wire up
// one mux subrouter per approved URL slug (§4.5, §6). Handler fields left
// nil fall back to a 501 stub, so the router can be built incrementally.
type RouterConfig struct {
	// AllowedOrigins for CORS. Use ["*"] during development.
	AllowedOrigins []string

	// ApprovedURLs is the (slug, bearer token) list loaded from
	// config.Load: every client is routed through exactly one slug and
	// must present that slug's exact token.
	ApprovedURLs []config.ApprovedURL

	// Limiter backs per-IP, per-slug rate limiting on the endpoints the
	// spec assigns a rate to (getjobid, upload, analyze).
	Limiter middleware.Limiter

	// Handlers, shared across every approved-URL slug -----------------

	JobIDHandler  http.Handler // GET  /api/<slug>/getjobid
	UploadHandler http.Handler // POST /api/<slug>/upload
	AnalyzeHandler http.Handler // POST /api/<slug>/analyze
	StatusHandler  http.Handler // POST /api/<slug>/status
	ResultsHandler http.Handler // POST /api/<slug>/results

	// Supplementary (non-replacing) endpoints.
	WSHandler      http.Handler // GET  /api/<slug>/ws
	SearchHandler  http.Handler // GET  /api/<slug>/search
	ExplainHandler http.Handler // POST /api/<slug>/results/explain
}

// NewRouter builds a fully-configured *mux.Router: global middleware, then
// one authenticated+rate-limited subrouter per approved URL slug exposing
// the ingress surface of §6.
func NewRouter(cfg RouterConfig) *mux.Router {
	r := mux.NewRouter()

	// ---- Global middleware (applied to every route) -----------------------
	// Order matters: outermost runs first.
	r.Use(middleware.RecoveryMiddleware)
	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middleware.BodyLimitMiddleware)

	for _, approved := range cfg.ApprovedURLs {
		mountApprovedURL(r, cfg, approved)
	}

	return r
}

func mountApprovedURL(r *mux.Router, cfg RouterConfig, approved config.ApprovedURL) {
	sub := r.PathPrefix("/api/" + approved.Slug).Subrouter()

	auth := middleware.NewAuthMiddleware(approved.Slug, approved.Token)
	sub.Use(auth.Authenticate)

	limited := func(limit int, window time.Duration) mux.MiddlewareFunc {
		if cfg.Limiter == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return middleware.RateLimitMiddleware(cfg.Limiter, limit, window)
	}

	getJobID := sub.NewRoute().Subrouter()
	getJobID.Use(limited(100, time.Minute))
	getJobID.Handle("/getjobid", handlerOrStub(cfg.JobIDHandler)).Methods(http.MethodGet, http.MethodOptions)

	upload := sub.NewRoute().Subrouter()
	upload.Use(limited(1000, time.Second))
	upload.Handle("/upload", handlerOrStub(cfg.UploadHandler)).Methods(http.MethodPost, http.MethodOptions)

	analyze := sub.NewRoute().Subrouter()
	analyze.Use(limited(100, time.Minute))
	analyze.Handle("/analyze", handlerOrStub(cfg.AnalyzeHandler)).Methods(http.MethodPost, http.MethodOptions)

	sub.Handle("/status", handlerOrStub(cfg.StatusHandler)).Methods(http.MethodPost, http.MethodOptions)
	sub.Handle("/results", handlerOrStub(cfg.ResultsHandler)).Methods(http.MethodPost, http.MethodOptions)

	sub.Handle("/ws", handlerOrStub(cfg.WSHandler)).Methods(http.MethodGet, http.MethodOptions)
	sub.Handle("/search", handlerOrStub(cfg.SearchHandler)).Methods(http.MethodGet, http.MethodOptions)
	sub.Handle("/results/explain", handlerOrStub(cfg.ExplainHandler)).Methods(http.MethodPost, http.MethodOptions)
}

// handlerOrStub returns the provided handler if non-nil, otherwise a stub
// that responds with 501 Not Implemented.
func handlerOrStub(h http.Handler) http.Handler {
	if h != nil {
		return h
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Error(w, http.StatusNotImplemented, "not_implemented", "this endpoint is not yet implemented")
	})
}
