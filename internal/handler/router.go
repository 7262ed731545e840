package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/bloggingapi/internal/observability/metrics"
	"github.com/aryan0dhankhar/bloggingapi/internal/security/middleware"
	"github.com/aryan0dhankhar/bloggingapi/internal/security/ratelimit"
	"github.com/aryan0dhankhar/bloggingapi/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the HTTP surface is built from
type Deps struct {
	Auth               *service.AuthService
	Blogs              *service.BlogService
	AuthLimiter        ratelimit.RateLimiter // nil disables auth rate limiting
	TrustedProxies     *middleware.TrustedProxies
	Checks             map[string]Pinger
	CORSAllowedOrigins []string
	Logger             *slog.Logger
}

// NewRouter wires every route and the global middleware chain:
// recover -> request ID -> CORS -> JSON content type -> mux
func NewRouter(d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}

	authHandler := NewAuthHandler(d.Auth, log)
	blogHandler := NewBlogHandler(d.Blogs, log)
	healthHandler := NewHealthHandler(d.Checks, log)

	identify := middleware.Identify(d.Auth, log)
	optional := func(h http.HandlerFunc) http.Handler { return identify(h) }
	required := func(h http.HandlerFunc) http.Handler { return identify(middleware.RequireAuth(h)) }
	limited := func(h http.HandlerFunc) http.Handler {
		if d.AuthLimiter == nil {
			return h
		}
		return middleware.RateLimitMiddleware(d.AuthLimiter, d.TrustedProxies, log)(h)
	}

	mux := http.NewServeMux()
	handle := func(pattern string, h http.Handler) {
		mux.Handle(pattern, metrics.HTTPMetricsMiddleware(pattern, h))
	}

	handle("GET /{$}", http.HandlerFunc(healthHandler.Root))
	handle("GET /healthz", http.HandlerFunc(healthHandler.Health))
	handle("GET /readyz", http.HandlerFunc(healthHandler.Ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	handle("POST /api/auth/signup", limited(authHandler.Signup))
	handle("POST /api/auth/login", limited(authHandler.Login))

	handle("GET /api/blogs", optional(blogHandler.List))
	handle("GET /api/blogs/user/me/blogs", required(blogHandler.ListMine))
	handle("GET /api/blogs/{id}", optional(blogHandler.Get))
	handle("POST /api/blogs", required(blogHandler.Create))
	handle("PATCH /api/blogs/{id}/publish", required(blogHandler.Publish))
	handle("PATCH /api/blogs/{id}", required(blogHandler.Update))
	handle("DELETE /api/blogs/{id}", required(blogHandler.Delete))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Not found"})
	})

	var h http.Handler = mux
	h = middleware.ValidateJSONContentType(log)(h)
	h = middleware.CORS(d.CORSAllowedOrigins)(h)
	h = middleware.RequestID(log)(h)
	h = middleware.Recover(log)(h)
	return h
}
