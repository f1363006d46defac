package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/seuss/pkg/authx"
	"github.com/aussiebroadwan/seuss/pkg/httpx"
	"github.com/aussiebroadwan/seuss/pkg/privilege"
	"github.com/aussiebroadwan/seuss/pkg/slogx"
)

// Resource paths served by the router.
const (
	VersionsPath       = "/redfish"
	ServiceRootPath    = "/redfish/v1/"
	SessionServicePath = "/redfish/v1/SessionService"
	SessionsPath       = "/redfish/v1/SessionService/Sessions"
)

// Pinger is a dependency checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	// Authenticator is the configured strategy chain.
	Authenticator authx.Authenticator
	Sessions      authx.SessionManagement
	Table         privilege.Table
	Observer      authx.Observer

	// Metrics serves /metrics when set.
	Metrics http.Handler

	// ReadyChecks are pinged by /readyz, keyed by check name.
	ReadyChecks map[string]Pinger

	SessionTimeout time.Duration
	ServiceUUID    string

	// CreateSessionLimit throttles POST to the session collection per client IP.
	CreateSessionLimit httpx.RateLimitConfig
}

func NewRouter(buildVersion string, logger *slog.Logger) *Router {
	r := &Router{
		Mux:                http.NewServeMux(),
		buildVersion:       buildVersion,
		startTime:          time.Now(),
		logger:             logger,
		Table:              privilege.DefaultTable(),
		CreateSessionLimit: httpx.StrictLimit,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerServiceRoot()
	r.registerSessionService()
	r.registerSessions()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) authOptions() []authx.Option {
	if r.Observer == nil {
		return nil
	}
	return []authx.Option{authx.WithObserver(r.Observer)}
}

// secure wraps h with authentication, the privilege check for entity and
// the given rate limit. The limit runs after authentication so that callers
// are throttled per principal.
func (r *Router) secure(h http.Handler, entity string, limit httpx.Middleware) http.Handler {
	opts := r.authOptions()
	return httpx.Chain(h,
		authx.Middleware(r.Authenticator, opts...),
		authx.RequirePrivileges(r.Table, entity, r.Authenticator.Challenge(), opts...),
		limit,
	)
}

func (r *Router) registerServiceRoot() {
	h := &ServiceRootHandler{UUID: r.ServiceUUID}

	r.Mux.Handle("GET "+VersionsPath,
		r.secure(http.HandlerFunc(h.HandleVersions), privilege.EntityServiceRoot, httpx.RateLimitByIP(httpx.PublicLimit)))

	root := r.secure(http.HandlerFunc(h.HandleServiceRoot), privilege.EntityServiceRoot, httpx.RateLimitByIP(httpx.PublicLimit))
	r.Mux.Handle("GET /redfish/v1", root)
	r.Mux.Handle("GET /redfish/v1/{$}", root)
}

func (r *Router) registerSessionService() {
	h := &SessionServiceHandler{Timeout: r.SessionTimeout}

	r.Mux.Handle("GET "+SessionServicePath,
		r.secure(h, privilege.EntitySessionService, httpx.RateLimitByPrincipal(httpx.LenientLimit)))
}

func (r *Router) registerSessions() {
	h := &SessionsHandler{
		Sessions:  r.Sessions,
		Challenge: r.Authenticator.Challenge(),
		BasePath:  SessionsPath,
	}

	// POST is NoAuth and takes a password, so it is throttled per IP
	// before any credential processing.
	create := httpx.Chain(
		r.secure(http.HandlerFunc(h.HandleCreate), privilege.EntitySessionCollection, httpx.RateLimitByPrincipal(httpx.LenientLimit)),
		httpx.RateLimitByIP(r.CreateSessionLimit),
	)

	r.Mux.Handle("GET "+SessionsPath,
		r.secure(http.HandlerFunc(h.HandleList), privilege.EntitySessionCollection, httpx.RateLimitByPrincipal(httpx.LenientLimit)))
	r.Mux.Handle("POST "+SessionsPath, create)
	r.Mux.Handle("GET "+SessionsPath+"/{id}",
		r.secure(http.HandlerFunc(h.HandleGet), privilege.EntitySession, httpx.RateLimitByPrincipal(httpx.LenientLimit)))
	r.Mux.Handle("DELETE "+SessionsPath+"/{id}",
		r.secure(http.HandlerFunc(h.HandleDelete), privilege.EntitySession, httpx.RateLimitByPrincipal(httpx.LenientLimit)))
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.ReadyChecks),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	if r.Metrics != nil {
		r.Mux.Handle("GET /metrics", r.Metrics)
	}
}
