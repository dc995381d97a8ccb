// Package httpapi serves the careauth REST surface under /v1/api.
//
// Routes:
//
//	GET    /                                   welcome text
//	GET    /api/health                         liveness
//	GET    /metrics                            Prometheus scrape (when configured)
//	POST   /v1/api/auth/generate-otp           issue a one-time passcode
//	POST   /v1/api/auth/login                  verify passcode, issue token
//	POST   /v1/api/auth/register               create an account
//	GET    /v1/api/auth/me                     caller's account (bearer)
//	POST   /v1/api/auth/logout                 revoke the caller's token (bearer)
//	POST   /v1/api/dependent/add-dependent     (bearer, provider)
//	PATCH  /v1/api/dependent/update-dependent  (bearer, provider, owner)
//	DELETE /v1/api/dependent/delete-dependent/{dependentId}
//	GET    /v1/api/dependent/list
//
// Every failure body is {"message": "..."}.
package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/techcare/careauth"
	"github.com/techcare/careauth/internal/accounts"
	"github.com/techcare/careauth/internal/dependents"
	"github.com/techcare/careauth/middleware"
)

// Deps wires the router to its collaborators.
type Deps struct {
	Engine     *careauth.Engine
	Accounts   *accounts.Service
	Dependents *dependents.Service

	// Metrics, when set, is mounted at GET /metrics.
	Metrics http.Handler
	Logger  logrus.FieldLogger

	// RateLimitWindow and RateLimitMax bound requests per client IP on
	// /v1/api. A zero RateLimitMax disables the limiter.
	RateLimitWindow time.Duration
	RateLimitMax    int

	// TrustedProxies lists proxy IPs or CIDRs allowed to supply
	// X-Forwarded-For. CORSOrigins lists browser origins granted credentials.
	TrustedProxies []string
	CORSOrigins    []string

	Now func() time.Time
}

type api struct {
	engine     *careauth.Engine
	accounts   *accounts.Service
	dependents *dependents.Service
	logger     logrus.FieldLogger
	now        func() time.Time
}

// NewRouter builds the HTTP handler.
func NewRouter(deps Deps) (http.Handler, error) {
	if deps.Engine == nil {
		return nil, errors.New("httpapi: engine is required")
	}
	if deps.Accounts == nil || deps.Dependents == nil {
		return nil, errors.New("httpapi: account and dependent services are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	clientIP, err := NewClientIPResolver(deps.TrustedProxies)
	if err != nil {
		return nil, err
	}

	a := &api{
		engine:     deps.Engine,
		accounts:   deps.Accounts,
		dependents: deps.Dependents,
		logger:     logger,
		now:        now,
	}

	r := chi.NewRouter()
	r.Use(RequestContext(clientIP), Recoverer(logger), AccessLog(logger), CORS(deps.CORSOrigins), LimitBody(MaxBodyBytes))
	r.NotFound(a.notFound)
	r.MethodNotAllowed(a.notFound)

	r.Get("/", a.welcome)
	r.Get("/api/health", a.health)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	guard := middleware.Guard(deps.Engine)

	r.Route("/v1/api", func(r chi.Router) {
		if deps.RateLimitMax > 0 {
			r.Use(NewIPRateLimiter(deps.RateLimitWindow, deps.RateLimitMax, now).Middleware)
		}

		r.Route("/auth", func(r chi.Router) {
			r.Post("/generate-otp", a.generateOTP)
			r.Post("/login", a.login)
			r.Post("/register", a.register)

			r.Group(func(r chi.Router) {
				r.Use(guard)
				r.Get("/me", a.me)
				r.Post("/logout", a.logout)
			})
		})

		r.Route("/dependent", func(r chi.Router) {
			r.Use(guard)
			r.Post("/add-dependent", a.addDependent)
			r.Patch("/update-dependent", a.updateDependent)
			r.Delete("/delete-dependent/{dependentId}", a.deleteDependent)
			r.Get("/list", a.listDependents)
		})
	})

	return r, nil
}

// identity returns the caller stored by middleware.Guard.
func identity(r *http.Request) (careauth.Identity, bool) {
	res, ok := middleware.AuthResultFromContext(r.Context())
	if !ok {
		return careauth.Identity{}, false
	}
	return res.Identity, true
}
