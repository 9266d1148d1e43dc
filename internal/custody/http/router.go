package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/custodian/internal/custody/service"
	"github.com/aussiebroadwan/custodian/internal/custody/store"
	"github.com/aussiebroadwan/custodian/pkg/httpx"
	"github.com/aussiebroadwan/custodian/pkg/jwtx"
	"github.com/aussiebroadwan/custodian/pkg/slogx"

	_ "github.com/aussiebroadwan/custodian/api/custody" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     *jwtx.Verifier // nil disables gateway authentication
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	// TrustProxyHeaders keys rate limits on X-Forwarded-For and X-Real-IP
	// instead of the connection address. Set it only behind a proxy that
	// overwrites those headers.
	TrustProxyHeaders bool

	store             store.Store
	EnrollmentService *service.EnrollmentService
	UnlockService     *service.UnlockService
}

func NewRouter(
	verifier *jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) clientIP() httpx.KeyExtractor {
	return httpx.ClientIPExtractor(r.TrustProxyHeaders)
}

func (r *Router) ApplyRoutes() {
	r.registerEnrollments()
	r.registerUsers()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Custodian Key Custody API
//	@version		0.1.0
//	@description	Custodial enrollment of Aptos private keys for chat users.
//	@description
//	@description				Keys are encrypted under the user's password and never returned by the API.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/custodian
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Gateway token (HS256). Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerEnrollments() {
	h := &EnrollmentHandler{EnrollmentService: r.EnrollmentService}

	// Enrollment pays for a full KDF run, so it gets the strict limit.
	r.Mux.Handle("POST /v1/enrollments",
		httpx.Chain(h,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope(jwtx.ScopeEnroll),
			httpx.RateLimitByIP(httpx.StrictLimit, r.clientIP()),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{
		EnrollmentService: r.EnrollmentService,
		UnlockService:     r.UnlockService,
	}

	r.Mux.Handle("GET /v1/users/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleProfile),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope(jwtx.ScopeRead),
			httpx.RateLimitByIP(httpx.LenientLimit, r.clientIP()),
		),
	)

	// Password checks are limited per IP and user, and each user also has a
	// budget that no number of addresses can raise.
	r.Mux.Handle("POST /v1/users/{id}/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerify),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope(jwtx.ScopeVerify),
			httpx.RateLimitByIPAndPathValue(httpx.StrictLimit, r.clientIP(), "id"),
			httpx.RateLimitByPathValue(httpx.UserBudgetLimit, "id"),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit, r.clientIP()),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit, r.clientIP()),
		),
	)
}
