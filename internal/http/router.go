package http

import (
	"log/slog"

	"github.com/geocoder89/rxtrack/internal/config"
	"github.com/geocoder89/rxtrack/internal/http/handlers"
	"github.com/geocoder89/rxtrack/internal/http/middlewares"
	"github.com/geocoder89/rxtrack/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// AuthService is both the login endpoint's backend and the bearer token resolver.
type AuthService interface {
	handlers.Authenticator
	middlewares.UserResolver
}

type Deps struct {
	Config        config.Config
	Auth          AuthService
	Prescriptions handlers.PrescriptionService
	Reports       handlers.ReportService

	// LoginCounter backs the login rate limit; nil means in-process buckets.
	LoginCounter middlewares.WindowCounter

	// Prom and Gatherer are optional. /metrics serves the default gatherer when Gatherer is nil.
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer

	ReadyChecks map[string]handlers.Pinger
}

func NewRouter(log *slog.Logger, deps Deps) *gin.Engine {
	cfg := deps.Config

	if cfg.Env != "dev" && cfg.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Warn("invalid TRUSTED_PROXIES, trusting none", "err", err)
		_ = r.SetTrustedProxies(nil)
	}

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	if cfg.OTLPEndpoint != "" {
		r.Use(otelgin.Middleware(cfg.OTELServiceName))
	}
	r.Use(middlewares.RequestLogger(log))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders("/docs"))
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	if cfg.MaxBodyBytes > 0 {
		r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	}

	// ops
	h := handlers.NewHealthHandler(deps.ReadyChecks)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	docs := handlers.NewDocsHandler("/docs/openapi.yaml")
	r.GET("/docs", docs.UI)
	r.GET("/docs/openapi.yaml", docs.Spec)

	// observers stay untyped nil when metrics are off
	var (
		loginObs handlers.LoginObserver
		limitObs middlewares.LimitObserver
	)
	if deps.Prom != nil {
		loginObs = deps.Prom
		limitObs = deps.Prom
	}

	loginChain := []gin.HandlerFunc{}
	if cfg.LoginRateLimit > 0 {
		counter := deps.LoginCounter
		if counter == nil {
			counter = middlewares.NewMemoryCounter(nil)
		}
		loginLimiter := middlewares.NewRateLimiter(counter, "login", cfg.LoginRateLimit, cfg.LoginRateWindow(), limitObs)
		loginChain = append(loginChain, loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP))
	}

	authMiddleware := middlewares.NewAuthMiddleware(deps.Auth)
	authHandler := handlers.NewAuthHandler(deps.Auth, loginObs)
	prescriptionsHandler := handlers.NewPrescriptionsHandler(deps.Prescriptions)
	reportsHandler := handlers.NewReportsHandler(deps.Reports)

	api := r.Group("/api", middlewares.RequireJSON())

	authGroup := api.Group("/auth")
	authGroup.POST("/login", append(loginChain, authHandler.Login)...)
	authGroup.GET("/me", authMiddleware.RequireAuth(), authHandler.Me)

	v1 := api.Group("/v1", authMiddleware.RequireAuth())

	v1.GET("/prescription", prescriptionsHandler.List)
	v1.POST("/prescription", prescriptionsHandler.Create)
	v1.GET("/prescription/:id", prescriptionsHandler.Get)
	v1.PUT("/prescription/:id", prescriptionsHandler.Update)
	v1.DELETE("/prescription/:id", prescriptionsHandler.Delete)

	v1.GET("/report/day-wise", reportsHandler.DayWise)

	return r
}
