package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/colisapp/shipping-core/internal/api/handler"
	"github.com/colisapp/shipping-core/internal/api/middleware"
	"github.com/colisapp/shipping-core/internal/core/domain"
	"github.com/colisapp/shipping-core/internal/core/ports"
)

// Dependencies are the services and settings the HTTP layer is built from.
type Dependencies struct {
	Auth        ports.AuthService
	Simulations ports.SimulationService
	Transports  ports.TransportService
	// Health lists the dependencies the readiness probe pings, by name.
	Health    map[string]handler.Pinger
	JWTSecret string
	// QRCodeDir is served under /qrcodes when set.
	QRCodeDir string
	Logger    zerolog.Logger
	// Registry receives the HTTP metrics and backs /metrics. Defaults to the
	// global Prometheus registry, where the domain metrics live.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if deps.Registry != nil {
		registerer, gatherer = deps.Registry, deps.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "colisapp",
		Registerer: registerer,
	}))

	authHandler := handler.NewAuthHandler(deps.Auth)
	simHandler := handler.NewSimulationHandler(deps.Simulations, deps.Transports)
	transportHandler := handler.NewTransportHandler(deps.Transports)
	healthHandler := handler.NewHealthHandler(deps.Health)

	requireAuth := middleware.Auth(deps.JWTSecret)
	optionalAuth := middleware.OptionalAuth(deps.JWTSecret)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Health probes and metrics (no auth required) ---
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	if deps.QRCodeDir != "" {
		e.Static("/qrcodes", deps.QRCodeDir)
	}

	v1 := e.Group("/v1")

	// Drafts may be opened and handled anonymously; the simulation id is
	// the capability.
	sims := v1.Group("/simulations")
	sims.POST("", simHandler.Create, optionalAuth)
	sims.GET("/:id", simHandler.Get)
	sims.PUT("/:id", simHandler.Edit)
	sims.GET("/:id/events", simHandler.Events)
	sims.POST("/:id/cancel", simHandler.Cancel)
	sims.PUT("/:id/destinataire", simHandler.AssignDestinataire)
	sims.POST("/:id/claim", simHandler.Claim, requireAuth)
	sims.POST("/:id/confirm", simHandler.Confirm, requireAuth, adminOnly)
	sims.POST("/:id/transport", simHandler.AssignTransport, requireAuth, adminOnly)

	v1.GET("/me/simulations", simHandler.ListMine, requireAuth)

	transports := v1.Group("/transports", requireAuth, adminOnly)
	transports.GET("", transportHandler.List)
	transports.POST("", transportHandler.Create)
	transports.PATCH("/:id/availability", transportHandler.SetAvailability)

	return e
}

// requestLogger logs one structured line per request through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			event := log.Info()
			if v.Error != nil || v.Status >= 500 {
				event = log.Error().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
