package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/cargoflow/pricing-api/docs"
	"github.com/cargoflow/pricing-api/internal/api/handler"
	"github.com/cargoflow/pricing-api/internal/api/middleware"
	"github.com/cargoflow/pricing-api/internal/core/domain"
	"github.com/cargoflow/pricing-api/internal/core/ports"
)

// Deps bundles the explicitly constructed dependencies the router wires
// into routes. Everything arrives built; the router adds no globals.
type Deps struct {
	Auth    ports.AuthService
	Pricing ports.PricingService
	Tokens  middleware.TokenVerifier
	Logger  zerolog.Logger

	// Mongo and Redis are only consulted by the readiness probe and may
	// be nil in tests.
	Mongo *mongo.Database
	Redis *redis.Client

	// Registry, when set, isolates the HTTP metrics from the process-wide
	// default registry. Tests set one per router; a second registration of
	// the same collectors on the default registry would panic.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	metricsMW := echoprometheus.NewMiddleware("cargopricing")
	metricsHandler := echoprometheus.NewHandler()
	if deps.Registry != nil {
		metricsMW = echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Subsystem:  "cargopricing",
			Registerer: deps.Registry,
		})
		metricsHandler = echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
			Gatherer: deps.Registry,
		})
	}
	e.Use(metricsMW)

	guard := middleware.NewGuard(deps.Tokens)
	authHandler := handler.NewAuthHandler(deps.Auth)
	pricingHandler := handler.NewPricingHandler(deps.Pricing)

	// --- Auth routes (public) ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Pricing routes (role-gated, mirrors the pricing route map) ---
	pricing := e.Group("/v1/pricing")
	pricing.POST("", pricingHandler.Create, guard.Require(domain.RoleAdmin))
	pricing.PUT("/:cargo_type", pricingHandler.Update, guard.Require(domain.RoleAdmin))
	pricing.DELETE("/:id", pricingHandler.Delete, guard.Require(domain.RoleAdmin))
	pricing.POST("/calculate", pricingHandler.Calculate, guard.Require(domain.RoleAdmin, domain.RoleShipper))
	pricing.GET("", pricingHandler.List, guard.Require(domain.RoleAdmin, domain.RoleShipper, domain.RoleCarrier))

	// --- Observability & docs ---
	e.GET("/metrics", metricsHandler)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Health probes (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	if deps.Mongo != nil {
		e.GET("/health/ready", handler.NewReadinessHandler(deps.Mongo, deps.Redis).Readiness)
	}

	return e
}
