package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cargoflow/pricing-api/internal/api"
	"github.com/cargoflow/pricing-api/internal/core/service"
	"github.com/cargoflow/pricing-api/internal/infrastructure/config"
	mongodb "github.com/cargoflow/pricing-api/internal/infrastructure/db/mongo"
	redisdb "github.com/cargoflow/pricing-api/internal/infrastructure/db/redis"
	"github.com/cargoflow/pricing-api/internal/infrastructure/queue"
	"github.com/cargoflow/pricing-api/pkg/logger"
	"github.com/cargoflow/pricing-api/pkg/password"
	"github.com/cargoflow/pricing-api/pkg/token"
)

// @title        Cargo Pricing API
// @version      1.0
// @description  Authentication, role-based access control and pricing for cargo shipments.
// @BasePath     /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// No logger yet: configuration failed before anything else exists.
		panic(err)
	}

	log := logger.New(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	// --- Token issuer (fails fast without a secret) ---
	issuer, err := token.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("token issuer initialisation failed")
	}

	// --- MongoDB ---
	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongodb disconnect failed")
		}
	}()

	userRepo := mongodb.NewUserRepository(db)
	pricingRepo := mongodb.NewPricingRepository(db)
	auditRepo := mongodb.NewAuditRepository(db)

	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("user index creation failed")
	}
	if err := pricingRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("pricing index creation failed")
	}

	// --- Redis (optional: the API degrades to uncached lookups) ---
	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	var ruleCache *redisdb.RuleCache
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, pricing rule cache disabled")
	} else {
		defer rdb.Close()
		ruleCache = redisdb.NewRuleCache(rdb)
	}

	// --- Audit trail ---
	dispatcher := queue.NewDispatcher(cfg.AuditWorkers, auditRepo, log)
	dispatcher.Start(ctx)

	// --- Services ---
	hasher := password.NewHasher(cfg.BcryptCost)
	authService, err := service.NewAuthService(userRepo, hasher, issuer, dispatcher, log)
	if err != nil {
		log.Fatal().Err(err).Msg("auth service initialisation failed")
	}

	deps := api.Deps{
		Auth:   authService,
		Tokens: issuer,
		Logger: log,
		Mongo:  db,
		Redis:  rdb,
	}
	if ruleCache != nil {
		deps.Pricing = service.NewPricingService(pricingRepo, ruleCache, dispatcher, log)
	} else {
		deps.Pricing = service.NewPricingService(pricingRepo, nil, dispatcher, log)
	}

	e := api.NewRouter(deps)

	// --- Serve until signalled ---
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
