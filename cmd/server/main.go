// @title                       Invest API
// @version                     1.0
// @description                 Balances, withdrawals, investment plans and support chat.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/yieldvault/invest-api/internal/api"
	"github.com/yieldvault/invest-api/internal/api/handler"
	"github.com/yieldvault/invest-api/internal/core/ports"
	"github.com/yieldvault/invest-api/internal/core/service"
	mongodb "github.com/yieldvault/invest-api/internal/infrastructure/db/mongo"
	redisdb "github.com/yieldvault/invest-api/internal/infrastructure/db/redis"
	"github.com/yieldvault/invest-api/internal/infrastructure/events"
	"github.com/yieldvault/invest-api/internal/infrastructure/queue"
	"github.com/yieldvault/invest-api/internal/pkg/config"
	"github.com/yieldvault/invest-api/internal/realtime"
	"github.com/yieldvault/invest-api/pkg/logger"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "invest-api",
	})
	if envErr != nil {
		log.Debug().Msg("no .env file found; relying on existing environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("connect mongodb")
	}
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("ensure indexes")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("connect redis")
	}

	// workers stop on shutdown, independently of the signal context
	workCtx, stopWork := context.WithCancel(context.Background())
	defer stopWork()

	// --- Outbound ledger events ---
	var publisher ports.LedgerPublisher = ports.NopLedgerPublisher()
	var closeNATS func()
	if cfg.NATS.URL != "" {
		nc, js, err := events.Connect(cfg.NATS.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("connect nats")
		}
		if err := events.EnsureStream(ctx, js); err != nil {
			log.Fatal().Err(err).Msg("ensure ledger stream")
		}
		p := events.NewPublisher(js, logger.Component("events"))
		go func() { _ = p.Run(workCtx) }()
		publisher = p
		closeNATS = func() { _ = nc.Drain() }
		log.Info().Str("stream", events.StreamName).Msg("ledger events enabled")
	}

	// --- Repositories ---
	transactor := mongodb.NewTransactor(mongoClient)
	users := mongodb.NewUserRepository(db)
	transactions := mongodb.NewTransactionRepository(db)
	plans := mongodb.NewPlanRepository(db)
	investments := mongodb.NewInvestmentRepository(db)
	chats := mongodb.NewChatRepository(db)

	// --- Realtime ---
	registry := realtime.NewRegistry()
	dispatcher := queue.NewDispatcher(cfg.Socket.PushWorkers, logger.Component("push"))
	dispatcher.Start(workCtx)
	hub := realtime.NewHub(registry, dispatcher, logger.Component("hub"))

	// --- Services ---
	balanceSvc := service.NewBalanceService(users, logger.Component("balance"))
	txSvc := service.NewTransactionService(transactor, balanceSvc, transactions, publisher, service.Limits{
		MinDeposit:    cfg.Ledger.MinDeposit,
		MinWithdrawal: cfg.Ledger.MinWithdrawal,
	}, logger.Component("transactions"))
	investSvc := service.NewInvestmentService(transactor, balanceSvc, plans, investments, logger.Component("investments"))
	chatSvc := service.NewChatService(chats, hub, logger.Component("chat"))
	authSvc := service.NewAuthService(users, cfg.JWTSecret, cfg.JWTTTL)

	seedAdmin(ctx, authSvc, cfg, log)

	sockets := realtime.NewServer(registry, chatSvc, realtime.ClientOptions{
		WriteTimeout: cfg.Socket.WriteTimeout,
		PongTimeout:  cfg.Socket.PongTimeout,
	}, logger.Component("socket"))

	e := api.NewRouter(api.Deps{
		JWTSecret:    cfg.JWTSecret,
		Log:          logger.Component("http"),
		Auth:         authSvc,
		Balances:     balanceSvc,
		Transactions: txSvc,
		Investments:  investSvc,
		Chat:         chatSvc,
		Idempotency:  redisdb.NewIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL),
		Sockets:      sockets,
		Checks: map[string]handler.Check{
			"mongodb": mongodb.Ping(db),
			"redis":   redisdb.Ping(rdb),
		},
	})

	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
	registry.CloseAll()
	stopWork()
	dispatcher.Wait()

	if closeNATS != nil {
		closeNATS()
	}
	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("close redis")
	}
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("disconnect mongodb")
	}
	log.Info().Msg("stopped")
}

// seedAdmin creates the configured admin account on first start.
func seedAdmin(ctx context.Context, auth *service.AuthService, cfg *config.Config, log zerolog.Logger) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		log.Warn().Msg("ADMIN_EMAIL/ADMIN_PASSWORD not set; no admin account seeded")
		return
	}
	admin, err := auth.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("seed admin")
	}
	log.Info().Str("admin_id", admin.ID).Msg("admin account ready")
}
