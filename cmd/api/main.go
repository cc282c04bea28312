package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/verdecoop/verdecoop-backend/api/routes"
	"github.com/verdecoop/verdecoop-backend/internal/certificates"
	"github.com/verdecoop/verdecoop-backend/internal/coop"
	"github.com/verdecoop/verdecoop-backend/internal/lots"
	"github.com/verdecoop/verdecoop-backend/internal/trading"
	"github.com/verdecoop/verdecoop-backend/internal/transactions"
	"github.com/verdecoop/verdecoop-backend/internal/wallet"
	"github.com/verdecoop/verdecoop-backend/pkg/config"
	"github.com/verdecoop/verdecoop-backend/pkg/db"
	"github.com/verdecoop/verdecoop-backend/pkg/logger"
	"github.com/verdecoop/verdecoop-backend/pkg/metrics"
	"github.com/verdecoop/verdecoop-backend/pkg/migrate"
	"github.com/verdecoop/verdecoop-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	ledgerMetrics := metrics.NewLedgerMetrics(registry)

	gdb := dbClient.DB()
	walletRepo := wallet.NewRepository(gdb)
	lotsRepo := lots.NewRepository(gdb)
	transactionsRepo := transactions.NewRepository(gdb)
	salesRepo := trading.NewRepository(gdb)
	certificatesRepo := certificates.NewRepository(gdb)
	coopRepo := coop.NewRepository(gdb)

	walletService, err := wallet.NewService(walletRepo, redisClient, cfg.Wallet.BalanceCacheTTL, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create wallet service", err)
		os.Exit(1)
	}

	lotsService, err := lots.NewService(lotsRepo, walletRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create lots service", err)
		os.Exit(1)
	}

	transactionsService, err := transactions.NewService(transactionsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create transactions service", err)
		os.Exit(1)
	}

	minter := certificates.NewMinter(cfg.Trading)
	tradingService, err := trading.NewService(
		dbClient,
		walletRepo,
		lotsRepo,
		transactionsRepo,
		salesRepo,
		minter,
		walletService,
		ledgerMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create trading service", err)
		os.Exit(1)
	}

	coopService, err := coop.NewService(
		coopRepo,
		dbClient,
		walletRepo,
		lotsRepo,
		walletService,
		ledgerMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create cooperative service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, registry, routes.Services{
			Wallet:       walletService,
			Lots:         lotsService,
			Trading:      tradingService,
			Transactions: transactionsService,
			Coop:         coopService,
			Certificates: certificatesRepo,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
