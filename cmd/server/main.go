package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"pasmino/internal/auth"
	"pasmino/internal/commons"
	"pasmino/internal/cron"
	"pasmino/internal/infrastructure/kafka"
	"pasmino/internal/infrastructure/logger"
	"pasmino/internal/infrastructure/mysql"
	"pasmino/internal/infrastructure/redisx"
	"pasmino/internal/order"
	"pasmino/internal/payment"
	"pasmino/internal/product"
	"pasmino/internal/recommendation"
	"pasmino/internal/server"
	"pasmino/internal/stock"
	stockservice "pasmino/internal/stock/service"
	"pasmino/internal/user"
)

func main() {
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "internal/config/config.yaml"
	}
	cfg, err := commons.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := mysql.NewConnection(cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()
	zapLogger.Info("database connected")

	if cfg.Database.MigrateOnStart {
		if err := mysql.RunMigrations(db); err != nil {
			zapLogger.Fatal("running migrations", zap.Error(err))
		}
		zapLogger.Info("migrations applied")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := redisx.NewClient(cfg.Redis)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		zapLogger.Warn("redis unavailable, notifications and sweep lock will fail open", zap.Error(err))
	}

	var publisher stockservice.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		p := kafka.NewPublisher(cfg.Kafka, zapLogger)
		defer p.Close()
		publisher = p
	}

	txManager := mysql.NewTxManager(db, zapLogger, cfg.Order.TxTimeout, cfg.Order.MaxRetryAttempts)

	userModule := user.NewModule(db, cfg.Auth.WebhookSecret, zapLogger)
	stockModule := stock.NewModule(db, txManager, publisher, redisx.NewDeduper(rdb, "pasmino:lowstock:"), cfg, zapLogger)
	gateway := payment.NewClient(cfg.Payment, zapLogger)
	orderModule := order.NewModule(db, txManager, stockModule.Service, gateway, cfg, zapLogger)

	sweeper := cron.NewSweeper(
		stockModule.Service,
		orderModule.Service,
		redisx.NewLocker(rdb),
		cfg.Cron.SweepInterval,
		cfg.Cron.LockTTL,
		zapLogger,
	)
	go sweeper.Run(ctx)

	router := server.NewRouter(server.Handlers{
		Products:        product.NewModule(db, zapLogger),
		Stock:           stockModule.Public,
		StockAdmin:      stockModule.Admin,
		Recommendations: recommendation.NewModule(db, zapLogger),
		Orders:          orderModule.Controller,
		Identity:        userModule.Controller,
		Cron:            cron.NewHandler(sweeper, cfg.Cron.Secret, zapLogger),
		Auth:            auth.NewMiddleware(userModule.Service, cfg.Auth.UserHeader, zapLogger),
		DB:              db,
	}, cfg.Server.RequestTimeout, zapLogger)

	srv := server.New(cfg.Server, router, zapLogger)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Fatal("server shutdown failed", zap.Error(err))
	}

	zapLogger.Info("server stopped gracefully")
}
