package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/magabrotheeeer/marketplace-billing/internal/cache"
	"github.com/magabrotheeeer/marketplace-billing/internal/config"
	rabbitlib "github.com/magabrotheeeer/marketplace-billing/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/marketplace-billing/internal/lib/sl"
	"github.com/magabrotheeeer/marketplace-billing/internal/rabbitmq"
	"github.com/magabrotheeeer/marketplace-billing/internal/services/expirer"
	"github.com/magabrotheeeer/marketplace-billing/internal/services/listinglimit"
	"github.com/magabrotheeeer/marketplace-billing/internal/storage/repository"
)

func waitForDB(ctx context.Context, db *repository.Storage) error {
	for range 10 {
		if err := db.CheckDatabaseReady(ctx); err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logger.Info("starting expiration sweeper", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := rabbitmq.Connect(cfg.RabbitConnectionString, 5, 3*time.Second)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", sl.Err(err))
		os.Exit(1)
	}
	defer func() {
		_ = conn.Close()
	}()

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetBillingQueues())
	if err != nil {
		logger.Error("failed to setup RabbitMQ channel", sl.Err(err))
		os.Exit(1)
	}
	defer func() {
		_ = ch.Close()
	}()

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		logger.Error("failed to connect to storage", sl.Err(err))
		os.Exit(1)
	}
	defer func() {
		_ = db.DB.Close()
	}()
	if err = waitForDB(ctx, db); err != nil {
		logger.Error("database is not ready", sl.Err(err))
		os.Exit(1)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		logger.Error("failed to connect to redis", sl.Err(err))
		os.Exit(1)
	}

	publisher := rabbitlib.NewPublisher(ch, rabbitmq.NotificationsExchange)
	enforcerService := listinglimit.New(db, cacheRedis, logger)
	expirerService := expirer.New(db, enforcerService, publisher, logger)

	expirerService.Run(ctx, cfg.Sweep.Interval)
	logger.Info("expiration sweeper stopped gracefully")
}
