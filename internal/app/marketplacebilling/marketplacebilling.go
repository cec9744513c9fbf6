// Package marketplacebilling собирает HTTP-сервис биллинга: хранилище,
// кеш, платежный шлюз, очередь уведомлений и маршруты.
package marketplacebilling

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/marketplace-billing/internal/cache"
	"github.com/magabrotheeeer/marketplace-billing/internal/config"
	"github.com/magabrotheeeer/marketplace-billing/internal/lib/jwt"
	rabbitlib "github.com/magabrotheeeer/marketplace-billing/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/marketplace-billing/internal/migrations"
	"github.com/magabrotheeeer/marketplace-billing/internal/paymentprovider"
	"github.com/magabrotheeeer/marketplace-billing/internal/rabbitmq"
	"github.com/magabrotheeeer/marketplace-billing/internal/services/expirer"
	"github.com/magabrotheeeer/marketplace-billing/internal/services/listinglimit"
	"github.com/magabrotheeeer/marketplace-billing/internal/services/reconciler"
	"github.com/magabrotheeeer/marketplace-billing/internal/storage/repository"
)

// App инкапсулирует HTTP-сервер и его зависимости.
type App struct {
	server     *http.Server
	logger     *slog.Logger
	db         *repository.Storage
	rabbitConn *amqp.Connection
	expirerSvc *expirer.Service
	sweepEvery time.Duration
}

// New создает приложение: подключается к базе, применяет миграции,
// поднимает кеш и очередь и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(ctx, db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	rabbitConn, err := rabbitmq.Connect(cfg.RabbitConnectionString, 5, 3*time.Second)
	if err != nil {
		return nil, err
	}
	channel, err := rabbitmq.SetupChannel(rabbitConn, rabbitmq.GetBillingQueues())
	if err != nil {
		return nil, err
	}
	publisher := rabbitlib.NewPublisher(channel, rabbitmq.NotificationsExchange)

	providerClient := paymentprovider.NewClient(cfg.PayMongo.SecretKey)
	jwtMaker := jwt.NewMaker(cfg.JWTToken.JWTSecretKey, cfg.JWTToken.TokenTTL)

	reconcilerService := reconciler.New(db, providerClient, publisher, logger)
	enforcerService := listinglimit.New(db, cacheRedis, logger)
	expirerService := expirer.New(db, enforcerService, publisher, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, RouteServices{
		Storage:    db,
		Reconciler: reconcilerService,
		Enforcer:   enforcerService,
		Expirer:    expirerService,
		JWTMaker:   jwtMaker,
		Config:     cfg,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:     srv,
		logger:     logger,
		db:         db,
		rabbitConn: rabbitConn,
		expirerSvc: expirerService,
		sweepEvery: cfg.Sweep.Interval,
	}, nil
}

// Run запускает HTTP-сервер и фоновый проход по истечениям и блокируется
// до отмены контекста или ошибки сервера.
func (a *App) Run(ctx context.Context) error {
	go a.expirerSvc.Run(ctx, a.sweepEvery)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		_ = a.rabbitConn.Close()
		_ = a.db.DB.Close()
		return err
	}
}
