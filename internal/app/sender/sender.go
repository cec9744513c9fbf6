// Package sender собирает воркер отправки уведомлений: подключение к
// очереди и SMTP-транспорт.
package sender

import (
	"context"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/marketplace-billing/internal/config"
	"github.com/magabrotheeeer/marketplace-billing/internal/lib/smtp"
	"github.com/magabrotheeeer/marketplace-billing/internal/rabbitmq"
	senderservice "github.com/magabrotheeeer/marketplace-billing/internal/services/sender"
)

// App инкапсулирует потребителя очереди уведомлений.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

// New создает воркер: подключается к очереди и готовит SMTP-транспорт.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitConnectionString, 5, 3*time.Second)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetBillingQueues())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)
	senderService := senderservice.NewSenderService(logger, transport)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run запускает потребителей обеих очередей и блокируется до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	for _, queue := range rabbitmq.GetBillingQueues() {
		if err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, queue.QueueName, a.senderService.SendNotification); err != nil {
			a.logger.Error("failed to start consumer", slog.String("queue", queue.QueueName), slog.Any("err", err))
			return err
		}
		a.logger.Info("consumer started", slog.String("queue", queue.QueueName))
	}

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}
	return nil
}
