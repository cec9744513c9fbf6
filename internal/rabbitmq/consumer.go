package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/marketplace-billing/internal/lib/sl"
)

// ConsumerMessage запускает потребителя очереди уведомлений биллинга.
// Каждая доставка передается обработчику; при ошибке обработчика
// уведомление возвращается в очередь и письмо будет отправлено повторно.
// Параллелизм ограничен семафором размера prefetchLimit.
func ConsumerMessage(ctx context.Context, log *slog.Logger, ch *amqp.Channel, queueName string, handler func([]byte) error) error {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",    // consumer tag
		false, // ручное подтверждение
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: failed to consume queue %s: %w", op, queueName, err)
	}

	sem := make(chan struct{}, prefetchLimit)
	go func() {
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					log.Info("delivery channel closed, stopping consumer",
						slog.String("queue", queueName))
					return
				}
				sem <- struct{}{}
				go func(d amqp.Delivery) {
					defer func() { <-sem }()
					if err := handler(d.Body); err != nil {
						log.Warn("notification handling failed, requeueing",
							slog.String("queue", queueName),
							sl.Err(err))
						if nackErr := d.Nack(false, true); nackErr != nil {
							log.Error("failed to nack notification",
								slog.String("queue", queueName),
								sl.Err(nackErr))
						}
						return
					}
					if ackErr := d.Ack(false); ackErr != nil {
						log.Error("failed to ack notification",
							slog.String("queue", queueName),
							sl.Err(ackErr))
					}
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}
