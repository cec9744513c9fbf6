// Package rabbitmq подключает биллинг к брокеру уведомлений: соединение
// с повторными попытками, обменник и очереди воркера-отправителя писем,
// потребитель с ограниченным параллелизмом.
package rabbitmq

import (
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

// NotificationsExchange — обменник, через который биллинг раздает
// уведомления по очередям отправителя писем.
const NotificationsExchange = "notifications"

// prefetchLimit ограничивает число неподтвержденных доставок на канал.
// Согласован с семафором в ConsumerMessage: больше писем за раз
// отправитель все равно не обрабатывает.
const prefetchLimit = 10

// Connect подключается к брокеру с повторными попытками: воркеры биллинга
// стартуют одновременно с брокером и ждут его инициализации.
func Connect(connection string, retries int, delay time.Duration) (*amqp.Connection, error) {
	const op = "rabbitmq.Connect"
	var lastErr error

	for attempt := 1; attempt <= retries; attempt++ {
		conn, err := amqp.Dial(connection)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		time.Sleep(delay)
	}

	return nil, fmt.Errorf("%s: broker unreachable after %d attempts: %w", op, retries, lastErr)
}

// SetupChannel открывает канал, объявляет обменник уведомлений и
// привязывает к нему очереди биллинга. Обменник и очереди долговечные,
// чтобы уведомления переживали перезапуск брокера.
func SetupChannel(conn *amqp.Connection, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(prefetchLimit, 0, false); err != nil {
		return nil, fmt.Errorf("%s: failed to set prefetch limit: %w", op, err)
	}

	if err := ch.ExchangeDeclare(
		NotificationsExchange,
		"direct",
		true,  // durable
		false, // auto-delete
		false,
		false,
		nil,
	); err != nil {
		return nil, fmt.Errorf("%s: failed to declare exchange %s: %w", op, NotificationsExchange, err)
	}

	for _, q := range queues {
		if _, err := ch.QueueDeclare(
			q.QueueName,
			true, // durable
			false,
			false,
			false,
			nil,
		); err != nil {
			return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, q.QueueName, err)
		}

		if err := ch.QueueBind(
			q.QueueName,
			q.RoutingKey,
			NotificationsExchange,
			false,
			nil,
		); err != nil {
			return nil, fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w", op, q.QueueName, q.RoutingKey, err)
		}
	}

	return ch, nil
}
