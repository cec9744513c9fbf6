package rabbitmq

type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetBillingQueues возвращает очереди уведомлений биллинга: события
// подписки (оплата, повышение, истечение) и скрытие объявлений.
func GetBillingQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notifications.subscription", RoutingKey: "subscription"},
		{QueueName: "notifications.listings", RoutingKey: "listings"},
	}
}
