// Package metrics объявляет счетчики Prometheus для наблюдения за сверкой
// платежей. Счетчики регистрируются в глобальном реестре и отдаются
// ручкой /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Итоги обработки webhook для метки result.
const (
	WebhookResultProcessed        = "processed"
	WebhookResultInvalidSignature = "invalid_signature"
	WebhookResultMalformed        = "malformed"
	WebhookResultError            = "error"
)

var (
	// WebhookEvents считает принятые события webhook по итогу обработки.
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_webhook_events_total",
		Help: "Webhook events received from the payment gateway by processing result.",
	}, []string{"result"})

	// PaymentsCompleted считает платежи, доведенные до completed.
	PaymentsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billing_payments_completed_total",
		Help: "Payments transitioned to the completed status.",
	})

	// SubscriptionsExpired считает подписки, пониженные проходом по истечениям.
	SubscriptionsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billing_subscriptions_expired_total",
		Help: "Subscriptions downgraded to FREE by the expiration sweep.",
	})
)
