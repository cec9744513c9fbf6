// Package reconciler содержит бизнес-логику сверки платежей: обработку
// событий webhook от платежного шлюза, создание ссылок на оплату и
// ручное повышение подписки администратором.
package reconciler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/magabrotheeeer/marketplace-billing/internal/lib/errs"
	"github.com/magabrotheeeer/marketplace-billing/internal/lib/sl"
	"github.com/magabrotheeeer/marketplace-billing/internal/metrics"
	"github.com/magabrotheeeer/marketplace-billing/internal/models"
	"github.com/magabrotheeeer/marketplace-billing/internal/paymentprovider"
)

// SubscriptionTermDays срок действия платной подписки после оплаты.
const SubscriptionTermDays = 30

// BillingRepository определяет методы хранилища, нужные для сверки платежей.
type BillingRepository interface {
	// CreatePayment вставляет новый платеж в статусе pending и возвращает его ID.
	CreatePayment(ctx context.Context, p models.Payment) (int, error)
	// FindPendingPaymentByProviderID находит ожидающий платеж по идентификатору шлюза.
	FindPendingPaymentByProviderID(ctx context.Context, providerPaymentID string) (*models.Payment, bool, error)
	// GetPayment возвращает платеж по его ID.
	GetPayment(ctx context.Context, id int) (*models.Payment, error)
	// CompletePayment атомарно завершает платеж; 0 строк означает повторное событие.
	CompletePayment(ctx context.Context, params models.CompletePaymentParams) (int, error)
	// MarkPaymentFailed переводит ожидающий платеж в failed.
	MarkPaymentFailed(ctx context.Context, providerPaymentID, notificationTitle, notificationBody string) (int, error)
	// GetUser возвращает пользователя по UID.
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	// UpgradeSubscription атомарно повышает уровень подписки пользователя.
	UpgradeSubscription(ctx context.Context, params models.UpgradeSubscriptionParams) (int, error)
}

// Gateway определяет операции платежного шлюза, используемые при создании оплаты.
type Gateway interface {
	CreatePaymentLink(ctx context.Context, req paymentprovider.CreatePaymentLinkRequest) (*paymentprovider.PaymentLink, error)
}

// Notifier публикует сообщения для воркера-отправителя уведомлений.
type Notifier interface {
	Publish(routingKey string, message any) error
}

// CheckoutResult результат создания ссылки на оплату.
type CheckoutResult struct {
	PaymentID   int    `json:"payment_id"`
	CheckoutURL string `json:"checkout_url"`
}

// Service сверяет платежи со шлюзом и применяет их последствия к подпискам.
type Service struct {
	repo     BillingRepository
	gateway  Gateway
	notifier Notifier
	log      *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo BillingRepository, gateway Gateway, notifier Notifier, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		gateway:  gateway,
		notifier: notifier,
		log:      log,
	}
}

// CreateCheckout создает ожидающий платеж за подписку и ссылку на оплату в шлюзе.
func (s *Service) CreateCheckout(ctx context.Context, userUID string, tierName string) (*CheckoutResult, error) {
	tier, ok := models.ParseTier(tierName)
	if !ok || !tier.IsPaid() {
		return nil, fmt.Errorf("%w: unknown subscription tier %q", errs.ErrValidation, tierName)
	}
	amount, _ := models.TierPrice(tier)

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: user %s", errs.ErrNotFound, userUID)
		}
		return nil, fmt.Errorf("%w: %v", errs.ErrPersistence, err)
	}

	link, err := s.gateway.CreatePaymentLink(ctx, paymentprovider.CreatePaymentLinkRequest{
		Amount:      amount,
		Description: fmt.Sprintf("%s subscription for %s", tier, user.Username),
		Metadata: map[string]string{
			"user_uid": user.UID,
			"tier":     string(tier),
		},
	})
	if err != nil {
		return nil, err
	}

	paymentID, err := s.repo.CreatePayment(ctx, models.Payment{
		UserUID:           user.UID,
		Type:              models.PaymentTypeSubscription,
		Amount:            amount,
		Status:            models.PaymentPending,
		ProviderPaymentID: link.ID,
		Metadata:          map[string]string{"tier": string(tier)},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrPersistence, err)
	}

	s.log.Info("created checkout",
		slog.Int("payment_id", paymentID),
		slog.String("user_uid", user.UID),
		slog.String("tier", string(tier)))

	return &CheckoutResult{PaymentID: paymentID, CheckoutURL: link.CheckoutURL}, nil
}

// ProcessWebhookEvent применяет событие платежного шлюза. Повторные,
// запоздавшие и неизвестные события превращаются в no-op: шлюз повторяет
// доставку, и обработчик обязан оставаться идемпотентным.
func (s *Service) ProcessWebhookEvent(ctx context.Context, event *paymentprovider.WebhookEvent) error {
	kind := event.Kind()
	providerPaymentID := event.ProviderPaymentID()

	switch kind {
	case paymentprovider.EventPaymentPaid, paymentprovider.EventLinkPaymentPaid:
		return s.handlePaymentPaid(ctx, providerPaymentID, event.Metadata())
	case paymentprovider.EventPaymentFailed:
		return s.handlePaymentFailed(ctx, providerPaymentID)
	default:
		s.log.Info("ignoring webhook event of unknown type", slog.String("type", kind))
		return nil
	}
}

func (s *Service) handlePaymentPaid(ctx context.Context, providerPaymentID string, eventMetadata map[string]string) error {
	payment, found, err := s.repo.FindPendingPaymentByProviderID(ctx, providerPaymentID)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrPersistence, err)
	}
	if !found {
		s.log.Info("no pending payment for provider id, skipping",
			slog.String("provider_payment_id", providerPaymentID))
		return nil
	}
	return s.completePayment(ctx, payment, eventMetadata)
}

func (s *Service) handlePaymentFailed(ctx context.Context, providerPaymentID string) error {
	rows, err := s.repo.MarkPaymentFailed(ctx, providerPaymentID,
		"Payment failed",
		"Your payment could not be completed. Please try again.")
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrPersistence, err)
	}
	if rows == 0 {
		s.log.Info("no pending payment to mark failed",
			slog.String("provider_payment_id", providerPaymentID))
		return nil
	}
	s.log.Info("marked payment failed", slog.String("provider_payment_id", providerPaymentID))
	return nil
}

// ReconcilePayment вручную завершает платеж по его ID. Уже завершенный
// или проваленный платеж повторно сверять нельзя.
func (s *Service) ReconcilePayment(ctx context.Context, paymentID int) error {
	payment, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: payment %d", errs.ErrNotFound, paymentID)
		}
		return fmt.Errorf("%w: %v", errs.ErrPersistence, err)
	}
	if payment.Status != models.PaymentPending {
		return fmt.Errorf("%w: payment %d is already %s", errs.ErrValidation, paymentID, payment.Status)
	}
	return s.completePayment(ctx, payment, nil)
}

// completePayment завершает платеж атомарно вместе со всеми его
// последствиями. Уровень подписки берется из метаданных события, а при
// их отсутствии из метаданных, сохраненных при создании платежа.
func (s *Service) completePayment(ctx context.Context, payment *models.Payment, eventMetadata map[string]string) error {
	params := models.CompletePaymentParams{
		PaymentID:         payment.ID,
		UserUID:           payment.UserUID,
		Amount:            payment.Amount,
		NotificationTitle: "Payment received",
		NotificationBody:  fmt.Sprintf("We received your payment of %s.", formatAmount(payment.Amount)),
	}

	if payment.Type == models.PaymentTypeSubscription {
		tierName := eventMetadata["tier"]
		if tierName == "" {
			tierName = payment.Metadata["tier"]
		}
		tier, ok := models.ParseTier(tierName)
		if ok && tier.IsPaid() {
			params.Tier = &tier
			params.EndsAt = time.Now().AddDate(0, 0, SubscriptionTermDays)
			params.NotificationTitle = "Subscription activated"
			params.NotificationBody = fmt.Sprintf("Your %s subscription is active until %s.",
				tier, params.EndsAt.Format("02 Jan 2006"))
		} else {
			s.log.Warn("subscription payment carries no valid tier, completing without upgrade",
				slog.Int("payment_id", payment.ID),
				slog.String("tier", tierName))
		}
	}

	rows, err := s.repo.CompletePayment(ctx, params)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrPersistence, err)
	}
	if rows == 0 {
		s.log.Info("payment already completed, skipping",
			slog.Int("payment_id", payment.ID))
		return nil
	}

	metrics.PaymentsCompleted.Inc()
	s.log.Info("completed payment",
		slog.Int("payment_id", payment.ID),
		slog.String("user_uid", payment.UserUID))

	s.publishNotification(ctx, payment.UserUID, params.NotificationTitle, params.NotificationBody)
	return nil
}

// UpgradeSubscription повышает подписку пользователя без платежа,
// например при ручном вмешательстве администратора.
func (s *Service) UpgradeSubscription(ctx context.Context, userUID string, tierName string) error {
	tier, ok := models.ParseTier(tierName)
	if !ok || !tier.IsPaid() {
		return fmt.Errorf("%w: unknown subscription tier %q", errs.ErrValidation, tierName)
	}
	amount, _ := models.TierPrice(tier)
	endsAt := time.Now().AddDate(0, 0, SubscriptionTermDays)

	rows, err := s.repo.UpgradeSubscription(ctx, models.UpgradeSubscriptionParams{
		UserUID:           userUID,
		Tier:              tier,
		Amount:            amount,
		EndsAt:            endsAt,
		NotificationTitle: "Subscription upgraded",
		NotificationBody: fmt.Sprintf("Your account was upgraded to %s until %s.",
			tier, endsAt.Format("02 Jan 2006")),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrPersistence, err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: user %s", errs.ErrNotFound, userUID)
	}

	s.log.Info("upgraded subscription",
		slog.String("user_uid", userUID),
		slog.String("tier", string(tier)))

	s.publishNotification(ctx, userUID, "Subscription upgraded",
		fmt.Sprintf("Your account was upgraded to %s.", tier))
	return nil
}

// publishNotification отправляет сообщение в очередь уведомлений.
// Ошибка публикации не откатывает уже зафиксированные изменения.
func (s *Service) publishNotification(ctx context.Context, userUID, title, body string) {
	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		s.log.Warn("failed to load user for notification", sl.Err(err))
		return
	}
	msg := models.NotificationMessage{
		Email:    user.Email,
		Username: user.Username,
		Title:    title,
		Body:     body,
	}
	if err := s.notifier.Publish("subscription", msg); err != nil {
		s.log.Warn("failed to publish notification", sl.Err(err))
	}
}

func formatAmount(centavos int64) string {
	return "PHP " + strconv.FormatFloat(float64(centavos)/100, 'f', 2, 64)
}
