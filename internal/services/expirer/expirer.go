// Package expirer реализует проход по истекшим подпискам: понижает
// пользователей до FREE, приводит их объявления к лимиту бесплатного
// уровня и рассылает уведомления.
package expirer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/marketplace-billing/internal/lib/errs"
	"github.com/magabrotheeeer/marketplace-billing/internal/lib/sl"
	"github.com/magabrotheeeer/marketplace-billing/internal/metrics"
	"github.com/magabrotheeeer/marketplace-billing/internal/models"
)

// ExpirationRepository определяет методы хранилища для прохода по истечениям.
type ExpirationRepository interface {
	// ExpireDueUsers переводит пользователей с истекшей подпиской на FREE
	// и возвращает их UID. При userUID != nil проход сужается до одного
	// пользователя.
	ExpireDueUsers(ctx context.Context, userUID *string) ([]string, error)
	// GetUser возвращает пользователя по UID.
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	// CreateNotification создает уведомление пользователю.
	CreateNotification(ctx context.Context, n models.Notification) (int, error)
}

// LimitEnforcer приводит объявления пользователя к лимиту его уровня.
type LimitEnforcer interface {
	Enforce(ctx context.Context, userUID string) (int, error)
}

// Notifier публикует сообщения для воркера-отправителя уведомлений.
type Notifier interface {
	Publish(routingKey string, message any) error
}

// Service периодически понижает истекшие подписки.
type Service struct {
	repo     ExpirationRepository
	enforcer LimitEnforcer
	notifier Notifier
	log      *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo ExpirationRepository, enforcer LimitEnforcer, notifier Notifier, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		enforcer: enforcer,
		notifier: notifier,
		log:      log,
	}
}

// Run запускает периодический проход по истекшим подпискам до отмены контекста.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	if _, err := s.ExpireDue(ctx); err != nil {
		s.log.Error("expiration sweep failed", sl.Err(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("expiration sweep stopped")
			return
		case <-ticker.C:
			if _, err := s.ExpireDue(ctx); err != nil {
				s.log.Error("expiration sweep failed", sl.Err(err))
			}
		}
	}
}

// ExpireDue понижает всех пользователей с истекшей платной подпиской и
// возвращает их число. Параллельные проходы делят кандидатов между собой,
// поэтому каждый пользователь понижается ровно один раз.
func (s *Service) ExpireDue(ctx context.Context) (int, error) {
	expired, err := s.repo.ExpireDueUsers(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errs.ErrPersistence, err)
	}
	if len(expired) == 0 {
		s.log.Info("no expired subscriptions found")
		return 0, nil
	}

	s.log.Info("found expired subscriptions", slog.Int("count", len(expired)))
	metrics.SubscriptionsExpired.Add(float64(len(expired)))
	for _, uid := range expired {
		s.downgradeFollowup(ctx, uid)
	}
	return len(expired), nil
}

// ExpireUser понижает одного пользователя, если его подписка истекла.
// Возвращает true, когда понижение состоялось.
func (s *Service) ExpireUser(ctx context.Context, userUID string) (bool, error) {
	expired, err := s.repo.ExpireDueUsers(ctx, &userUID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", errs.ErrPersistence, err)
	}
	if len(expired) == 0 {
		return false, nil
	}
	s.downgradeFollowup(ctx, userUID)
	return true, nil
}

// downgradeFollowup выполняет последствия понижения: лимит объявлений,
// строку уведомления и сообщение в очередь. Ошибки здесь не откатывают
// уже состоявшееся понижение и только логируются.
func (s *Service) downgradeFollowup(ctx context.Context, userUID string) {
	hidden, err := s.enforcer.Enforce(ctx, userUID)
	if err != nil {
		s.log.Error("failed to enforce listing limit after downgrade",
			slog.String("user_uid", userUID), sl.Err(err))
	}

	body := "Your subscription has expired and your account was moved to the FREE plan."

	if _, err := s.repo.CreateNotification(ctx, models.Notification{
		UserUID: userUID,
		Title:   "Subscription expired",
		Body:    body,
	}); err != nil {
		s.log.Error("failed to create expiration notification",
			slog.String("user_uid", userUID), sl.Err(err))
	}

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		s.log.Warn("failed to load user for notification", sl.Err(err))
		return
	}
	if err := s.notifier.Publish("subscription", models.NotificationMessage{
		Email:    user.Email,
		Username: user.Username,
		Title:    "Subscription expired",
		Body:     body,
	}); err != nil {
		s.log.Warn("failed to publish notification", sl.Err(err))
	}

	if hidden > 0 {
		if err := s.notifier.Publish("listings", models.NotificationMessage{
			Email:    user.Email,
			Username: user.Username,
			Title:    "Listings hidden",
			Body:     fmt.Sprintf("%d of your newest listings were hidden to fit the FREE plan limit.", hidden),
		}); err != nil {
			s.log.Warn("failed to publish listings notification", sl.Err(err))
		}
	}

	s.log.Info("downgraded expired subscription",
		slog.String("user_uid", userUID), slog.Int("hidden_listings", hidden))
}
