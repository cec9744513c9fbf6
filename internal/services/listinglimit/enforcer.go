// Package listinglimit применяет лимиты активных объявлений по уровню
// подписки: новые сверх лимита объявления скрываются, старые остаются
// видимыми.
package listinglimit

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/marketplace-billing/internal/lib/errs"
	"github.com/magabrotheeeer/marketplace-billing/internal/lib/sl"
	"github.com/magabrotheeeer/marketplace-billing/internal/models"
)

// settingsCacheTTL время жизни лимита в кеше.
const settingsCacheTTL = 10 * time.Minute

// ListingRepository определяет методы хранилища для применения лимитов.
type ListingRepository interface {
	// GetUser возвращает пользователя по UID.
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	// ListActiveListings возвращает активные объявления пользователя,
	// новые первыми.
	ListActiveListings(ctx context.Context, userUID string) ([]*models.Listing, error)
	// HideListings скрывает перечисленные объявления и создает уведомление.
	HideListings(ctx context.Context, userUID string, ids []int, notificationTitle, notificationBody string) (int, error)
	// GetSetting возвращает значение системной настройки.
	GetSetting(ctx context.Context, key string) (string, bool, error)
	// SetSetting сохраняет значение системной настройки.
	SetSetting(ctx context.Context, key, value string) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша.
	Invalidate(key string) error
}

// Enforcer приводит число активных объявлений пользователя к лимиту его уровня.
type Enforcer struct {
	repo  ListingRepository
	cache Cache
	log   *slog.Logger
}

// New создает новый экземпляр Enforcer.
func New(repo ListingRepository, cache Cache, log *slog.Logger) *Enforcer {
	return &Enforcer{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// Enforce скрывает объявления сверх лимита уровня пользователя и возвращает
// число скрытых. Скрываются самые новые объявления, старые переживают
// понижение. Повторный вызов на уже приведенном пользователе ничего не меняет.
func (e *Enforcer) Enforce(ctx context.Context, userUID string) (int, error) {
	user, err := e.repo.GetUser(ctx, userUID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errs.ErrPersistence, err)
	}

	limit := e.resolveLimit(ctx, user.SubscriptionTier)

	listings, err := e.repo.ListActiveListings(ctx, userUID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errs.ErrPersistence, err)
	}
	if len(listings) <= limit {
		return 0, nil
	}

	// ListActiveListings отдает объявления новыми вперед, поэтому первые
	// len-limit строк и есть кандидаты на скрытие.
	excess := listings[:len(listings)-limit]
	ids := make([]int, 0, len(excess))
	for _, l := range excess {
		ids = append(ids, l.ID)
	}

	hidden, err := e.repo.HideListings(ctx, userUID, ids,
		"Listings hidden",
		fmt.Sprintf("Your %s plan allows %d active listings. %d of your newest listings were hidden.",
			user.SubscriptionTier, limit, len(ids)))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errs.ErrPersistence, err)
	}

	e.log.Info("hid excess listings",
		slog.String("user_uid", userUID),
		slog.String("tier", string(user.SubscriptionTier)),
		slog.Int("limit", limit),
		slog.Int("hidden", hidden))
	return hidden, nil
}

// UpdateLimit сохраняет новый лимит объявлений для уровня и сбрасывает
// его кеш. Действует на новые проверки сразу, уже видимые объявления
// сверх нового лимита не трогаются до следующего применения.
func (e *Enforcer) UpdateLimit(ctx context.Context, tierName string, limit int) error {
	tier, ok := models.ParseTier(tierName)
	if !ok {
		return fmt.Errorf("%w: unknown subscription tier %q", errs.ErrValidation, tierName)
	}
	if limit <= 0 {
		return fmt.Errorf("%w: limit must be positive", errs.ErrValidation)
	}

	key := settingKey(tier)
	if err := e.repo.SetSetting(ctx, key, strconv.Itoa(limit)); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrPersistence, err)
	}
	if err := e.cache.Invalidate("settings:" + key); err != nil {
		e.log.Warn("failed to invalidate cached limit", slog.String("key", key), sl.Err(err))
	}

	e.log.Info("listing limit updated",
		slog.String("tier", string(tier)), slog.Int("limit", limit))
	return nil
}

// resolveLimit возвращает лимит объявлений для уровня: кеш, затем
// системные настройки, затем значение по умолчанию.
func (e *Enforcer) resolveLimit(ctx context.Context, tier models.Tier) int {
	key := settingKey(tier)
	cacheKey := "settings:" + key

	var cached int
	found, err := e.cache.Get(cacheKey, &cached)
	if err != nil {
		e.log.Warn("failed to read limit from cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found && cached > 0 {
		return cached
	}

	value, found, err := e.repo.GetSetting(ctx, key)
	if err != nil {
		e.log.Warn("failed to read limit setting", slog.String("key", key), sl.Err(err))
		return models.DefaultListingLimit(tier)
	}
	if found {
		limit, err := strconv.Atoi(value)
		if err != nil || limit <= 0 {
			e.log.Warn("ignoring malformed limit setting",
				slog.String("key", key), slog.String("value", value))
			return models.DefaultListingLimit(tier)
		}
		if err := e.cache.Set(cacheKey, limit, settingsCacheTTL); err != nil {
			e.log.Warn("failed to cache limit", slog.String("key", cacheKey), sl.Err(err))
		}
		return limit
	}
	return models.DefaultListingLimit(tier)
}

func settingKey(tier models.Tier) string {
	return "max_listings_" + strings.ToLower(string(tier))
}
