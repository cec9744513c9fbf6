package listinglimit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/marketplace-billing/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *RepoMock) ListActiveListings(ctx context.Context, userUID string) ([]*models.Listing, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Listing), args.Error(1)
}
func (m *RepoMock) HideListings(ctx context.Context, userUID string, ids []int, notificationTitle, notificationBody string) (int, error) {
	args := m.Called(ctx, userUID, ids, notificationTitle, notificationBody)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) GetSetting(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}
func (m *RepoMock) SetSetting(ctx context.Context, key, value string) error {
	return m.Called(ctx, key, value).Error(0)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}
func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}
func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

// newestFirst строит список объявлений так, как его отдает хранилище:
// первым идет самое новое.
func newestFirst(ids ...int) []*models.Listing {
	now := time.Now()
	listings := make([]*models.Listing, 0, len(ids))
	for i, id := range ids {
		listings = append(listings, &models.Listing{
			ID:        id,
			UserUID:   "user-1",
			Status:    models.ListingAvailable,
			CreatedAt: now.Add(-time.Duration(i) * time.Minute),
		})
	}
	return listings
}

func freeUser() *models.User {
	return &models.User{
		UID:              "user-1",
		Email:            "seller@example.com",
		Username:         "seller",
		SubscriptionTier: models.TierFree,
	}
}

func TestEnforcer_Enforce(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(r *RepoMock, c *CacheMock)
		wantHidden int
		wantErr    bool
	}{
		{
			name: "скрываются только самые новые сверх лимита",
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("GetUser", mock.Anything, "user-1").Return(freeUser(), nil)
				c.On("Get", "settings:max_listings_free", mock.Anything).Return(false, nil)
				r.On("GetSetting", mock.Anything, "max_listings_free").Return("3", true, nil)
				c.On("Set", "settings:max_listings_free", 3, mock.Anything).Return(nil)
				// 5 объявлений, лимит 3: прячутся два новейших, 50 и 40
				r.On("ListActiveListings", mock.Anything, "user-1").
					Return(newestFirst(50, 40, 30, 20, 10), nil)
				r.On("HideListings", mock.Anything, "user-1", []int{50, 40}, mock.Anything, mock.Anything).
					Return(2, nil)
			},
			wantHidden: 2,
		},
		{
			name: "пользователь в пределах лимита не трогается",
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("GetUser", mock.Anything, "user-1").Return(freeUser(), nil)
				c.On("Get", "settings:max_listings_free", mock.Anything).Return(false, nil)
				r.On("GetSetting", mock.Anything, "max_listings_free").Return("", false, nil)
				r.On("ListActiveListings", mock.Anything, "user-1").
					Return(newestFirst(30, 20, 10), nil)
			},
			wantHidden: 0,
		},
		{
			name: "лимит берется из кеша без похода в настройки",
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("GetUser", mock.Anything, "user-1").Return(freeUser(), nil)
				c.On("Get", "settings:max_listings_free", mock.Anything).
					Run(func(args mock.Arguments) {
						*args.Get(1).(*int) = 1
					}).Return(true, nil)
				r.On("ListActiveListings", mock.Anything, "user-1").
					Return(newestFirst(20, 10), nil)
				r.On("HideListings", mock.Anything, "user-1", []int{20}, mock.Anything, mock.Anything).
					Return(1, nil)
			},
			wantHidden: 1,
		},
		{
			name: "кривая настройка откатывается на значение по умолчанию",
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("GetUser", mock.Anything, "user-1").Return(freeUser(), nil)
				c.On("Get", "settings:max_listings_free", mock.Anything).Return(false, nil)
				r.On("GetSetting", mock.Anything, "max_listings_free").Return("not-a-number", true, nil)
				// лимит FREE по умолчанию 10, объявлений 11
				r.On("ListActiveListings", mock.Anything, "user-1").
					Return(newestFirst(110, 100, 90, 80, 70, 60, 50, 40, 30, 20, 10), nil)
				r.On("HideListings", mock.Anything, "user-1", []int{110}, mock.Anything, mock.Anything).
					Return(1, nil)
			},
			wantHidden: 1,
		},
		{
			name: "ошибка хранилища поднимается наверх",
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("GetUser", mock.Anything, "user-1").Return(nil, errors.New("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			tt.setupMocks(repo, cache)

			enforcer := New(repo, cache, newNoopLogger())
			hidden, err := enforcer.Enforce(context.Background(), "user-1")

			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHidden, hidden)
			repo.AssertExpectations(t)
		})
	}
}

func TestEnforcer_UpdateLimit(t *testing.T) {
	tests := []struct {
		name       string
		tier       string
		limit      int
		setupMocks func(r *RepoMock, c *CacheMock)
		wantErr    string
	}{
		{
			name:  "успешное обновление лимита сбрасывает кеш",
			tier:  "pro",
			limit: 75,
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("SetSetting", mock.Anything, "max_listings_pro", "75").Return(nil)
				c.On("Invalidate", "settings:max_listings_pro").Return(nil)
			},
		},
		{
			name:       "неизвестный уровень отклоняется",
			tier:       "GOLD",
			limit:      10,
			setupMocks: func(_ *RepoMock, _ *CacheMock) {},
			wantErr:    "GOLD",
		},
		{
			name:       "неположительный лимит отклоняется",
			tier:       "FREE",
			limit:      0,
			setupMocks: func(_ *RepoMock, _ *CacheMock) {},
			wantErr:    "limit must be positive",
		},
		{
			name:  "ошибка кеша не мешает обновлению",
			tier:  "ELITE",
			limit: 120,
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("SetSetting", mock.Anything, "max_listings_elite", "120").Return(nil)
				c.On("Invalidate", "settings:max_listings_elite").Return(errors.New("redis down"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			tt.setupMocks(repo, cache)

			enforcer := New(repo, cache, newNoopLogger())
			err := enforcer.UpdateLimit(context.Background(), tt.tier, tt.limit)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}
