package upgrade

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/marketplace-billing/internal/lib/errs"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) UpgradeSubscription(ctx context.Context, userUID string, tierName string) error {
	return m.Called(ctx, userUID, tierName).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

const userUID = "3f6b9e2a-8f61-4a7d-9b3e-1c2d4e5f6a7b"

func TestHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMocks func(s *ServiceMock)
		wantStatus int
		wantBody   string
	}{
		{
			name: "успешное повышение до PRO",
			body: fmt.Sprintf(`{"user_uid": %q, "tier": "PRO"}`, userUID),
			setupMocks: func(s *ServiceMock) {
				s.On("UpgradeSubscription", mock.Anything, userUID, "PRO").Return(nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "GOLD отклоняется с ошибкой валидации",
			body: fmt.Sprintf(`{"user_uid": %q, "tier": "GOLD"}`, userUID),
			setupMocks: func(s *ServiceMock) {
				s.On("UpgradeSubscription", mock.Anything, userUID, "GOLD").
					Return(fmt.Errorf("%w: unknown subscription tier %q", errs.ErrValidation, "GOLD"))
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "GOLD",
		},
		{
			name:       "пустой tier дает 422",
			body:       fmt.Sprintf(`{"user_uid": %q}`, userUID),
			setupMocks: func(s *ServiceMock) {},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "неизвестный пользователь дает 404",
			body: fmt.Sprintf(`{"user_uid": %q, "tier": "ELITE"}`, userUID),
			setupMocks: func(s *ServiceMock) {
				s.On("UpgradeSubscription", mock.Anything, userUID, "ELITE").
					Return(fmt.Errorf("%w: user %s", errs.ErrNotFound, userUID))
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "битый JSON дает 400",
			body:       `{broken`,
			setupMocks: func(s *ServiceMock) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(ServiceMock)
			tt.setupMocks(service)
			handler := New(newNoopLogger(), service)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/upgrade", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
			service.AssertExpectations(t)
		})
	}
}
