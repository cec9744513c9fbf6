package limit

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

func (m *ServiceMock) UpdateLimit(ctx context.Context, tierName string, limit int) error {
	return m.Called(ctx, tierName, limit).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMocks func(s *ServiceMock)
		wantStatus int
		wantBody   string
	}{
		{
			name: "успешное обновление лимита PRO",
			body: `{"tier": "PRO", "limit": 75}`,
			setupMocks: func(s *ServiceMock) {
				s.On("UpdateLimit", mock.Anything, "PRO", 75).Return(nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"limit":75`,
		},
		{
			name: "неизвестный уровень дает 422",
			body: `{"tier": "GOLD", "limit": 10}`,
			setupMocks: func(s *ServiceMock) {
				s.On("UpdateLimit", mock.Anything, "GOLD", 10).
					Return(fmt.Errorf("%w: неизвестный уровень GOLD", errs.ErrValidation))
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "GOLD",
		},
		{
			name:       "нулевой лимит отсекается валидатором",
			body:       `{"tier": "FREE", "limit": 0}`,
			setupMocks: func(_ *ServiceMock) {},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "ошибка хранилища дает 500",
			body: `{"tier": "ELITE", "limit": 120}`,
			setupMocks: func(s *ServiceMock) {
				s.On("UpdateLimit", mock.Anything, "ELITE", 120).
					Return(fmt.Errorf("%w: connection refused", errs.ErrPersistence))
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "битый JSON дает 400",
			body:       `{broken`,
			setupMocks: func(_ *ServiceMock) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(ServiceMock)
			tt.setupMocks(service)
			handler := New(newNoopLogger(), service)

			req := httptest.NewRequest(http.MethodPut, "/api/v1/listings/limits", strings.NewReader(tt.body))
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
