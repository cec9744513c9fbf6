package expire

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) ExpireDue(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *ServiceMock) ExpireUser(ctx context.Context, userUID string) (bool, error) {
	args := m.Called(ctx, userUID)
	return args.Bool(0), args.Error(1)
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
			name: "проход без тела понижает всех истекших",
			body: "",
			setupMocks: func(s *ServiceMock) {
				s.On("ExpireDue", mock.Anything).Return(3, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"expired":3`,
		},
		{
			name: "проход по одному пользователю",
			body: `{"user_uid": "user-1"}`,
			setupMocks: func(s *ServiceMock) {
				s.On("ExpireUser", mock.Anything, "user-1").Return(true, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"expired":1`,
		},
		{
			name: "действующая подписка дает expired 0",
			body: `{"user_uid": "user-1"}`,
			setupMocks: func(s *ServiceMock) {
				s.On("ExpireUser", mock.Anything, "user-1").Return(false, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"expired":0`,
		},
		{
			name: "ошибка прохода дает 500",
			body: "",
			setupMocks: func(s *ServiceMock) {
				s.On("ExpireDue", mock.Anything).Return(0, errors.New("deadlock detected"))
			},
			wantStatus: http.StatusInternalServerError,
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

			req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/expire", strings.NewReader(tt.body))
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
