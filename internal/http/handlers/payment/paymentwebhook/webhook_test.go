package paymentwebhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/marketplace-billing/internal/lib/errs"
	"github.com/magabrotheeeer/marketplace-billing/internal/paymentprovider"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) ProcessWebhookEvent(ctx context.Context, event *paymentprovider.WebhookEvent) error {
	return m.Called(ctx, event).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

const webhookSecret = "whsk_test"

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

const paidBody = `{
	"data": {
		"id": "evt_1",
		"attributes": {
			"type": "link.payment.paid",
			"data": {
				"id": "link_123",
				"attributes": {
					"amount": 19900,
					"status": "paid",
					"metadata": {"tier": "PRO"}
				}
			}
		}
	}
}`

func TestHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		signature  string
		setupMocks func(s *ServiceMock)
		wantStatus int
		wantBody   string
	}{
		{
			name:      "валидная подпись и событие дают 200",
			body:      paidBody,
			signature: sign(webhookSecret, []byte(paidBody)),
			setupMocks: func(s *ServiceMock) {
				s.On("ProcessWebhookEvent", mock.Anything, mock.MatchedBy(func(e *paymentprovider.WebhookEvent) bool {
					return e.Kind() == paymentprovider.EventLinkPaymentPaid &&
						e.ProviderPaymentID() == "link_123"
				})).Return(nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"received":true`,
		},
		{
			name:       "подпись другим секретом дает 401",
			body:       paidBody,
			signature:  sign("wrong-secret", []byte(paidBody)),
			setupMocks: func(s *ServiceMock) {},
			wantStatus: http.StatusUnauthorized,
			wantBody:   "Invalid signature",
		},
		{
			name:       "отсутствие подписи дает 401",
			body:       paidBody,
			signature:  "",
			setupMocks: func(s *ServiceMock) {},
			wantStatus: http.StatusUnauthorized,
			wantBody:   "Invalid signature",
		},
		{
			name:       "битый JSON с валидной подписью дает 400",
			body:       `{broken`,
			signature:  sign(webhookSecret, []byte(`{broken`)),
			setupMocks: func(s *ServiceMock) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:      "ошибка сервиса дает 500 и повтор доставки",
			body:      paidBody,
			signature: sign(webhookSecret, []byte(paidBody)),
			setupMocks: func(s *ServiceMock) {
				s.On("ProcessWebhookEvent", mock.Anything, mock.Anything).
					Return(errors.New("connection refused"))
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(ServiceMock)
			tt.setupMocks(service)
			handler := New(newNoopLogger(), service, webhookSecret)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", strings.NewReader(tt.body))
			if tt.signature != "" {
				req.Header.Set(SignatureHeader, tt.signature)
			}
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

// Отказ в доступе классифицируется как ошибка аутентификации.
func TestHandler_Authenticate(t *testing.T) {
	handler := New(newNoopLogger(), new(ServiceMock), webhookSecret)
	body := []byte(paidBody)

	t.Run("валидная подпись проходит", func(t *testing.T) {
		assert.NoError(t, handler.authenticate(body, sign(webhookSecret, body)))
	})

	t.Run("чужой секрет дает ошибку аутентификации", func(t *testing.T) {
		err := handler.authenticate(body, sign("wrong-secret", body))
		require.Error(t, err)
		assert.ErrorIs(t, err, errs.ErrAuthentication)
	})

	t.Run("отсутствие заголовка дает ошибку аутентификации", func(t *testing.T) {
		err := handler.authenticate(body, "")
		require.Error(t, err)
		assert.ErrorIs(t, err, errs.ErrAuthentication)
	})
}

// Изменение одного байта тела после подписания должно приводить к 401.
func TestHandler_ServeHTTP_TamperedBody(t *testing.T) {
	service := new(ServiceMock)
	handler := New(newNoopLogger(), service, webhookSecret)

	signature := sign(webhookSecret, []byte(paidBody))
	tampered := strings.Replace(paidBody, "19900", "19901", 1)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", strings.NewReader(tampered))
	req.Header.Set(SignatureHeader, signature)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	service.AssertNotCalled(t, "ProcessWebhookEvent", mock.Anything, mock.Anything)
}
