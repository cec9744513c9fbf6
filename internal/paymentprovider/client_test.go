package paymentprovider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/marketplace-billing/internal/lib/errs"
)

func TestClient_CreatePaymentLink(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		response   string
		wantID     string
		wantErr    bool
		wantDetail string
	}{
		{
			name:   "успешное создание ссылки",
			status: http.StatusOK,
			response: `{"data":{"id":"link_123","attributes":{
				"checkout_url":"https://pm.link/abc","status":"unpaid","amount":19900}}}`,
			wantID: "link_123",
		},
		{
			name:       "ошибка шлюза с текстом",
			status:     http.StatusBadRequest,
			response:   `{"errors":[{"code":"parameter_below_minimum","detail":"amount must be at least 10000"}]}`,
			wantErr:    true,
			wantDetail: "amount must be at least 10000",
		},
		{
			name:     "ошибка шлюза без тела",
			status:   http.StatusInternalServerError,
			response: ``,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/links", r.URL.Path)
				assert.NotEmpty(t, r.Header.Get("Authorization"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.response))
			}))
			defer srv.Close()

			client := NewClientWithURL("sk_test", srv.URL)
			link, err := client.CreatePaymentLink(context.Background(), CreatePaymentLinkRequest{
				Amount:      19900,
				Description: "PRO subscription",
			})

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, errs.ErrExternal)
				if tt.wantDetail != "" {
					assert.Contains(t, err.Error(), tt.wantDetail)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, link.ID)
			assert.Equal(t, "https://pm.link/abc", link.CheckoutURL)
		})
	}
}

func TestClient_RetrievePaymentIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/payment_intents/pi_123", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":{"id":"pi_123","attributes":{"status":"succeeded","amount":49900,"currency":"PHP"}}}`))
	}))
	defer srv.Close()

	client := NewClientWithURL("sk_test", srv.URL)
	intent, err := client.RetrievePaymentIntent(context.Background(), "pi_123")

	require.NoError(t, err)
	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, "succeeded", intent.Status)
	assert.Equal(t, int64(49900), intent.Amount)
}

func TestWebhookEvent_Accessors(t *testing.T) {
	event := WebhookEvent{}
	event.Data.ID = "evt_1"
	event.Data.Attributes.Type = EventLinkPaymentPaid
	event.Data.Attributes.Data.ID = "link_123"
	event.Data.Attributes.Data.Attributes.Metadata = map[string]string{"tier": "PRO"}

	assert.Equal(t, EventLinkPaymentPaid, event.Kind())
	assert.Equal(t, "link_123", event.ProviderPaymentID())
	assert.Equal(t, "PRO", event.Metadata()["tier"])
}
