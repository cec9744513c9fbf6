// Package paymentwebhook реализует HTTP-обработчик событий платежного шлюза.
//
// Обработчик проверяет подпись HMAC в заголовке Paymongo-Signature по
// сырому телу запроса и передает событие сервису сверки. Шлюз повторяет
// доставку до получения 200, поэтому повторные события обязаны
// завершаться успешно.
package paymentwebhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/marketplace-billing/internal/lib/errs"
	"github.com/magabrotheeeer/marketplace-billing/internal/lib/sl"
	"github.com/magabrotheeeer/marketplace-billing/internal/metrics"
	"github.com/magabrotheeeer/marketplace-billing/internal/paymentprovider"
)

// SignatureHeader заголовок с подписью HMAC-SHA256 сырого тела запроса.
const SignatureHeader = "Paymongo-Signature"

// Service описывает интерфейс сервиса сверки платежей.
type Service interface {
	ProcessWebhookEvent(ctx context.Context, event *paymentprovider.WebhookEvent) error
}

// Handler обрабатывает события webhook платежного шлюза.
type Handler struct {
	log           *slog.Logger // Логгер для записи информации и ошибок
	service       Service
	webhookSecret string // Секрет для проверки подписи
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service, webhookSecret string) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		webhookSecret: webhookSecret,
	}
}

// ServeHTTP godoc
// @Summary Принять событие платежного шлюза
// @Description Проверяет подпись HMAC и применяет событие к платежам. Повторные события безопасны.
// @Tags Payments
// @Accept json
// @Produce json
// @Param Paymongo-Signature header string true "Подпись HMAC-SHA256 тела запроса"
// @Success 200 {object} map[string]bool "Событие принято"
// @Failure 400 {object} map[string]string "Невалидное тело запроса"
// @Failure 401 {object} map[string]string "Невалидная подпись"
// @Failure 500 {object} map[string]string "Ошибка обработки события"
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		metrics.WebhookEvents.WithLabelValues(metrics.WebhookResultMalformed).Inc()
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "Invalid request body"})
		return
	}
	defer r.Body.Close()

	if err := h.authenticate(body, r.Header.Get(SignatureHeader)); err != nil {
		log.Error("rejected webhook", sl.Err(err))
		metrics.WebhookEvents.WithLabelValues(metrics.WebhookResultInvalidSignature).Inc()
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, map[string]string{"error": "Invalid signature"})
		return
	}

	var event paymentprovider.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Error("failed to unmarshal webhook payload", sl.Err(err))
		metrics.WebhookEvents.WithLabelValues(metrics.WebhookResultMalformed).Inc()
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "Invalid request body"})
		return
	}

	if err := h.service.ProcessWebhookEvent(r.Context(), &event); err != nil {
		log.Error("failed to process webhook event", sl.Err(err))
		metrics.WebhookEvents.WithLabelValues(metrics.WebhookResultError).Inc()
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": "Failed to process event"})
		return
	}

	log.Info("webhook processed",
		slog.String("event", event.Kind()),
		slog.String("provider_payment_id", event.ProviderPaymentID()))
	metrics.WebhookEvents.WithLabelValues(metrics.WebhookResultProcessed).Inc()
	w.WriteHeader(http.StatusOK)
	render.JSON(w, r, map[string]bool{"received": true})
}

// authenticate сверяет подпись HMAC сырого тела запроса с секретом webhook.
func (h *Handler) authenticate(body []byte, signature string) error {
	if signature == "" {
		return fmt.Errorf("%w: missing %s header", errs.ErrAuthentication, SignatureHeader)
	}
	if !paymentprovider.VerifySignature(h.webhookSecret, body, signature) {
		return fmt.Errorf("%w: webhook signature mismatch", errs.ErrAuthentication)
	}
	return nil
}
