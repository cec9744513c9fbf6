// Package paymentreconcile реализует HTTP-обработчик ручной сверки платежа.
//
// Ручка используется администратором, когда событие webhook потерялось:
// платеж по его ID доводится до completed вместе со всеми последствиями.
package paymentreconcile

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/marketplace-billing/internal/http/response"
	"github.com/magabrotheeeer/marketplace-billing/internal/lib/errs"
	"github.com/magabrotheeeer/marketplace-billing/internal/lib/sl"
)

// Handler управляет HTTP-запросами на ручную сверку платежей.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service
}

// Service описывает интерфейс бизнес-логики сверки платежа.
type Service interface {
	ReconcilePayment(ctx context.Context, paymentID int) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Вручную завершить платеж
// @Description Доводит ожидающий платеж до completed, как если бы пришло событие webhook.
// @Tags Payments
// @Produce json
// @Param id path int true "ID платежа"
// @Success 200 {object} response.Response "Платеж завершен"
// @Failure 400 {object} response.ErrorResponse "Невалидный ID"
// @Failure 404 {object} response.ErrorResponse "Платеж не найден"
// @Failure 422 {object} response.ErrorResponse "Платеж уже в терминальном статусе"
// @Security BearerAuth
// @Router /payments/{id}/reconcile [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.reconcile"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		log.Error("invalid payment id", slog.String("id", idStr))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid payment id"))
		return
	}

	if err := h.service.ReconcilePayment(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, errs.ErrNotFound):
			log.Error("payment not found", slog.Int("id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("payment not found"))
		case errors.Is(err, errs.ErrValidation):
			log.Error("payment is not pending", sl.Err(err))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error(err.Error()))
		default:
			log.Error("failed to reconcile payment", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not reconcile payment"))
		}
		return
	}

	log.Info("payment reconciled", slog.Int("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"payment_id": id,
	}))
}
