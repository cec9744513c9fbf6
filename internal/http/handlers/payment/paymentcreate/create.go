// Package paymentcreate реализует HTTP-обработчик создания ссылки на оплату подписки.
//
// Handler принимает JSON-запрос с пользователем и целевым уровнем, валидирует
// его, создает через сервис сверки ожидающий платеж и платежную ссылку в шлюзе
// и возвращает URL оплаты.
package paymentcreate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/marketplace-billing/internal/http/response"
	"github.com/magabrotheeeer/marketplace-billing/internal/lib/errs"
	"github.com/magabrotheeeer/marketplace-billing/internal/lib/sl"
	"github.com/magabrotheeeer/marketplace-billing/internal/services/reconciler"
)

// Handler управляет HTTP-запросами на создание ссылок на оплату.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис сверки платежей
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики создания оплаты.
type Service interface {
	CreateCheckout(ctx context.Context, userUID string, tierName string) (*reconciler.CheckoutResult, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// Request тело запроса на создание оплаты.
type Request struct {
	UserUID string `json:"user_uid" validate:"required,uuid"`
	Tier    string `json:"tier" validate:"required"`
}

// ServeHTTP godoc
// @Summary Создать ссылку на оплату подписки
// @Description Создает ожидающий платеж и платежную ссылку в шлюзе. Возвращает URL оплаты.
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body Request true "Пользователь и целевой уровень подписки"
// @Success 200 {object} response.Response "Ссылка создана"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 422 {object} response.Response "Ошибка валидации"
// @Failure 502 {object} response.ErrorResponse "Ошибка платежного шлюза"
// @Security BearerAuth
// @Router /payments/checkout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	result, err := h.service.CreateCheckout(r.Context(), req.UserUID, req.Tier)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrValidation):
			log.Error("invalid checkout request", sl.Err(err))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error(err.Error()))
		case errors.Is(err, errs.ErrNotFound):
			log.Error("user not found", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
		case errors.Is(err, errs.ErrExternal):
			log.Error("payment gateway error", sl.Err(err))
			w.WriteHeader(http.StatusBadGateway)
			render.JSON(w, r, response.Error(err.Error()))
		default:
			log.Error("failed to create checkout", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not create checkout"))
		}
		return
	}

	log.Info("checkout created", slog.Int("payment_id", result.PaymentID))
	render.JSON(w, r, response.StatusOKWithData(result))
}
