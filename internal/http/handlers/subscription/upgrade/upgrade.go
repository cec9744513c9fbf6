// Package upgrade реализует HTTP-обработчик ручного повышения подписки.
//
// Handler принимает JSON-запрос с пользователем и целевым уровнем, валидирует
// его и повышает подписку через сервис сверки без платежа.
package upgrade

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
)

// Handler управляет HTTP-запросами на повышение подписки.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис сверки платежей
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики повышения подписки.
type Service interface {
	UpgradeSubscription(ctx context.Context, userUID string, tierName string) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// Request тело запроса на повышение подписки.
type Request struct {
	UserUID string `json:"user_uid" validate:"required,uuid"`
	Tier    string `json:"tier" validate:"required"`
}

// ServeHTTP godoc
// @Summary Повысить подписку пользователя
// @Description Повышает уровень подписки без платежа, используется администратором.
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param request body Request true "Пользователь и целевой уровень подписки"
// @Success 200 {object} response.Response "Подписка повышена"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 422 {object} response.Response "Ошибка валидации"
// @Security BearerAuth
// @Router /subscriptions/upgrade [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.upgrade"
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

	if err := h.service.UpgradeSubscription(r.Context(), req.UserUID, req.Tier); err != nil {
		switch {
		case errors.Is(err, errs.ErrValidation):
			log.Error("invalid upgrade request", sl.Err(err))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error(err.Error()))
		case errors.Is(err, errs.ErrNotFound):
			log.Error("user not found", slog.String("user_uid", req.UserUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
		default:
			log.Error("failed to upgrade subscription", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not upgrade subscription"))
		}
		return
	}

	log.Info("subscription upgraded",
		slog.String("user_uid", req.UserUID), slog.String("tier", req.Tier))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"user_uid": req.UserUID,
		"tier":     req.Tier,
	}))
}
