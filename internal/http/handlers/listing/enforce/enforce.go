// Package enforce реализует HTTP-обработчик ручного применения лимита
// объявлений к одному пользователю.
package enforce

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/marketplace-billing/internal/http/response"
	"github.com/magabrotheeeer/marketplace-billing/internal/lib/sl"
)

// Handler управляет HTTP-запросами на применение лимита объявлений.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис лимитов объявлений
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс применения лимита объявлений.
type Service interface {
	Enforce(ctx context.Context, userUID string) (int, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// Request тело запроса на применение лимита.
type Request struct {
	UserUID string `json:"user_uid" validate:"required,uuid"`
}

// ServeHTTP godoc
// @Summary Применить лимит объявлений к пользователю
// @Description Скрывает объявления сверх лимита уровня пользователя, новые первыми. Повторный вызов безопасен.
// @Tags Listings
// @Accept json
// @Produce json
// @Param request body Request true "Пользователь для применения лимита"
// @Success 200 {object} response.Response "Число скрытых объявлений"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.Response "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка применения лимита"
// @Security BearerAuth
// @Router /listings/enforce [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.listing.enforce"
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

	hidden, err := h.service.Enforce(r.Context(), req.UserUID)
	if err != nil {
		log.Error("failed to enforce listing limit", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not enforce listing limit"))
		return
	}

	log.Info("listing limit enforced",
		slog.String("user_uid", req.UserUID), slog.Int("hidden", hidden))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"hidden": hidden,
	}))
}
