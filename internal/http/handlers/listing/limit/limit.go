// Package limit реализует HTTP-обработчик изменения лимита активных
// объявлений для уровня подписки.
package limit

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

// Handler управляет HTTP-запросами на изменение лимита объявлений.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис лимитов объявлений
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс изменения лимита объявлений.
type Service interface {
	UpdateLimit(ctx context.Context, tierName string, limit int) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// Request тело запроса на изменение лимита.
type Request struct {
	Tier  string `json:"tier" validate:"required"`
	Limit int    `json:"limit" validate:"required,gt=0"`
}

// ServeHTTP godoc
// @Summary Изменить лимит объявлений для уровня подписки
// @Description Сохраняет новый лимит активных объявлений и сбрасывает его кеш. Уже видимые объявления не трогаются до следующего применения лимита.
// @Tags Listings
// @Accept json
// @Produce json
// @Param request body Request true "Уровень и новый лимит"
// @Success 200 {object} response.Response "Лимит обновлен"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.Response "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сохранения лимита"
// @Security BearerAuth
// @Router /listings/limits [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.listing.limit"
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

	if err := h.service.UpdateLimit(r.Context(), req.Tier, req.Limit); err != nil {
		if errors.Is(err, errs.ErrValidation) {
			log.Error("invalid limit update", sl.Err(err))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error(err.Error()))
			return
		}
		log.Error("failed to update listing limit", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not update listing limit"))
		return
	}

	log.Info("listing limit updated",
		slog.String("tier", req.Tier), slog.Int("limit", req.Limit))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"tier":  req.Tier,
		"limit": req.Limit,
	}))
}
