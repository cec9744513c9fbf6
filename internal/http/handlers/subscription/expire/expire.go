// Package expire реализует HTTP-обработчик немедленного прохода по истечениям.
//
// Без тела запроса понижаются все пользователи с истекшей подпиской; с телом
// {"user_uid": ...} проход сужается до одного пользователя.
package expire

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/marketplace-billing/internal/http/response"
	"github.com/magabrotheeeer/marketplace-billing/internal/lib/sl"
)

// Handler управляет HTTP-запросами на запуск прохода по истечениям.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service
}

// Service описывает интерфейс прохода по истекшим подпискам.
type Service interface {
	ExpireDue(ctx context.Context) (int, error)
	ExpireUser(ctx context.Context, userUID string) (bool, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// Request необязательное тело запроса, сужающее проход до одного пользователя.
type Request struct {
	UserUID string `json:"user_uid"`
}

// ServeHTTP godoc
// @Summary Запустить проход по истекшим подпискам
// @Description Понижает пользователей с истекшей платной подпиской до FREE. Повторный запуск безопасен.
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param request body Request false "Необязательное сужение до одного пользователя"
// @Success 200 {object} response.Response "Число пониженных пользователей"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 500 {object} response.ErrorResponse "Ошибка прохода"
// @Security BearerAuth
// @Router /subscriptions/expire [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.expire"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	var expiredCount int
	if req.UserUID != "" {
		expired, err := h.service.ExpireUser(r.Context(), req.UserUID)
		if err != nil {
			log.Error("failed to expire user", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not expire subscription"))
			return
		}
		if expired {
			expiredCount = 1
		}
	} else {
		count, err := h.service.ExpireDue(r.Context())
		if err != nil {
			log.Error("failed to run expiration sweep", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not run expiration sweep"))
			return
		}
		expiredCount = count
	}

	log.Info("expiration sweep finished", slog.Int("expired", expiredCount))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"expired": expiredCount,
	}))
}
