// Package list реализует HTTP-обработчик списка уведомлений пользователя.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/marketplace-billing/internal/http/response"
	"github.com/magabrotheeeer/marketplace-billing/internal/lib/sl"
	"github.com/magabrotheeeer/marketplace-billing/internal/models"
)

// Repository описывает доступ к уведомлениям в хранилище.
type Repository interface {
	ListNotifications(ctx context.Context, userUID string, limit, offset int) ([]*models.Notification, error)
}

// Handler управляет HTTP-запросами списка уведомлений.
type Handler struct {
	log  *slog.Logger // Логгер для записи информации и ошибок
	repo Repository
}

// New создает новый Handler.
func New(log *slog.Logger, repo Repository) *Handler {
	return &Handler{
		log:  log,
		repo: repo,
	}
}

// ServeHTTP godoc
// @Summary Список уведомлений пользователя
// @Description Возвращает уведомления пользователя, новые первыми, с пагинацией.
// @Tags Notifications
// @Produce json
// @Param user_uid path string true "UID пользователя"
// @Param limit query int false "Размер страницы, по умолчанию 20"
// @Param offset query int false "Смещение, по умолчанию 0"
// @Success 200 {object} response.Response "Список уведомлений"
// @Failure 500 {object} response.ErrorResponse "Ошибка чтения уведомлений"
// @Security BearerAuth
// @Router /notifications/{user_uid} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notification.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID := chi.URLParam(r, "user_uid")

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	offset := 0
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	notifications, err := h.repo.ListNotifications(r.Context(), userUID, limit, offset)
	if err != nil {
		log.Error("failed to list notifications", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list notifications"))
		return
	}

	log.Info("notifications listed",
		slog.String("user_uid", userUID), slog.Int("count", len(notifications)))
	render.JSON(w, r, response.StatusOKWithData(notifications))
}
