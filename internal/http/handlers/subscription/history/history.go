// Package history реализует HTTP-обработчик журнала оформлений подписки
// пользователя.
package history

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/marketplace-billing/internal/http/response"
	"github.com/magabrotheeeer/marketplace-billing/internal/lib/sl"
	"github.com/magabrotheeeer/marketplace-billing/internal/models"
)

// Repository описывает доступ к журналу подписок в хранилище.
type Repository interface {
	ListSubscriptionLog(ctx context.Context, userUID string) ([]*models.SubscriptionLog, error)
}

// Handler управляет HTTP-запросами журнала подписок.
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
// @Summary Журнал оформлений подписки пользователя
// @Description Возвращает записи журнала подписок пользователя, новые первыми.
// @Tags Subscriptions
// @Produce json
// @Param user_uid path string true "UID пользователя"
// @Success 200 {object} response.Response "Записи журнала"
// @Failure 500 {object} response.ErrorResponse "Ошибка чтения журнала"
// @Security BearerAuth
// @Router /subscriptions/{user_uid}/history [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.history"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID := chi.URLParam(r, "user_uid")

	entries, err := h.repo.ListSubscriptionLog(r.Context(), userUID)
	if err != nil {
		log.Error("failed to list subscription history", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list subscription history"))
		return
	}

	log.Info("subscription history listed",
		slog.String("user_uid", userUID), slog.Int("count", len(entries)))
	render.JSON(w, r, response.StatusOKWithData(entries))
}
