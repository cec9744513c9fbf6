// Package revenue реализует HTTP-обработчик отчета по выручке подписок.
//
// Отчет строится по журналу оформленных подписок за период, начало которого
// передается параметром days (по умолчанию 30).
package revenue

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/marketplace-billing/internal/http/response"
	"github.com/magabrotheeeer/marketplace-billing/internal/lib/sl"
)

// Repository описывает доступ к журналу оформленных подписок.
type Repository interface {
	SumRevenueSince(ctx context.Context, since time.Time) (int64, int, error)
}

// Handler управляет HTTP-запросами отчета по выручке.
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
// @Summary Отчет по выручке подписок
// @Description Возвращает сумму и число оформленных подписок за последние days дней.
// @Tags Subscriptions
// @Produce json
// @Param days query int false "Глубина отчета в днях, по умолчанию 30"
// @Success 200 {object} response.Response "Сумма в сентаво и число подписок"
// @Failure 400 {object} response.ErrorResponse "Невалидный параметр days"
// @Failure 500 {object} response.ErrorResponse "Ошибка построения отчета"
// @Security BearerAuth
// @Router /subscriptions/revenue [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.revenue"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	days := 30
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		parsed, err := strconv.Atoi(daysStr)
		if err != nil || parsed <= 0 {
			log.Error("invalid days parameter", slog.String("days", daysStr))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid days parameter"))
			return
		}
		days = parsed
	}

	since := time.Now().AddDate(0, 0, -days)
	total, count, err := h.repo.SumRevenueSince(r.Context(), since)
	if err != nil {
		log.Error("failed to sum revenue", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not build revenue report"))
		return
	}

	log.Info("revenue report built", slog.Int("days", days), slog.Int("subscriptions", count))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"days":           days,
		"total_centavos": total,
		"subscriptions":  count,
	}))
}
