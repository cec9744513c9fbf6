package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/marketplace-billing/internal/models"
)

// SumRevenueSince подсчитывает по журналу подписок выручку и число
// оформлений начиная с указанной даты.
func (s *Storage) SumRevenueSince(ctx context.Context, since time.Time) (int64, int, error) {
	const op = "storage.SumRevenueSince"
	select {
	case <-ctx.Done():
		return 0, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COALESCE(SUM(amount), 0), COUNT(*)
			  FROM subscription_log
			  WHERE created_at >= $1`
	var total int64
	var count int
	if err := s.DB.QueryRowContext(ctx, query, since).Scan(&total, &count); err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, count, nil
}

// ListSubscriptionLog возвращает записи журнала пользователя, новые первыми.
func (s *Storage) ListSubscriptionLog(ctx context.Context, userUID string) ([]*models.SubscriptionLog, error) {
	const op = "storage.ListSubscriptionLog"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, tier, amount, created_at
			  FROM subscription_log
			  WHERE user_uid = $1
			  ORDER BY created_at DESC, id DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.SubscriptionLog
	for rows.Next() {
		var item models.SubscriptionLog
		if err := rows.Scan(&item.ID, &item.UserUID, &item.Tier, &item.Amount, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
