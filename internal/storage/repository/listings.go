package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/marketplace-billing/internal/models"
)

// ListActiveListings возвращает объявления пользователя со статусом
// available или pending, отсортированные от новых к старым.
func (s *Storage) ListActiveListings(ctx context.Context, userUID string) ([]*models.Listing, error) {
	const op = "storage.ListActiveListings"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, title, status, created_at
			  FROM listings
			  WHERE user_uid = $1 AND status IN ($2, $3)
			  ORDER BY created_at DESC, id DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID, models.ListingAvailable, models.ListingPending)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Listing
	for rows.Next() {
		var item models.Listing
		if err := rows.Scan(&item.ID, &item.UserUID, &item.Title, &item.Status, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// HideListings скрывает перечисленные объявления одной транзакцией
// вместе с уведомлением владельцу. Возвращает количество скрытых строк.
func (s *Storage) HideListings(ctx context.Context, userUID string, ids []int, notificationTitle, notificationBody string) (int, error) {
	const op = "storage.HideListings"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := fmt.Sprintf(
		`UPDATE listings
		 SET status = $1
		 WHERE user_uid = $2 AND id IN (%s)`, placeholders(3, len(ids)))
	args := []any{models.ListingHidden, userUID}
	for _, id := range ids {
		args = append(args, id)
	}
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO notifications (user_uid, title, body) VALUES ($1, $2, $3)`,
		userUID, notificationTitle, notificationBody)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
