package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/marketplace-billing/internal/models"
)

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, username, subscription_tier, subscription_status, subscription_ends_at
			  FROM users
			  WHERE uid = $1`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, userUID)

	var endsAt sql.NullTime
	if err := row.Scan(&u.UID, &u.Email, &u.Username,
		&u.SubscriptionTier, &u.SubscriptionStatus, &endsAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if endsAt.Valid {
		u.SubscriptionEndsAt = &endsAt.Time
	}
	return u, nil
}

// UpgradeSubscription атомарно повышает уровень подписки пользователя,
// дописывает журнал и создает уведомление. Возвращает количество
// измененных строк users: 0 означает, что пользователь не найден.
func (s *Storage) UpgradeSubscription(ctx context.Context, params models.UpgradeSubscriptionParams) (int, error) {
	const op = "storage.UpgradeSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx,
		`UPDATE users
		 SET subscription_tier = $1, subscription_status = $2, subscription_ends_at = $3
		 WHERE uid = $4`,
		params.Tier, models.SubscriptionActive, params.EndsAt, params.UserUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return 0, nil
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO subscription_log (user_uid, tier, amount) VALUES ($1, $2, $3)`,
		params.UserUID, params.Tier, params.Amount)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO notifications (user_uid, title, body) VALUES ($1, $2, $3)`,
		params.UserUID, params.NotificationTitle, params.NotificationBody)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ExpireDueUsers находит пользователей с истекшей платной подпиской и
// переводит их на FREE/EXPIRED в одной транзакции. Кандидаты выбираются
// с FOR UPDATE SKIP LOCKED, поэтому параллельные проходы делят строки
// между собой, а не соревнуются. Повторный запуск по уже истекшему
// пользователю отфильтровывается условием subscription_status = ACTIVE.
// userUID сужает проход до одного пользователя (проверка при входе).
func (s *Storage) ExpireDueUsers(ctx context.Context, userUID *string) ([]string, error) {
	const op = "storage.ExpireDueUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `SELECT uid
			  FROM users
			  WHERE subscription_status = $1
			    AND subscription_tier <> $2
			    AND subscription_ends_at <= NOW()`
	args := []any{models.SubscriptionActive, models.TierFree}
	if userUID != nil {
		query += ` AND uid = $3`
		args = append(args, *userUID)
	}
	query += ` FOR UPDATE SKIP LOCKED`

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var expired []string
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		expired = append(expired, uid)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	err = rows.Close()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if len(expired) == 0 {
		return nil, nil
	}

	updateQuery := fmt.Sprintf(
		`UPDATE users
		 SET subscription_tier = $1, subscription_status = $2, subscription_ends_at = NULL
		 WHERE uid IN (%s)`, placeholders(3, len(expired)))
	updateArgs := []any{models.TierFree, models.SubscriptionExpired}
	for _, uid := range expired {
		updateArgs = append(updateArgs, uid)
	}
	if _, err = tx.ExecContext(ctx, updateQuery, updateArgs...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return expired, nil
}
