package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/magabrotheeeer/marketplace-billing/internal/models"
)

// CreatePayment вставляет новую запись платежа в статусе pending и возвращает её ID.
func (s *Storage) CreatePayment(ctx context.Context, p models.Payment) (int, error) {
	const op = "storage.CreatePayment"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	metadata, err := json.Marshal(p.Metadata)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO payments (user_uid, type, amount, status, provider_payment_id, metadata)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id`
	var newID int
	err = s.DB.QueryRowContext(ctx, query,
		p.UserUID, p.Type, p.Amount, models.PaymentPending, p.ProviderPaymentID, metadata).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// FindPendingPaymentByProviderID находит ожидающий платеж по идентификатору
// шлюза. Отсутствие записи не является ошибкой: повторные и запоздавшие
// события webhook должны превращаться в no-op.
func (s *Storage) FindPendingPaymentByProviderID(ctx context.Context, providerPaymentID string) (*models.Payment, bool, error) {
	const op = "storage.FindPendingPaymentByProviderID"
	select {
	case <-ctx.Done():
		return nil, false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, type, amount, status, provider_payment_id, metadata, paid_at, created_at
			  FROM payments
			  WHERE provider_payment_id = $1 AND status = $2`
	row := s.DB.QueryRowContext(ctx, query, providerPaymentID, models.PaymentPending)

	p, err := scanPayment(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return p, true, nil
}

// GetPayment возвращает платеж по его ID.
func (s *Storage) GetPayment(ctx context.Context, id int) (*models.Payment, error) {
	const op = "storage.GetPayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, type, amount, status, provider_payment_id, metadata, paid_at, created_at
			  FROM payments
			  WHERE id = $1`
	p, err := scanPayment(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*models.Payment, error) {
	var p models.Payment
	var metadata []byte
	var paidAt sql.NullTime
	if err := row.Scan(&p.ID, &p.UserUID, &p.Type, &p.Amount, &p.Status,
		&p.ProviderPaymentID, &metadata, &paidAt, &p.CreatedAt); err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
			return nil, err
		}
	}
	if paidAt.Valid {
		p.PaidAt = &paidAt.Time
	}
	return &p, nil
}

// CompletePayment завершает платеж в одной транзакции: переводит его в
// completed, при необходимости повышает уровень подписки, дописывает
// журнал и создает уведомление. Условие status = pending служит защелкой
// одиночного исполнителя: возврат 0 означает, что платеж уже обработан.
func (s *Storage) CompletePayment(ctx context.Context, params models.CompletePaymentParams) (int, error) {
	const op = "storage.CompletePayment"
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
		`UPDATE payments
		 SET status = $1, paid_at = NOW()
		 WHERE id = $2 AND status = $3`,
		models.PaymentCompleted, params.PaymentID, models.PaymentPending)
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

	if params.Tier != nil {
		_, err = tx.ExecContext(ctx,
			`UPDATE users
			 SET subscription_tier = $1, subscription_status = $2, subscription_ends_at = $3
			 WHERE uid = $4`,
			*params.Tier, models.SubscriptionActive, params.EndsAt, params.UserUID)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO subscription_log (user_uid, tier, amount) VALUES ($1, $2, $3)`,
			params.UserUID, *params.Tier, params.Amount)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
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

// MarkPaymentFailed переводит ожидающий платеж в failed и создает
// уведомление владельцу. Возвращает количество измененных строк:
// 0 означает, что подходящего ожидающего платежа не нашлось.
func (s *Storage) MarkPaymentFailed(ctx context.Context, providerPaymentID, notificationTitle, notificationBody string) (int, error) {
	const op = "storage.MarkPaymentFailed"
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

	var userUID string
	err = tx.QueryRowContext(ctx,
		`UPDATE payments
		 SET status = $1
		 WHERE provider_payment_id = $2 AND status = $3
		 RETURNING user_uid`,
		models.PaymentFailed, providerPaymentID, models.PaymentPending).Scan(&userUID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
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
	return 1, nil
}
