package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// GetSetting возвращает значение настройки системы по ключу.
// Отсутствие ключа не является ошибкой: вызывающий код подставляет
// встроенные значения по умолчанию.
func (s *Storage) GetSetting(ctx context.Context, key string) (string, bool, error) {
	const op = "storage.GetSetting"
	select {
	case <-ctx.Done():
		return "", false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT value FROM system_settings WHERE key = $1`
	var value string
	err := s.DB.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	return value, true, nil
}

// SetSetting сохраняет значение настройки системы.
func (s *Storage) SetSetting(ctx context.Context, key, value string) error {
	const op = "storage.SetSetting"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO system_settings (key, value) VALUES ($1, $2)
			  ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`
	if _, err := s.DB.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
