// Package repository реализует хранилище данных на основе PostgreSQL
// для биллинга маркетплейса. Предоставляет методы работы с платежами,
// подписками пользователей, объявлениями, настройками и уведомлениями.
// Многошаговые изменения выполняются в одной транзакции.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func (s *Storage) CheckDatabaseReady(ctx context.Context) error {
	var exists bool
	err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'payments'
    )`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("required table payments missing or query error: %w", err)
	}
	if !exists {
		return fmt.Errorf("required table payments missing")
	}
	return nil
}

// placeholders возвращает строку вида "$2, $3, $4" для подстановки
// списка значений начиная с номера start.
func placeholders(start, count int) string {
	parts := make([]string, count)
	for i := range count {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}
