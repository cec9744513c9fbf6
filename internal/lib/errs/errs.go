// Package errs определяет виды ошибок биллинга. Конкретные ошибки
// оборачивают один из стражей через fmt.Errorf("%s: %w", op, ...),
// а HTTP-слой подбирает код ответа по errors.Is.
package errs

import "errors"

var (
	// ErrValidation некорректные входные данные: неизвестный tier,
	// искаженное событие webhook.
	ErrValidation = errors.New("validation error")
	// ErrAuthentication подпись webhook не прошла проверку.
	ErrAuthentication = errors.New("authentication error")
	// ErrNotFound пользователь или платеж не найден.
	ErrNotFound = errors.New("not found")
	// ErrExternal сбой обращения к платежному шлюзу.
	ErrExternal = errors.New("external service error")
	// ErrPersistence сбой транзакции хранилища; событие должно быть
	// повторено источником.
	ErrPersistence = errors.New("persistence error")
)
