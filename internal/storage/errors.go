package storage

import "errors"

var (
	ErrNotFound = errors.New("Запись не найдена")

	// ErrDuplicateKey is returned when a run id is already journaled. Runs are append-only.
	ErrDuplicateKey = errors.New("Запись уже существует")
)
