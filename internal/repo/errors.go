package repo

import "errors"

// Общие ошибки репозиториев.
var (
	// ErrNotFound — запись не найдена в БД.
	ErrNotFound = errors.New("not found")

	// ErrInvalidIdentifier — идентификатор не может быть использован в SQL.
	ErrInvalidIdentifier = errors.New("invalid identifier")
)
