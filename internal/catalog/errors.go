package catalog

import "errors"

// ErrIdentifierRejected — имя не прошло allow-list или не является
// допустимым SQL-идентификатором.
//
// Всегда оборачивается вместе с repo.ErrNotFound: для вызывающего
// это та же «конфигурация не найдена».
var ErrIdentifierRejected = errors.New("identifier rejected by allow-list")
