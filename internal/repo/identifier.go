package repo

import "regexp"

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier проверяет, что имя схемы, таблицы или колонки состоит
// только из букв, цифр и подчёркиваний и не длиннее лимита PostgreSQL (63 байта).
func ValidIdentifier(name string) bool {
	return len(name) > 0 && len(name) <= 63 && identifierRe.MatchString(name)
}
