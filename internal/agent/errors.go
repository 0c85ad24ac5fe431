package agent

import "errors"

var (
	// ErrInvocationFailed — вызов агента не завершился успешно.
	ErrInvocationFailed = errors.New("agent invocation failed")

	// ErrNotConfigured — не задан адрес агента.
	ErrNotConfigured = errors.New("agent endpoint is not configured")
)
