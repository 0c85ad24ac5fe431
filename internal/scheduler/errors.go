package scheduler

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPattern — cron-выражение не разбирается.
	ErrInvalidPattern = errors.New("invalid cron pattern")

	// ErrRunInProgress — предыдущий run ещё выполняется, тик пропущен.
	ErrRunInProgress = errors.New("run already in progress")
)

type panicError struct {
	value any
}

func (e panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

func errPanic(v any) error {
	return panicError{value: v}
}
