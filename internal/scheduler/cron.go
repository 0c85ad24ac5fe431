package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultPattern — раз в минуту.
const DefaultPattern = "*/1 * * * *"

// cronParser — пять полей плюс дескрипторы (@every 30s, @hourly).
var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ValidatePattern проверяет cron-выражение.
func ValidatePattern(pattern string) error {
	if pattern == "" {
		return fmt.Errorf("%w: empty pattern", ErrInvalidPattern)
	}
	if _, err := cronParser.Parse(pattern); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidPattern, pattern, err)
	}
	return nil
}

// NextFire возвращает следующее срабатывание pattern после from.
func NextFire(pattern string, from time.Time) (time.Time, error) {
	sched, err := cronParser.Parse(pattern)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %w", ErrInvalidPattern, pattern, err)
	}
	return sched.Next(from), nil
}
