package scheduler

import (
	"log/slog"

	"github.com/robfig/cron/v3"
)

// cronLogger — cron.Logger поверх slog.
// Info у cron очень разговорчивый, поэтому уходит в Debug.
type cronLogger struct {
	logger *slog.Logger
}

var _ cron.Logger = cronLogger{}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
