package domain

import "time"

// DefaultTriggerName — имя единственного триггера продвижения стадий.
const DefaultTriggerName = "pipeline-advance"

// Trigger — сохранённая регистрация периодического триггера.
//
// Scheduler восстанавливает её при старте, чтобы перезапуск процесса
// не снимал триггер, поставленный оператором.
type Trigger struct {
	// Name — имя триггера.
	Name string `json:"name"`

	// Pattern — cron-выражение или дескриптор (@every 30s, @hourly).
	Pattern string `json:"pattern"`

	// Enabled — false после stop.
	Enabled bool `json:"enabled"`

	UpdatedAt time.Time `json:"updated_at"`
}
