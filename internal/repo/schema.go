package repo

import (
	"context"
	"fmt"
)

// EnsureSchema создаёт служебные таблицы Conveyor, если их ещё нет.
//
// Таблицы core."aiAgentConfig", core."dataSource", core."objectMetadata",
// core."fieldMetadata" и таблицы workspace принадлежат основному продукту
// и здесь не создаются.
func EnsureSchema(ctx context.Context, db DBTX) error {
	_, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS core."conveyorTrigger" (
			name        text PRIMARY KEY,
			pattern     text NOT NULL,
			enabled     boolean NOT NULL DEFAULT true,
			"updatedAt" timestamptz NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("create conveyorTrigger: %w", err)
	}
	return nil
}
