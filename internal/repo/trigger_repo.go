package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shaiso/Conveyor/internal/domain"
)

// TriggerRepo — сохранённые регистрации периодического триггера.
type TriggerRepo struct {
	db DBTX
}

// NewTriggerRepo создаёт новый TriggerRepo.
func NewTriggerRepo(db DBTX) *TriggerRepo {
	return &TriggerRepo{db: db}
}

// Get возвращает триггер по имени.
func (r *TriggerRepo) Get(ctx context.Context, name string) (*domain.Trigger, error) {
	var t domain.Trigger
	err := r.db.QueryRow(ctx, `
		SELECT name, pattern, enabled, "updatedAt"
		FROM core."conveyorTrigger"
		WHERE name = $1
	`, name).Scan(&t.Name, &t.Pattern, &t.Enabled, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get trigger: %w", err)
	}
	return &t, nil
}

// Save создаёт или обновляет триггер.
func (r *TriggerRepo) Save(ctx context.Context, t *domain.Trigger) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO core."conveyorTrigger" (name, pattern, enabled, "updatedAt")
		VALUES ($1, $2, $3, now())
		ON CONFLICT (name) DO UPDATE
		SET pattern = EXCLUDED.pattern, enabled = EXCLUDED.enabled, "updatedAt" = now()
		RETURNING "updatedAt"
	`, t.Name, t.Pattern, t.Enabled).Scan(&t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save trigger: %w", err)
	}
	return nil
}
