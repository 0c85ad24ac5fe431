package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shaiso/Conveyor/internal/domain"
)

// StageRepo — стадии (колонки) из "<schema>"."viewGroup" одного workspace.
type StageRepo struct {
	db    DBTX
	table string
}

// NewStageRepo создаёт StageRepo для схемы workspace.
// schema должна быть получена из метаданных, а не от пользователя.
func NewStageRepo(db DBTX, schema string) (*StageRepo, error) {
	if !ValidIdentifier(schema) {
		return nil, fmt.Errorf("%w: schema %q", ErrInvalidIdentifier, schema)
	}
	return &StageRepo{
		db:    db,
		table: pgx.Identifier{schema, "viewGroup"}.Sanitize(),
	}, nil
}

const stageColumns = `id, "fieldValue", "position", "fieldMetadataId", "viewId", "deletedAt"`

// CurrentStage возвращает не удалённую стадию по id.
func (r *StageRepo) CurrentStage(ctx context.Context, stageID uuid.UUID) (*domain.Stage, error) {
	query := `SELECT ` + stageColumns + ` FROM ` + r.table + `
		WHERE id = $1 AND "deletedAt" IS NULL
	`
	stage, err := scanStage(r.db.QueryRow(ctx, query, stageID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get current stage: %w", err)
	}
	return stage, nil
}

// NextStage возвращает соседнюю стадию поля с наименьшей позицией больше position.
// Если viewID задан, соседи ищутся только в том же view.
// Возвращает nil, nil, если текущая стадия последняя.
func (r *StageRepo) NextStage(ctx context.Context, fieldID uuid.UUID, viewID *uuid.UUID, position int) (*domain.Stage, error) {
	query := `SELECT ` + stageColumns + ` FROM ` + r.table + `
		WHERE "fieldMetadataId" = $1
		  AND "position" > $2
		  AND "deletedAt" IS NULL
		  AND ($3::uuid IS NULL OR "viewId" = $3::uuid)
		ORDER BY "position" ASC, id ASC
		LIMIT 1
	`
	stage, err := scanStage(r.db.QueryRow(ctx, query, fieldID, position, viewID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get next stage: %w", err)
	}
	return stage, nil
}

func scanStage(row pgx.Row) (*domain.Stage, error) {
	var s domain.Stage
	err := row.Scan(
		&s.ID,
		&s.FieldValue,
		&s.Position,
		&s.FieldMetadataID,
		&s.ViewID,
		&s.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
