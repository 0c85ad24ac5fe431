package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shaiso/Conveyor/internal/domain"
)

// PipelineRepo — чтение конфигураций pipeline из core."aiAgentConfig".
//
// Создание, изменение и удаление конфигураций выполняет внешний CRUD API.
type PipelineRepo struct {
	db DBTX
}

// NewPipelineRepo создаёт новый PipelineRepo.
func NewPipelineRepo(db DBTX) *PipelineRepo {
	return &PipelineRepo{db: db}
}

const pipelineColumns = `
	id, "workspaceId", "objectMetadataId", "viewId", "fieldMetadataId", "viewGroupId",
	agent, "wipLimit", COALESCE("additionalInput", ''), status::text,
	"createdAt", "updatedAt", "deletedAt"
`

// ListActive возвращает включённые и не удалённые конфигурации.
// Порядок детерминирован: по времени создания, затем по id.
func (r *PipelineRepo) ListActive(ctx context.Context) ([]domain.Pipeline, error) {
	query := `SELECT ` + pipelineColumns + `
		FROM core."aiAgentConfig"
		WHERE status = 'ENABLED' AND "deletedAt" IS NULL
		ORDER BY "createdAt" ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active pipelines: %w", err)
	}
	defer rows.Close()

	var pipelines []domain.Pipeline
	for rows.Next() {
		p, err := scanPipeline(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pipeline: %w", err)
		}
		pipelines = append(pipelines, *p)
	}
	return pipelines, rows.Err()
}

// Get возвращает не удалённую конфигурацию по фильтру.
// Пустой фильтр недопустим.
func (r *PipelineRepo) Get(ctx context.Context, filter domain.PipelineFilter) (*domain.Pipeline, error) {
	if filter.IsEmpty() {
		return nil, fmt.Errorf("get pipeline: empty filter")
	}

	conditions := []string{`"deletedAt" IS NULL`}
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(`%s = $%d`, column, len(args)))
	}

	if filter.ObjectMetadataID != nil {
		add(`"objectMetadataId"`, *filter.ObjectMetadataID)
	}
	if filter.FieldMetadataID != nil {
		add(`"fieldMetadataId"`, *filter.FieldMetadataID)
	}
	if filter.ViewGroupID != nil {
		add(`"viewGroupId"`, *filter.ViewGroupID)
	}
	if filter.ViewID != nil {
		add(`"viewId"`, *filter.ViewID)
	}

	query := `SELECT ` + pipelineColumns + `
		FROM core."aiAgentConfig"
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY "createdAt" DESC, id ASC
		LIMIT 1
	`
	p, err := scanPipeline(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get pipeline: %w", err)
	}
	return p, nil
}

func scanPipeline(row pgx.Row) (*domain.Pipeline, error) {
	var p domain.Pipeline
	var status string
	err := row.Scan(
		&p.ID,
		&p.WorkspaceID,
		&p.ObjectMetadataID,
		&p.ViewID,
		&p.FieldMetadataID,
		&p.ViewGroupID,
		&p.Agent,
		&p.WIPLimit,
		&p.AdditionalInput,
		&status,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Status = domain.ParsePipelineStatus(status)
	return &p, nil
}
