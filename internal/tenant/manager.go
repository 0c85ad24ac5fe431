package tenant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Conveyor/internal/catalog"
	"github.com/shaiso/Conveyor/internal/pipeline"
	"github.com/shaiso/Conveyor/internal/repo"
)

// Manager — реализация pipeline.Workspaces поверх pgxpool.
type Manager struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewManager создаёт Manager.
func NewManager(pool *pgxpool.Pool, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{pool: pool, logger: logger}
}

// Acquire захватывает соединение под workspace.
//
// repo.ErrNotFound — у workspace нет схемы или имя схемы недопустимо.
func (m *Manager) Acquire(ctx context.Context, workspaceID uuid.UUID) (pipeline.Workspace, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	scope, err := newScope(ctx, conn, workspaceID)
	if err != nil {
		conn.Release()
		return nil, err
	}

	m.logger.Debug("workspace acquired", "workspace_id", workspaceID, "schema", scope.schema)
	return scope, nil
}

func newScope(ctx context.Context, conn *pgxpool.Conn, workspaceID uuid.UUID) (*Scope, error) {
	catalogRepo := repo.NewCatalogRepo(conn)

	schema, err := catalogRepo.WorkspaceSchema(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("workspace %s schema: %w", workspaceID, err)
	}

	stages, err := repo.NewStageRepo(conn, schema)
	if errors.Is(err, repo.ErrInvalidIdentifier) {
		return nil, fmt.Errorf("%w: workspace %s: %w", repo.ErrNotFound, workspaceID, err)
	}
	if err != nil {
		return nil, err
	}

	return &Scope{
		conn:     conn,
		schema:   schema,
		resolver: catalog.NewResolver(catalogRepo),
		stages:   stages,
		records:  repo.NewRecordRepo(conn),
	}, nil
}
