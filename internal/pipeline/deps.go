package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/shaiso/Conveyor/internal/agent"
	"github.com/shaiso/Conveyor/internal/domain"
)

// ConfigStore — источник конфигураций. Реализуется repo.PipelineRepo.
type ConfigStore interface {
	ListActive(ctx context.Context) ([]domain.Pipeline, error)
}

// Workspaces выдаёт доступ к данным одного tenant'а.
// Реализуется tenant.Manager.
type Workspaces interface {
	// Acquire возвращает repo.ErrNotFound, если у workspace нет схемы.
	Acquire(ctx context.Context, workspaceID uuid.UUID) (Workspace, error)
}

// Workspace — захваченный workspace. Release вызывается ровно один раз.
type Workspace interface {
	ResolveTarget(ctx context.Context, objectID, fieldID uuid.UUID) (domain.Target, error)
	CurrentStage(ctx context.Context, stageID uuid.UUID) (*domain.Stage, error)
	NextStage(ctx context.Context, fieldID uuid.UUID, viewID *uuid.UUID, position int) (*domain.Stage, error)
	FetchBatch(ctx context.Context, target domain.Target, stageValue string, limit int) ([]domain.Record, error)
	Advance(ctx context.Context, target domain.Target, recordID uuid.UUID, from, to string) error
	Release()
}

// AgentInvoker вызывает внешнего агента. Реализуется agent.Client.
type AgentInvoker interface {
	Invoke(ctx context.Context, agentRef string, req agent.Request) (*agent.Response, error)
}
