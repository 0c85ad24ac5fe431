package tenant

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Conveyor/internal/catalog"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/repo"
)

// Scope — захваченный workspace.
//
// Соединение pgx не допускает параллельных запросов, поэтому все вызовы
// сериализуются mu. Вызовы агента идут параллельно, сериализуются только
// короткие UPDATE.
type Scope struct {
	mu sync.Mutex

	conn   *pgxpool.Conn
	schema string

	resolver *catalog.Resolver
	stages   *repo.StageRepo
	records  *repo.RecordRepo

	releaseOnce sync.Once
}

// Schema возвращает схему workspace.
func (s *Scope) Schema() string {
	return s.schema
}

// ResolveTarget — см. catalog.Resolver.ResolveTarget.
func (s *Scope) ResolveTarget(ctx context.Context, objectID, fieldID uuid.UUID) (domain.Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolver.ResolveTarget(ctx, s.schema, objectID, fieldID)
}

// CurrentStage — см. repo.StageRepo.CurrentStage.
func (s *Scope) CurrentStage(ctx context.Context, stageID uuid.UUID) (*domain.Stage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stages.CurrentStage(ctx, stageID)
}

// NextStage — см. repo.StageRepo.NextStage.
func (s *Scope) NextStage(ctx context.Context, fieldID uuid.UUID, viewID *uuid.UUID, position int) (*domain.Stage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stages.NextStage(ctx, fieldID, viewID, position)
}

// FetchBatch — см. repo.RecordRepo.FetchBatch.
func (s *Scope) FetchBatch(ctx context.Context, target domain.Target, stageValue string, limit int) ([]domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records.FetchBatch(ctx, target, stageValue, limit)
}

// Advance — см. repo.RecordRepo.Advance.
func (s *Scope) Advance(ctx context.Context, target domain.Target, recordID uuid.UUID, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records.Advance(ctx, target, recordID, from, to)
}

// Release возвращает соединение в пул. Повторные вызовы ничего не делают.
func (s *Scope) Release() {
	s.releaseOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.conn.Release()
	})
}
