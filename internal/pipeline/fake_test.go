package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Conveyor/internal/agent"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/repo"
)

// world — in-memory хранилище одного или нескольких workspace.
type world struct {
	mu sync.Mutex

	workspaces map[uuid.UUID]bool
	stages     map[uuid.UUID]*domain.Stage
	records    []*fakeRecord

	resolveErr error
	fetchErr   map[uuid.UUID]error // по workspace
	advanceErr error

	acquired atomic.Int32
	released atomic.Int32
}

type fakeRecord struct {
	id        uuid.UUID
	workspace uuid.UUID
	stage     string
	createdAt time.Time
	updatedAt time.Time
}

func newWorld() *world {
	return &world{
		workspaces: make(map[uuid.UUID]bool),
		stages:     make(map[uuid.UUID]*domain.Stage),
		fetchErr:   make(map[uuid.UUID]error),
	}
}

// board создаёт workspace с колонками values (по порядку) и возвращает
// id workspace, id поля и id стадий.
func (w *world) board(values ...string) (uuid.UUID, uuid.UUID, []uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()

	wsID, fieldID := uuid.New(), uuid.New()
	w.workspaces[wsID] = true

	ids := make([]uuid.UUID, len(values))
	for i, v := range values {
		ids[i] = uuid.New()
		w.stages[ids[i]] = &domain.Stage{ID: ids[i], FieldValue: v, Position: i, FieldMetadataID: fieldID}
	}
	return wsID, fieldID, ids
}

func (w *world) addRecords(wsID uuid.UUID, stage string, n int) []uuid.UUID {
	w.mu.Lock()
	defer w.mu.Unlock()

	base := time.Now().Add(-time.Hour)
	ids := make([]uuid.UUID, n)
	for i := range n {
		ids[i] = uuid.New()
		w.records = append(w.records, &fakeRecord{
			id: ids[i], workspace: wsID, stage: stage,
			createdAt: base.Add(time.Duration(len(w.records)) * time.Second),
			updatedAt: base,
		})
	}
	return ids
}

func (w *world) stageOf(id uuid.UUID) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, r := range w.records {
		if r.id == id {
			return r.stage
		}
	}
	return ""
}

func (w *world) move(id uuid.UUID, stage string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, r := range w.records {
		if r.id == id {
			r.stage = stage
		}
	}
}

func (w *world) countIn(wsID uuid.UUID, stage string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, r := range w.records {
		if r.workspace == wsID && r.stage == stage {
			n++
		}
	}
	return n
}

func (w *world) Acquire(_ context.Context, workspaceID uuid.UUID) (Workspace, error) {
	w.mu.Lock()
	ok := w.workspaces[workspaceID]
	w.mu.Unlock()
	if !ok {
		return nil, repo.ErrNotFound
	}
	w.acquired.Add(1)
	return &scope{w: w, workspace: workspaceID}, nil
}

type scope struct {
	w         *world
	workspace uuid.UUID
}

func (s *scope) ResolveTarget(_ context.Context, _, _ uuid.UUID) (domain.Target, error) {
	if s.w.resolveErr != nil {
		return domain.Target{}, s.w.resolveErr
	}
	return domain.Target{Schema: "ws", Table: "deal", Column: "stage", ObjectName: "deal"}, nil
}

func (s *scope) CurrentStage(_ context.Context, stageID uuid.UUID) (*domain.Stage, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st, ok := s.w.stages[stageID]
	if !ok || st.IsDeleted() {
		return nil, repo.ErrNotFound
	}
	return st, nil
}

func (s *scope) NextStage(_ context.Context, fieldID uuid.UUID, viewID *uuid.UUID, position int) (*domain.Stage, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()

	var candidates []*domain.Stage
	for _, st := range s.w.stages {
		if st.FieldMetadataID != fieldID || st.IsDeleted() || st.Position <= position {
			continue
		}
		if viewID != nil && (st.ViewID == nil || *st.ViewID != *viewID) {
			continue
		}
		candidates = append(candidates, st)
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Position != candidates[j].Position {
			return candidates[i].Position < candidates[j].Position
		}
		return candidates[i].ID.String() < candidates[j].ID.String()
	})
	return candidates[0], nil
}

func (s *scope) FetchBatch(_ context.Context, _ domain.Target, stageValue string, limit int) ([]domain.Record, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()

	if err := s.w.fetchErr[s.workspace]; err != nil {
		return nil, err
	}

	var matched []*fakeRecord
	for _, r := range s.w.records {
		if r.workspace == s.workspace && r.stage == stageValue {
			matched = append(matched, r)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].createdAt.Before(matched[j].createdAt) })

	out := make([]domain.Record, 0, limit)
	for _, r := range matched {
		if len(out) == limit {
			break
		}
		data, _ := json.Marshal(map[string]any{"id": r.id, "stage": r.stage})
		out = append(out, domain.Record{ID: r.id, StageValue: r.stage, UpdatedAt: r.updatedAt, Data: data})
	}
	return out, nil
}

func (s *scope) Advance(_ context.Context, _ domain.Target, recordID uuid.UUID, from, to string) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()

	if s.w.advanceErr != nil {
		return s.w.advanceErr
	}
	for _, r := range s.w.records {
		if r.id == recordID && r.stage == from {
			r.stage = to
			r.updatedAt = time.Now()
			return nil
		}
	}
	return repo.ErrNotFound
}

func (s *scope) Release() {
	s.w.released.Add(1)
}

// fakeAgent считает вызовы и максимальное число одновременных вызовов.
type fakeAgent struct {
	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32

	delay  time.Duration
	failOn map[uuid.UUID]bool
	hook   func(recordID uuid.UUID)
}

var errAgentDown = errors.New("agent down")

func (a *fakeAgent) Invoke(ctx context.Context, _ string, req agent.Request) (*agent.Response, error) {
	a.calls.Add(1)
	n := a.inFlight.Add(1)
	defer a.inFlight.Add(-1)
	for {
		seen := a.maxSeen.Load()
		if n <= seen || a.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	var payload struct {
		ID uuid.UUID `json:"id"`
	}
	_ = json.Unmarshal(req.Data, &payload)

	if a.delay > 0 {
		select {
		case <-time.After(a.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if a.hook != nil {
		a.hook(payload.ID)
	}
	if a.failOn[payload.ID] {
		return nil, errAgentDown
	}
	return &agent.Response{StatusCode: 200, Body: json.RawMessage(`{}`)}, nil
}

type fakeStore struct {
	pipelines []domain.Pipeline
	err       error
}

func (s *fakeStore) ListActive(context.Context) ([]domain.Pipeline, error) {
	return s.pipelines, s.err
}

func newPipeline(wsID, fieldID, stageID uuid.UUID, wip int) domain.Pipeline {
	objectID := uuid.New()
	return domain.Pipeline{
		ID:               uuid.New(),
		WorkspaceID:      wsID,
		ObjectMetadataID: &objectID,
		FieldMetadataID:  &fieldID,
		ViewGroupID:      &stageID,
		Agent:            "agent-1",
		WIPLimit:         wip,
		Status:           domain.PipelineStatusEnabled,
	}
}
