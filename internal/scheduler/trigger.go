package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/mq"
	"github.com/shaiso/Conveyor/internal/repo"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// Store хранит регистрацию триггера. Реализуется repo.TriggerRepo.
type Store interface {
	Get(ctx context.Context, name string) (*domain.Trigger, error)
	Save(ctx context.Context, t *domain.Trigger) error
}

// Leader решает, должен ли этот экземпляр отправлять запросы.
type Leader interface {
	IsLeader(ctx context.Context) (bool, error)
}

// RunRequest — запрос на один run.
type RunRequest struct {
	ID          uuid.UUID
	Source      string
	RequestedAt time.Time
	Pattern     string
}

// NewRunRequest создаёт запрос с новым ID.
func NewRunRequest(source, pattern string) RunRequest {
	return RunRequest{
		ID:          uuid.New(),
		Source:      source,
		RequestedAt: time.Now().UTC(),
		Pattern:     pattern,
	}
}

// Dispatcher доставляет запрос на run исполнителю.
type Dispatcher interface {
	Dispatch(ctx context.Context, req RunRequest) error
}

// Status — состояние триггера.
type Status struct {
	Name    string    `json:"name"`
	Pattern string    `json:"pattern"`
	Active  bool      `json:"active"`
	Next    time.Time `json:"next,omitzero"`
	Prev    time.Time `json:"prev,omitzero"`
}

// Результаты тика для метрики conveyor_trigger_ticks_total.
const (
	tickDispatched = "dispatched"
	tickSkipped    = "skipped"
	tickNotLeader  = "not_leader"
	tickFailed     = "failed"
)

// Trigger — периодический триггер с одной регистрацией.
type Trigger struct {
	name           string
	store          Store
	dispatcher     Dispatcher
	leader         Leader
	defaultPattern string
	autoStart      bool
	logger         *slog.Logger

	cron *cron.Cron

	mu      sync.Mutex
	entryID cron.EntryID
	pattern string
	active  bool
	baseCtx context.Context
}

// Config — конфигурация Trigger.
type Config struct {
	// Name — ключ в core."conveyorTrigger" (default: pipeline-advance).
	Name string

	Store      Store
	Dispatcher Dispatcher

	// Leader — nil означает «всегда лидер».
	Leader Leader

	// DefaultPattern — выражение для AutoStart (default: */1 * * * *).
	DefaultPattern string

	// AutoStart — зарегистрировать DefaultPattern, если в хранилище ничего нет.
	AutoStart bool

	// Location — часовой пояс cron-выражений (default: UTC).
	Location *time.Location

	Logger *slog.Logger
}

// New создаёт Trigger. Тики начинаются после Run.
func New(cfg Config) *Trigger {
	name := cfg.Name
	if name == "" {
		name = domain.DefaultTriggerName
	}
	pattern := cfg.DefaultPattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("trigger", name)

	cl := cronLogger{logger: logger}

	return &Trigger{
		name:           name,
		store:          cfg.Store,
		dispatcher:     cfg.Dispatcher,
		leader:         cfg.Leader,
		defaultPattern: pattern,
		autoStart:      cfg.AutoStart,
		logger:         logger,
		cron: cron.New(
			cron.WithParser(cronParser),
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		baseCtx: context.Background(),
	}
}

// Start регистрирует pattern вместо текущей регистрации и сохраняет её.
//
// Если сохранить не удалось, текущая регистрация не меняется.
func (t *Trigger) Start(ctx context.Context, pattern string) (Status, error) {
	if err := ValidatePattern(pattern); err != nil {
		return Status{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.Save(ctx, &domain.Trigger{Name: t.name, Pattern: pattern, Enabled: true}); err != nil {
		return Status{}, fmt.Errorf("save trigger: %w", err)
	}

	if err := t.registerLocked(pattern); err != nil {
		return Status{}, err
	}

	t.logger.Info("trigger started", "pattern", pattern)
	return t.statusLocked(), nil
}

// Stop снимает регистрацию. Повторный Stop ничего не ломает.
func (t *Trigger) Stop(ctx context.Context) (Status, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pattern := t.pattern
	if pattern == "" {
		pattern = t.defaultPattern
	}
	if err := t.store.Save(ctx, &domain.Trigger{Name: t.name, Pattern: pattern, Enabled: false}); err != nil {
		return Status{}, fmt.Errorf("save trigger: %w", err)
	}

	if t.active {
		t.cron.Remove(t.entryID)
		t.active = false
		t.entryID = 0
		t.logger.Info("trigger stopped", "pattern", pattern)
	}
	t.pattern = pattern

	return t.statusLocked(), nil
}

// Status возвращает текущее состояние.
func (t *Trigger) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statusLocked()
}

// Restore восстанавливает регистрацию из хранилища.
//
//   - сохранён включённым — регистрируется сохранённый pattern
//   - сохранён выключенным — ничего не делается
//   - не сохранён — при AutoStart регистрируется DefaultPattern
func (t *Trigger) Restore(ctx context.Context) error {
	stored, err := t.store.Get(ctx, t.name)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		if !t.autoStart {
			t.logger.Info("no stored trigger, waiting for start")
			return nil
		}
		_, err := t.Start(ctx, t.defaultPattern)
		return err
	case err != nil:
		return fmt.Errorf("load trigger: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.pattern = stored.Pattern
	if !stored.Enabled {
		t.logger.Info("stored trigger is stopped", "pattern", stored.Pattern)
		return nil
	}
	if err := ValidatePattern(stored.Pattern); err != nil {
		return err
	}
	if err := t.registerLocked(stored.Pattern); err != nil {
		return err
	}

	t.logger.Info("trigger restored", "pattern", stored.Pattern)
	return nil
}

// Run запускает тики и блокируется до отмены ctx. Выполняющийся тик
// дожидается завершения.
func (t *Trigger) Run(ctx context.Context) error {
	t.mu.Lock()
	t.baseCtx = ctx
	t.mu.Unlock()

	t.cron.Start()
	<-ctx.Done()
	<-t.cron.Stop().Done()
	return nil
}

func (t *Trigger) registerLocked(pattern string) error {
	id, err := t.cron.AddFunc(pattern, t.tick)
	if err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidPattern, pattern, err)
	}
	if t.active {
		t.cron.Remove(t.entryID)
	}
	t.entryID = id
	t.pattern = pattern
	t.active = true
	return nil
}

func (t *Trigger) statusLocked() Status {
	st := Status{Name: t.name, Pattern: t.pattern, Active: t.active}
	if t.active {
		entry := t.cron.Entry(t.entryID)
		st.Next = entry.Next
		st.Prev = entry.Prev
		if st.Next.IsZero() {
			// cron ещё не запущен: считаем сами
			st.Next, _ = NextFire(t.pattern, time.Now())
		}
	}
	return st
}

func (t *Trigger) tick() {
	t.mu.Lock()
	ctx := t.baseCtx
	pattern := t.pattern
	t.mu.Unlock()

	result := t.fire(ctx, pattern)
	telemetry.TriggerTicks.WithLabelValues(result).Inc()
}

// fire — один тик: leader gate, затем dispatch. Возвращает результат для метрики.
func (t *Trigger) fire(ctx context.Context, pattern string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			telemetry.ReportError(ctx, "trigger", fmt.Errorf("panic in tick: %v", r))
			result = tickFailed
		}
	}()

	if t.leader != nil {
		ok, err := t.leader.IsLeader(ctx)
		if err != nil {
			telemetry.ReportError(ctx, "trigger", fmt.Errorf("leader check: %w", err))
			return tickFailed
		}
		if !ok {
			t.logger.Debug("not a leader, tick skipped")
			return tickNotLeader
		}
	}

	req := NewRunRequest(mq.SourceTrigger, pattern)
	err := t.dispatcher.Dispatch(ctx, req)
	switch {
	case errors.Is(err, ErrRunInProgress):
		t.logger.Info("previous run still in progress, tick skipped")
		return tickSkipped
	case err != nil:
		telemetry.ReportError(ctx, "trigger", fmt.Errorf("dispatch run: %w", err), "request_id", req.ID.String())
		return tickFailed
	}

	t.logger.Debug("run dispatched", "request_id", req.ID)
	return tickDispatched
}
