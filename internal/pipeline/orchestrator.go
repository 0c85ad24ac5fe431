package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// Значения по умолчанию.
const (
	defaultRunTimeout           = 10 * time.Minute
	defaultWorkspaceParallelism = 1
)

// Orchestrator — RunOrchestrator.
//
// Один вызов Run — один проход по активным pipelines. Состояния между
// вызовами нет: всё, что нужно следующему run, лежит в хранилище.
type Orchestrator struct {
	pipelines  ConfigStore
	workspaces Workspaces
	agent      AgentInvoker

	runTimeout           time.Duration
	maxConcurrency       int
	workspaceParallelism int

	logger *slog.Logger
}

// Config — конфигурация Orchestrator.
type Config struct {
	Pipelines  ConfigStore
	Workspaces Workspaces
	Agent      AgentInvoker

	// RunTimeout — дедлайн одного run (default: 10m).
	RunTimeout time.Duration

	// MaxConcurrency — глобальный потолок параллельных вызовов агента
	// внутри batch. 0 — ограничение только WIPLimit.
	MaxConcurrency int

	// WorkspaceParallelism — сколько workspace обрабатывается одновременно (default: 1).
	WorkspaceParallelism int

	Logger *slog.Logger
}

// New создаёт новый Orchestrator.
func New(cfg Config) *Orchestrator {
	runTimeout := cfg.RunTimeout
	if runTimeout <= 0 {
		runTimeout = defaultRunTimeout
	}

	parallelism := cfg.WorkspaceParallelism
	if parallelism <= 0 {
		parallelism = defaultWorkspaceParallelism
	}

	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency < 0 {
		maxConcurrency = 0
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		pipelines:            cfg.Pipelines,
		workspaces:           cfg.Workspaces,
		agent:                cfg.Agent,
		runTimeout:           runTimeout,
		maxConcurrency:       maxConcurrency,
		workspaceParallelism: parallelism,
		logger:               logger,
	}
}

// Run выполняет один проход по всем активным pipelines.
//
// Ошибка возвращается только если не удалось получить список конфигураций.
// Сбой отдельной конфигурации или записи отражается в RunReport.
func (o *Orchestrator) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
	}

	logger := telemetry.WithRunID(o.logger, report.RunID.String())
	ctx = telemetry.WithLogger(ctx, logger)

	ctx, cancel := context.WithTimeout(ctx, o.runTimeout)
	defer cancel()

	pipelines, err := o.pipelines.ListActive(ctx)
	if err != nil {
		err = fmt.Errorf("%w: list active pipelines: %w", ErrStorage, err)
		telemetry.RunsTotal.WithLabelValues("failed").Inc()
		telemetry.ReportError(ctx, "orchestrator", err)
		return nil, err
	}

	logger.Info("run started", "pipelines", len(pipelines))

	report.Pipelines = make([]PipelineOutcome, len(pipelines))

	g := new(errgroup.Group)
	g.SetLimit(o.workspaceParallelism)
	for _, idxs := range groupByWorkspace(pipelines) {
		g.Go(func() error {
			for _, i := range idxs {
				report.Pipelines[i] = o.process(ctx, pipelines[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	report.FinishedAt = time.Now()
	duration := report.FinishedAt.Sub(report.StartedAt)
	telemetry.RunDuration.Observe(duration.Seconds())
	telemetry.RunsTotal.WithLabelValues("completed").Inc()

	logger.Info("run completed",
		"pipelines", len(report.Pipelines),
		"advanced", report.Advanced(),
		"failed", report.Failed(),
		"duration", duration,
	)

	return report, nil
}

// groupByWorkspace возвращает индексы pipelines, сгруппированные по workspace,
// в порядке первого появления workspace.
func groupByWorkspace(pipelines []domain.Pipeline) [][]int {
	pos := make(map[uuid.UUID]int)
	var groups [][]int
	for i, p := range pipelines {
		g, ok := pos[p.WorkspaceID]
		if !ok {
			g = len(groups)
			pos[p.WorkspaceID] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}
