package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/shaiso/Conveyor/internal/mq"
	"github.com/shaiso/Conveyor/internal/pipeline"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// RunPublisher публикует run.requested. Реализуется mq.Publisher.
type RunPublisher interface {
	PublishRunRequested(ctx context.Context, payload mq.RunRequestedPayload) error
}

// PublishDispatcher отправляет запрос в RabbitMQ; run выполняет runner.
type PublishDispatcher struct {
	publisher RunPublisher
}

// NewPublishDispatcher создаёт PublishDispatcher.
func NewPublishDispatcher(publisher RunPublisher) *PublishDispatcher {
	return &PublishDispatcher{publisher: publisher}
}

// Dispatch публикует run.requested.
func (d *PublishDispatcher) Dispatch(ctx context.Context, req RunRequest) error {
	return d.publisher.PublishRunRequested(ctx, mq.RunRequestedPayload{
		RequestID:   req.ID,
		Source:      req.Source,
		RequestedAt: req.RequestedAt,
		Pattern:     req.Pattern,
	})
}

// Runner выполняет один run. Реализуется pipeline.Orchestrator.
type Runner interface {
	Run(ctx context.Context) (*pipeline.RunReport, error)
}

// LocalDispatcher выполняет run в этом же процессе.
//
// Одновременно выполняется не больше одного run: запрос, пришедший во
// время выполнения, отклоняется с ErrRunInProgress.
type LocalDispatcher struct {
	runner  Runner
	baseCtx context.Context
	logger  *slog.Logger

	running atomic.Bool
	wg      sync.WaitGroup
}

// NewLocalDispatcher создаёт LocalDispatcher. Runs выполняются в контексте
// baseCtx, а не в контексте вызова Dispatch: HTTP-запрос run-now может
// завершиться раньше run.
func NewLocalDispatcher(baseCtx context.Context, runner Runner, logger *slog.Logger) *LocalDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalDispatcher{runner: runner, baseCtx: baseCtx, logger: logger}
}

// Dispatch запускает run в горутине и сразу возвращается.
func (d *LocalDispatcher) Dispatch(_ context.Context, req RunRequest) error {
	if !d.running.CompareAndSwap(false, true) {
		return ErrRunInProgress
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.running.Store(false)

		logger := d.logger.With("request_id", req.ID.String(), "source", req.Source)
		ctx := telemetry.WithLogger(d.baseCtx, logger)

		defer func() {
			if r := recover(); r != nil {
				telemetry.RunsTotal.WithLabelValues("failed").Inc()
				telemetry.ReportError(ctx, "runner", errPanic(r))
			}
		}()

		if _, err := d.runner.Run(ctx); err != nil {
			logger.Warn("run failed", "error", err)
		}
	}()
	return nil
}

// Running сообщает, выполняется ли сейчас run.
func (d *LocalDispatcher) Running() bool {
	return d.running.Load()
}

// Wait дожидается завершения текущего run.
func (d *LocalDispatcher) Wait() {
	d.wg.Wait()
}
