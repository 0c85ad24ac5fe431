package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/Conveyor/internal/mq"
	"github.com/shaiso/Conveyor/internal/pipeline"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

const defaultRequestTTL = 5 * time.Minute

// Orchestrator выполняет один run. Реализуется pipeline.Orchestrator.
type Orchestrator interface {
	Run(ctx context.Context) (*pipeline.RunReport, error)
}

// Runner — потребитель run.requested.
type Runner struct {
	conn         *mq.Connection
	orchestrator Orchestrator
	requestTTL   time.Duration
	logger       *slog.Logger
	now          func() time.Time

	consumer   *mq.Consumer
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Runner.
type Config struct {
	Conn         *mq.Connection
	Orchestrator Orchestrator

	// RequestTTL — максимальный возраст запроса (default: 5m).
	RequestTTL time.Duration

	Logger *slog.Logger
}

// New создаёт Runner.
func New(cfg Config) *Runner {
	ttl := cfg.RequestTTL
	if ttl <= 0 {
		ttl = defaultRequestTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		conn:         cfg.Conn,
		orchestrator: cfg.Orchestrator,
		requestTTL:   ttl,
		logger:       logger,
		now:          time.Now,
	}
}

// Start запускает потребление в фоне.
func (r *Runner) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	r.cancelFunc = cancel

	r.consumer = mq.NewConsumer(r.conn, r.logger, mq.ConsumerConfig{
		Queue:    mq.QueueRunsRequested,
		Handler:  r.handle,
		Prefetch: 1,
	})

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Error("run consumer error", "error", err)
		}
	}()

	r.logger.Info("runner started", "request_ttl", r.requestTTL)
}

// Stop останавливает потребление и ждёт текущий run.
func (r *Runner) Stop() {
	r.logger.Info("stopping runner...")
	if r.cancelFunc != nil {
		r.cancelFunc()
	}
	r.wg.Wait()
	r.logger.Info("runner stopped")
}

// handle обрабатывает одно сообщение.
//
// Ошибка возвращается только для битого payload (сообщение уходит в DLQ).
// Неудачный run подтверждается: он уже отражён в отчёте и метриках,
// а повторять его нет смысла — следующий тик запустит новый.
func (r *Runner) handle(ctx context.Context, msg *mq.Message) error {
	if msg.Type != mq.MessageTypeRunRequested {
		r.logger.Warn("unexpected message type, dropped", "type", msg.Type, "message_id", msg.ID)
		telemetry.RunRequests.WithLabelValues("invalid").Inc()
		return nil
	}

	req, err := mq.ParsePayload[mq.RunRequestedPayload](msg)
	if err != nil {
		telemetry.RunRequests.WithLabelValues("invalid").Inc()
		return fmt.Errorf("parse run request: %w", err)
	}

	logger := r.logger.With("request_id", req.RequestID.String(), "source", req.Source)

	if age := r.now().Sub(req.RequestedAt); age > r.requestTTL {
		logger.Info("stale run request dropped", "age", age, "ttl", r.requestTTL)
		telemetry.RunRequests.WithLabelValues("stale").Inc()
		return nil
	}
	telemetry.RunRequests.WithLabelValues("accepted").Inc()

	report, err := r.orchestrator.Run(telemetry.WithLogger(ctx, logger))
	if err != nil {
		logger.Warn("run failed", "error", err)
		return nil
	}

	logger.Info("run request handled",
		"run_id", report.RunID,
		"advanced", report.Advanced(),
		"failed", report.Failed(),
	)
	return nil
}
