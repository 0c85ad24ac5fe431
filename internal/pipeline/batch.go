package pipeline

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/shaiso/Conveyor/internal/agent"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/repo"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// batch — записи одной конфигурации, допущенные в run.
type batch struct {
	pipeline  domain.Pipeline
	workspace Workspace
	target    domain.Target
	from, to  string
	records   []domain.Record
}

// runBatch обрабатывает записи пулом размером min(WIPLimit, MaxConcurrency).
//
// Ошибка или паника при обработке записи остаётся в её RecordResult. Ошибка хранилища при переводе
// отменяет ещё не начатые записи batch'а и возвращается.
func (o *Orchestrator) runBatch(ctx context.Context, b batch) ([]RecordResult, error) {
	limit := b.pipeline.WIPLimit
	if o.maxConcurrency > 0 && o.maxConcurrency < limit {
		limit = o.maxConcurrency
	}

	results := make([]RecordResult, len(b.records))
	for i, rec := range b.records {
		results[i] = RecordResult{RecordID: rec.ID, Status: RecordAborted}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, rec := range b.records {
		g.Go(func() (err error) {
			if gctx.Err() != nil {
				return nil
			}
			defer func() {
				if r := recover(); r != nil {
					perr := fmt.Errorf("%w: record %s: panic: %v", ErrAgentInvocation, rec.ID, r)
					telemetry.ReportError(gctx, "agent", perr, "record_id", rec.ID.String(), "agent", b.pipeline.Agent)
					results[i] = RecordResult{RecordID: rec.ID, Status: RecordAgentFailed, Error: perr.Error()}
					err = nil
				}
			}()
			res, err := o.processRecord(gctx, b, rec)
			results[i] = res
			return err
		})
	}

	return results, g.Wait()
}

// processRecord: вызов агента, затем перевод записи.
func (o *Orchestrator) processRecord(ctx context.Context, b batch, rec domain.Record) (RecordResult, error) {
	result := RecordResult{RecordID: rec.ID}
	logger := telemetry.WithRecordID(telemetry.FromContext(ctx), rec.ID.String())

	resp, err := o.agent.Invoke(ctx, b.pipeline.Agent, agent.Request{
		Data:            rec.Data,
		AdditionalAgent: b.pipeline.AdditionalInput,
	})
	if err != nil {
		result.Error = err.Error()
		if ctx.Err() != nil {
			result.Status = RecordAborted
			return result, nil
		}
		err = fmt.Errorf("%w: record %s: %w", ErrAgentInvocation, rec.ID, err)
		telemetry.ReportError(ctx, "agent", err, "record_id", rec.ID.String(), "agent", b.pipeline.Agent)
		result.Status = RecordAgentFailed
		return result, nil
	}
	logger.Debug("agent responded", "status_code", resp.StatusCode)

	err = b.workspace.Advance(ctx, b.target, rec.ID, b.from, b.to)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		telemetry.AdvanceConflicts.Inc()
		logger.Warn("record left the stage concurrently, not advanced", "from", b.from)
		result.Status = RecordConflict
		return result, nil
	case err != nil && ctx.Err() != nil:
		result.Status = RecordAborted
		result.Error = err.Error()
		return result, nil
	case err != nil:
		err = fmt.Errorf("%w: advance record %s: %w", ErrStorage, rec.ID, err)
		result.Status = RecordStorageFailed
		result.Error = err.Error()
		return result, err
	}

	telemetry.RecordsAdvanced.Inc()
	logger.Info("record advanced", "from", b.from, "to", b.to)
	result.Status = RecordAdvanced
	return result, nil
}
