package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/repo"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// process обрабатывает одну конфигурацию. Никогда не паникует наружу
// и не возвращает ошибку: результат целиком в PipelineOutcome.
func (o *Orchestrator) process(ctx context.Context, p domain.Pipeline) (out PipelineOutcome) {
	out = PipelineOutcome{PipelineID: p.ID, WorkspaceID: p.WorkspaceID}

	logger := telemetry.WithPipeline(telemetry.FromContext(ctx), p.ID.String(), p.WorkspaceID.String())
	ctx = telemetry.WithLogger(ctx, logger)

	defer func() {
		if r := recover(); r != nil {
			out.finish(domain.OutcomeFailed, ReasonPanic, fmt.Errorf("panic: %v", r))
		}
		telemetry.PipelinesTotal.WithLabelValues(string(out.Status), out.Reason).Inc()
		if out.Status == domain.OutcomeFailed {
			telemetry.ReportError(ctx, "pipeline", out.Err, "reason", out.Reason)
		}
	}()

	if err := ctx.Err(); err != nil {
		out.finish(domain.OutcomeSkipped, ReasonCancelled, err)
		return out
	}

	if !p.IsActive() {
		out.finish(domain.OutcomeSkipped, ReasonDisabled, nil)
		return out
	}

	if err := p.Validate(); err != nil {
		logger.Warn("pipeline skipped: invalid configuration", "error", err)
		out.finish(domain.OutcomeSkipped, ReasonInvalidConfig, err)
		return out
	}

	ws, err := o.workspaces.Acquire(ctx, p.WorkspaceID)
	if err != nil {
		o.classify(ctx, &out, "acquire workspace", err)
		return out
	}
	defer ws.Release()

	target, err := ws.ResolveTarget(ctx, *p.ObjectMetadataID, *p.FieldMetadataID)
	if err != nil {
		o.classify(ctx, &out, "resolve target", err)
		return out
	}

	current, err := ws.CurrentStage(ctx, *p.ViewGroupID)
	if errors.Is(err, repo.ErrNotFound) {
		err = fmt.Errorf("%w: view group %s", ErrNoCurrentStage, *p.ViewGroupID)
		telemetry.ReportError(ctx, "pipeline", err, "reason", ReasonNoCurrentStage)
		out.finish(domain.OutcomeSkipped, ReasonNoCurrentStage, err)
		return out
	}
	if err != nil {
		o.classify(ctx, &out, "current stage", err)
		return out
	}
	if current.FieldMetadataID != *p.FieldMetadataID {
		o.classify(ctx, &out, "current stage", fmt.Errorf("%w: view group %s belongs to field %s, not %s",
			repo.ErrNotFound, current.ID, current.FieldMetadataID, *p.FieldMetadataID))
		return out
	}

	next, err := ws.NextStage(ctx, *p.FieldMetadataID, current.ViewID, current.Position)
	if err != nil {
		o.classify(ctx, &out, "next stage", err)
		return out
	}
	if next == nil {
		logger.Info("pipeline skipped: stage is the last one", "stage", current.FieldValue)
		out.finish(domain.OutcomeSkipped, ReasonNoNextStage,
			fmt.Errorf("%w: after %q", ErrNoNextStage, current.FieldValue))
		return out
	}

	out.FromStage = current.FieldValue
	out.ToStage = next.FieldValue

	records, err := ws.FetchBatch(ctx, target, current.FieldValue, p.WIPLimit)
	if err != nil {
		o.classify(ctx, &out, "fetch batch", err)
		return out
	}
	if len(records) > p.WIPLimit {
		records = records[:p.WIPLimit]
	}
	out.Fetched = len(records)

	if len(records) == 0 {
		logger.Debug("no records in stage", "stage", current.FieldValue, "target", target.String())
		out.finish(domain.OutcomeProcessed, "", nil)
		return out
	}

	results, err := o.runBatch(ctx, batch{
		pipeline:  p,
		workspace: ws,
		target:    target,
		from:      current.FieldValue,
		to:        next.FieldValue,
		records:   records,
	})
	out.Records = results
	out.tally()

	if err != nil {
		out.finish(domain.OutcomeFailed, ReasonStorage, err)
		return out
	}

	logger.Info("pipeline processed",
		"from", out.FromStage,
		"to", out.ToStage,
		"fetched", out.Fetched,
		"advanced", out.Advanced,
		"failed", out.Failed,
		"conflicts", out.Conflicts,
	)
	out.finish(domain.OutcomeProcessed, "", nil)
	return out
}

// classify переводит ошибку шага в итог pipeline.
//
//	repo.ErrNotFound  → SKIPPED / configuration_missing
//	отмена контекста  → SKIPPED / cancelled
//	прочее            → FAILED  / storage_error
func (o *Orchestrator) classify(ctx context.Context, out *PipelineOutcome, step string, err error) {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		telemetry.FromContext(ctx).Warn("pipeline skipped: configuration missing", "step", step, "error", err)
		out.finish(domain.OutcomeSkipped, ReasonConfigurationMissing,
			fmt.Errorf("%w: %s: %w", ErrConfigurationMissing, step, err))
	case ctx.Err() != nil:
		out.finish(domain.OutcomeSkipped, ReasonCancelled, fmt.Errorf("%s: %w", step, err))
	default:
		out.finish(domain.OutcomeFailed, ReasonStorage, fmt.Errorf("%w: %s: %w", ErrStorage, step, err))
	}
}
