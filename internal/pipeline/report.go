package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Conveyor/internal/domain"
)

// Причины пропуска или сбоя pipeline.
const (
	ReasonDisabled             = "disabled"
	ReasonInvalidConfig        = "invalid_config"
	ReasonConfigurationMissing = "configuration_missing"
	ReasonNoCurrentStage       = "no_current_stage"
	ReasonNoNextStage          = "no_next_stage"
	ReasonStorage              = "storage_error"
	ReasonCancelled            = "cancelled"
	ReasonPanic                = "panic"
)

// RecordStatus — итог обработки одной записи.
type RecordStatus string

const (
	// RecordAdvanced — агент ответил успешно, запись переведена.
	RecordAdvanced RecordStatus = "ADVANCED"

	// RecordAgentFailed — агент не ответил, запись осталась на месте.
	RecordAgentFailed RecordStatus = "AGENT_FAILED"

	// RecordConflict — запись ушла из стадии параллельно, перевод не выполнен.
	RecordConflict RecordStatus = "CONFLICT"

	// RecordStorageFailed — перевод не удался из-за ошибки хранилища.
	RecordStorageFailed RecordStatus = "STORAGE_FAILED"

	// RecordAborted — обработка не начиналась или прервана отменой.
	RecordAborted RecordStatus = "ABORTED"
)

// RecordResult — итог по одной записи.
type RecordResult struct {
	RecordID uuid.UUID    `json:"record_id"`
	Status   RecordStatus `json:"status"`
	Error    string       `json:"error,omitempty"`
}

// PipelineOutcome — итог по одной конфигурации в рамках run.
type PipelineOutcome struct {
	PipelineID  uuid.UUID            `json:"pipeline_id"`
	WorkspaceID uuid.UUID            `json:"workspace_id"`
	Status      domain.OutcomeStatus `json:"status"`
	Reason      string               `json:"reason,omitempty"`

	// FromStage, ToStage — значения колонки стадии.
	FromStage string `json:"from_stage,omitempty"`
	ToStage   string `json:"to_stage,omitempty"`

	Fetched   int `json:"fetched"`
	Advanced  int `json:"advanced"`
	Failed    int `json:"failed"`
	Conflicts int `json:"conflicts"`
	Aborted   int `json:"aborted"`

	Records []RecordResult `json:"records,omitempty"`

	// Err — классифицированная ошибка (errors.Is с Err* этого пакета).
	Err   error  `json:"-"`
	Error string `json:"error,omitempty"`
}

// RunReport — итог одного run.
type RunReport struct {
	RunID      uuid.UUID         `json:"run_id"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Pipelines  []PipelineOutcome `json:"pipelines"`
}

// Advanced возвращает общее число переведённых записей.
func (r *RunReport) Advanced() int {
	n := 0
	for _, p := range r.Pipelines {
		n += p.Advanced
	}
	return n
}

// Failed возвращает общее число записей, на которых агент не ответил.
func (r *RunReport) Failed() int {
	n := 0
	for _, p := range r.Pipelines {
		n += p.Failed
	}
	return n
}

// Outcome возвращает итог по pipeline или nil.
func (r *RunReport) Outcome(pipelineID uuid.UUID) *PipelineOutcome {
	for i := range r.Pipelines {
		if r.Pipelines[i].PipelineID == pipelineID {
			return &r.Pipelines[i]
		}
	}
	return nil
}

func (o *PipelineOutcome) finish(status domain.OutcomeStatus, reason string, err error) {
	o.Status = status
	o.Reason = reason
	o.Err = err
	if err != nil {
		o.Error = err.Error()
	}
}

func (o *PipelineOutcome) tally() {
	o.Advanced, o.Failed, o.Conflicts, o.Aborted = 0, 0, 0, 0
	for _, r := range o.Records {
		switch r.Status {
		case RecordAdvanced:
			o.Advanced++
		case RecordAgentFailed:
			o.Failed++
		case RecordConflict:
			o.Conflicts++
		case RecordAborted, RecordStorageFailed:
			o.Aborted++
		}
	}
}
