package domain

// PipelineStatus — статус конфигурации pipeline.
//
// Обрабатываются только pipelines в статусе ENABLED.
type PipelineStatus string

const (
	// PipelineStatusEnabled — pipeline участвует в каждом запуске.
	PipelineStatusEnabled PipelineStatus = "ENABLED"

	// PipelineStatusDisabled — pipeline выключен оператором.
	PipelineStatusDisabled PipelineStatus = "DISABLED"
)

// String возвращает строковое представление PipelineStatus.
func (s PipelineStatus) String() string {
	return string(s)
}

// ParsePipelineStatus парсит строку в PipelineStatus.
// Неизвестные значения считаются DISABLED.
func ParsePipelineStatus(s string) PipelineStatus {
	switch s {
	case "ENABLED":
		return PipelineStatusEnabled
	default:
		return PipelineStatusDisabled
	}
}

// OutcomeStatus — итог обработки одного pipeline в рамках run.
//
//	PROCESSED — batch выбран и обработан (в том числе пустой)
//	SKIPPED   — pipeline пропущен (нет схемы, нет следующей стадии и т.п.)
//	FAILED    — ошибка хранилища прервала обработку pipeline
type OutcomeStatus string

const (
	OutcomeProcessed OutcomeStatus = "PROCESSED"
	OutcomeSkipped   OutcomeStatus = "SKIPPED"
	OutcomeFailed    OutcomeStatus = "FAILED"
)
