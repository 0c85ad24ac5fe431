package pipeline

import (
	"errors"

	"github.com/shaiso/Conveyor/internal/domain"
)

// Категории ошибок run. Проверяются через errors.Is.
var (
	// ErrConfigurationMissing — нет схемы, объекта, поля или таблицы.
	ErrConfigurationMissing = errors.New("configuration missing")

	// ErrNoCurrentStage — стадия конфигурации не найдена или удалена.
	ErrNoCurrentStage = errors.New("current stage not found")

	// ErrNoNextStage — текущая стадия последняя, продвигать некуда.
	ErrNoNextStage = errors.New("no next stage")

	// ErrAgentInvocation — агент не ответил успешно для записи.
	ErrAgentInvocation = errors.New("agent invocation failed")

	// ErrStorage — ошибка хранилища.
	ErrStorage = errors.New("storage error")

	// ErrInvalidPipeline — конфигурация нарушает инварианты.
	ErrInvalidPipeline = domain.ErrInvalidPipeline
)
