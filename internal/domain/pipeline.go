package domain

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	// DefaultWIPLimit — WIP limit по умолчанию для новых конфигураций.
	DefaultWIPLimit = 3

	// MaxAdditionalInputLen — максимальная длина AdditionalInput в символах.
	MaxAdditionalInputLen = 5000
)

// ErrInvalidPipeline — конфигурация pipeline нарушает инварианты.
var ErrInvalidPipeline = errors.New("invalid pipeline")

// Pipeline — правило автоматизации для одной колонки kanban-доски.
//
// Каждый запуск берёт не более WIPLimit записей, стоящих в стадии ViewGroupID,
// передаёт их агенту Agent и переводит успешно обработанные в следующую стадию.
//
// Pipeline принадлежит внешнему CRUD API — здесь он только читается.
type Pipeline struct {
	// ID — уникальный идентификатор конфигурации.
	ID uuid.UUID `json:"id"`

	// WorkspaceID — tenant, которому принадлежат данные.
	WorkspaceID uuid.UUID `json:"workspace_id"`

	// ObjectMetadataID — тип объекта (company, person, кастомный объект).
	ObjectMetadataID *uuid.UUID `json:"object_metadata_id,omitempty"`

	// ViewID — view, в котором настроена доска.
	ViewID *uuid.UUID `json:"view_id,omitempty"`

	// FieldMetadataID — поле, значения которого образуют стадии.
	FieldMetadataID *uuid.UUID `json:"field_metadata_id,omitempty"`

	// ViewGroupID — текущая стадия (колонка), из которой забираются записи.
	ViewGroupID *uuid.UUID `json:"view_group_id,omitempty"`

	// Agent — идентификатор агента во внешнем API.
	Agent string `json:"agent"`

	// WIPLimit — максимум записей, допускаемых к продвижению за один run.
	WIPLimit int `json:"wip_limit"`

	// AdditionalInput — свободный текст, передаваемый агенту вместе с записью.
	AdditionalInput string `json:"additional_input,omitempty"`

	Status PipelineStatus `json:"status"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// IsActive возвращает true, если pipeline должен обрабатываться.
func (p *Pipeline) IsActive() bool {
	return p.Status == PipelineStatusEnabled && p.DeletedAt == nil
}

// Validate проверяет инварианты конфигурации.
func (p *Pipeline) Validate() error {
	if p.WIPLimit < 1 {
		return fmt.Errorf("%w: wip_limit must be >= 1, got %d", ErrInvalidPipeline, p.WIPLimit)
	}
	if p.Agent == "" {
		return fmt.Errorf("%w: agent is required", ErrInvalidPipeline)
	}
	if utf8.RuneCountInString(p.AdditionalInput) > MaxAdditionalInputLen {
		return fmt.Errorf("%w: additional_input exceeds %d characters", ErrInvalidPipeline, MaxAdditionalInputLen)
	}
	if p.ObjectMetadataID == nil || p.FieldMetadataID == nil || p.ViewGroupID == nil {
		return fmt.Errorf("%w: object, field and view group must be set", ErrInvalidPipeline)
	}
	return nil
}

// PipelineFilter — фильтр поиска конфигурации (аналог get во внешнем CRUD API).
type PipelineFilter struct {
	ObjectMetadataID *uuid.UUID
	FieldMetadataID  *uuid.UUID
	ViewGroupID      *uuid.UUID
	ViewID           *uuid.UUID
}

// IsEmpty возвращает true, если ни одно условие не задано.
func (f PipelineFilter) IsEmpty() bool {
	return f.ObjectMetadataID == nil && f.FieldMetadataID == nil &&
		f.ViewGroupID == nil && f.ViewID == nil
}
