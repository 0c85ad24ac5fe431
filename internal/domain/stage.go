package domain

import (
	"time"

	"github.com/google/uuid"
)

// Stage — одна колонка kanban-доски (строка viewGroup).
//
// Стадии одного поля упорядочены по Position. Следующая стадия — соседняя
// с наименьшей позицией строго больше текущей.
type Stage struct {
	ID uuid.UUID `json:"id"`

	// FieldValue — значение поля, соответствующее колонке.
	FieldValue string `json:"field_value"`

	// Position — порядок колонки среди соседей.
	Position int `json:"position"`

	// FieldMetadataID — поле, которому принадлежит стадия.
	FieldMetadataID uuid.UUID `json:"field_metadata_id"`

	// ViewID — view, в котором определена колонка (может отсутствовать).
	ViewID *uuid.UUID `json:"view_id,omitempty"`

	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// IsDeleted возвращает true для мягко удалённой стадии.
func (s *Stage) IsDeleted() bool {
	return s.DeletedAt != nil
}
