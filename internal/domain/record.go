package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Target — физическое расположение записей pipeline.
//
// Все идентификаторы прошли проверку по allow-list из information_schema
// и используются в SQL только через pgx.Identifier.
type Target struct {
	// Schema — схема workspace (например, workspace_1wgvd1injqtife6y4rvfbu3h5).
	Schema string `json:"schema"`

	// Table — таблица объекта ("company" или "_invoice" для кастомных).
	Table string `json:"table"`

	// Column — колонка поля, хранящего стадию.
	Column string `json:"column"`

	// ObjectName — nameSingular объекта, используется в именах link-колонок.
	ObjectName string `json:"object_name"`

	// Relations — связанные коллекции, которые добавляются к записи.
	Relations []Relation `json:"relations,omitempty"`
}

// String возвращает schema.table.column для логов.
func (t Target) String() string {
	return t.Schema + "." + t.Table + "." + t.Column
}

// Relation — связанная коллекция записи (notes, tasks, attachments).
//
// Если Via не пустой, связь идёт через таблицу-связку:
//
//	Via.LinkColumn = main.id, Table.id = Via.ForeignColumn
//
// Иначе Table.LinkColumn = main.id.
type Relation struct {
	// Key — имя атрибута в данных записи.
	Key string `json:"key"`

	Table         string `json:"table"`
	Via           string `json:"via,omitempty"`
	LinkColumn    string `json:"link_column"`
	ForeignColumn string `json:"foreign_column,omitempty"`
}

// Record — строка таблицы workspace, стоящая в стадии pipeline.
type Record struct {
	ID uuid.UUID `json:"id"`

	// StageValue — текущее значение колонки стадии.
	StageValue string `json:"stage_value"`

	UpdatedAt time.Time `json:"updated_at"`

	// Data — полный набор атрибутов записи вместе со связанными коллекциями.
	// Передаётся агенту как есть.
	Data json.RawMessage `json:"data"`
}
