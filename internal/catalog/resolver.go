package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/repo"
)

// Lookup — источник метаданных для Resolver.
// Реализуется repo.CatalogRepo.
type Lookup interface {
	ObjectMetadata(ctx context.Context, id uuid.UUID) (*repo.ObjectMetadata, error)
	FieldName(ctx context.Context, fieldID, objectID uuid.UUID) (string, error)
	SchemaExists(ctx context.Context, schema string) (bool, error)
	TableColumns(ctx context.Context, schema, table string) (map[string]struct{}, error)
}

// Колонки, без которых таблица объекта не может участвовать в pipeline.
var requiredColumns = []string{"id", "createdAt", "updatedAt", "deletedAt"}

// Resolver — SchemaResolver: metadata → domain.Target.
type Resolver struct {
	lookup Lookup
}

// NewResolver создаёт Resolver.
func NewResolver(lookup Lookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// ResolveTarget находит таблицу и колонку стадии для объекта objectID
// и поля fieldID в схеме schema.
//
// Ошибки:
//   - repo.ErrNotFound — нет метаданных, схемы, таблицы или колонки
//   - прочие — ошибка хранилища
func (r *Resolver) ResolveTarget(ctx context.Context, schema string, objectID, fieldID uuid.UUID) (domain.Target, error) {
	if err := r.checkSchema(ctx, schema); err != nil {
		return domain.Target{}, err
	}

	om, err := r.lookup.ObjectMetadata(ctx, objectID)
	if err != nil {
		return domain.Target{}, fmt.Errorf("object metadata %s: %w", objectID, err)
	}

	column, err := r.lookup.FieldName(ctx, fieldID, objectID)
	if err != nil {
		return domain.Target{}, fmt.Errorf("field metadata %s: %w", fieldID, err)
	}

	table := TableName(om.NameSingular, om.IsCustom)
	if !repo.ValidIdentifier(table) || !repo.ValidIdentifier(column) {
		return domain.Target{}, rejected("table %q column %q", table, column)
	}

	columns, err := r.lookup.TableColumns(ctx, schema, table)
	if err != nil {
		return domain.Target{}, err
	}
	if len(columns) == 0 {
		return domain.Target{}, rejected("table %s.%s", schema, table)
	}
	for _, c := range append(requiredColumns, column) {
		if _, ok := columns[c]; !ok {
			return domain.Target{}, rejected("column %s.%s.%s", schema, table, c)
		}
	}

	relations, err := r.relations(ctx, schema, om.NameSingular)
	if err != nil {
		return domain.Target{}, err
	}

	return domain.Target{
		Schema:     schema,
		Table:      table,
		Column:     column,
		ObjectName: om.NameSingular,
		Relations:  relations,
	}, nil
}

func (r *Resolver) checkSchema(ctx context.Context, schema string) error {
	if !repo.ValidIdentifier(schema) {
		return rejected("schema %q", schema)
	}
	exists, err := r.lookup.SchemaExists(ctx, schema)
	if err != nil {
		return err
	}
	if !exists {
		return rejected("schema %s", schema)
	}
	return nil
}

// relations подключает коллекции, чьи таблицы и колонки есть в схеме.
func (r *Resolver) relations(ctx context.Context, schema, objectName string) ([]domain.Relation, error) {
	link := objectName + "Id"
	if !repo.ValidIdentifier(link) {
		return nil, nil
	}

	candidates := []domain.Relation{
		{Key: "notes", Table: "note", Via: "noteTarget", LinkColumn: link, ForeignColumn: "noteId"},
		{Key: "tasks", Table: "task", Via: "taskTarget", LinkColumn: link, ForeignColumn: "taskId"},
		{Key: "attachments", Table: "attachment", LinkColumn: link},
	}

	var found []domain.Relation
	for _, rel := range candidates {
		ok, err := r.relationPresent(ctx, schema, rel)
		if err != nil {
			return nil, err
		}
		if ok {
			found = append(found, rel)
		}
	}
	return found, nil
}

func (r *Resolver) relationPresent(ctx context.Context, schema string, rel domain.Relation) (bool, error) {
	if rel.Via == "" {
		cols, err := r.lookup.TableColumns(ctx, schema, rel.Table)
		if err != nil {
			return false, err
		}
		return hasAll(cols, "id", rel.LinkColumn), nil
	}

	viaCols, err := r.lookup.TableColumns(ctx, schema, rel.Via)
	if err != nil {
		return false, err
	}
	if !hasAll(viaCols, rel.LinkColumn, rel.ForeignColumn) {
		return false, nil
	}

	cols, err := r.lookup.TableColumns(ctx, schema, rel.Table)
	if err != nil {
		return false, err
	}
	return hasAll(cols, "id"), nil
}

// TableName возвращает имя таблицы объекта.
// Таблицы кастомных объектов имеют префикс "_".
func TableName(nameSingular string, isCustom bool) string {
	if isCustom {
		return "_" + nameSingular
	}
	return nameSingular
}

func hasAll(set map[string]struct{}, names ...string) bool {
	for _, n := range names {
		if _, ok := set[n]; !ok {
			return false
		}
	}
	return true
}

func rejected(format string, args ...any) error {
	return fmt.Errorf("%w: %w: "+format, append([]any{repo.ErrNotFound, ErrIdentifierRejected}, args...)...)
}
