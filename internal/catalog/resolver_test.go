package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/Conveyor/internal/repo"
)

type fakeLookup struct {
	schemas map[string]bool
	objects map[uuid.UUID]*repo.ObjectMetadata
	fields  map[uuid.UUID]string
	tables  map[string][]string
	err     error
}

func (f *fakeLookup) ObjectMetadata(_ context.Context, id uuid.UUID) (*repo.ObjectMetadata, error) {
	om, ok := f.objects[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return om, nil
}

func (f *fakeLookup) FieldName(_ context.Context, fieldID, _ uuid.UUID) (string, error) {
	name, ok := f.fields[fieldID]
	if !ok {
		return "", repo.ErrNotFound
	}
	return name, nil
}

func (f *fakeLookup) SchemaExists(_ context.Context, schema string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.schemas[schema], nil
}

func (f *fakeLookup) TableColumns(_ context.Context, _, table string) (map[string]struct{}, error) {
	set := make(map[string]struct{})
	for _, c := range f.tables[table] {
		set[c] = struct{}{}
	}
	return set, nil
}

func newFixture() (*fakeLookup, uuid.UUID, uuid.UUID) {
	objectID, fieldID := uuid.New(), uuid.New()
	return &fakeLookup{
		schemas: map[string]bool{"ws_1": true},
		objects: map[uuid.UUID]*repo.ObjectMetadata{
			objectID: {ID: objectID, NameSingular: "company"},
		},
		fields: map[uuid.UUID]string{fieldID: "stage"},
		tables: map[string][]string{
			"company": {"id", "name", "stage", "createdAt", "updatedAt", "deletedAt"},
		},
	}, objectID, fieldID
}

func TestResolveTarget_BuiltinObject(t *testing.T) {
	lookup, objectID, fieldID := newFixture()

	target, err := NewResolver(lookup).ResolveTarget(context.Background(), "ws_1", objectID, fieldID)
	require.NoError(t, err)

	assert.Equal(t, "ws_1", target.Schema)
	assert.Equal(t, "company", target.Table)
	assert.Equal(t, "stage", target.Column)
	assert.Equal(t, "company", target.ObjectName)
	assert.Empty(t, target.Relations)
}

func TestResolveTarget_CustomObjectPrefix(t *testing.T) {
	lookup, objectID, fieldID := newFixture()
	lookup.objects[objectID].IsCustom = true
	lookup.tables["_company"] = lookup.tables["company"]
	delete(lookup.tables, "company")

	target, err := NewResolver(lookup).ResolveTarget(context.Background(), "ws_1", objectID, fieldID)
	require.NoError(t, err)
	assert.Equal(t, "_company", target.Table)
}

func TestResolveTarget_Relations(t *testing.T) {
	lookup, objectID, fieldID := newFixture()
	lookup.tables["noteTarget"] = []string{"id", "companyId", "noteId"}
	lookup.tables["note"] = []string{"id", "title"}
	lookup.tables["taskTarget"] = []string{"id", "personId", "taskId"} // нет companyId
	lookup.tables["task"] = []string{"id"}
	lookup.tables["attachment"] = []string{"id", "companyId"}

	target, err := NewResolver(lookup).ResolveTarget(context.Background(), "ws_1", objectID, fieldID)
	require.NoError(t, err)

	require.Len(t, target.Relations, 2)
	assert.Equal(t, "notes", target.Relations[0].Key)
	assert.Equal(t, "noteTarget", target.Relations[0].Via)
	assert.Equal(t, "companyId", target.Relations[0].LinkColumn)
	assert.Equal(t, "attachments", target.Relations[1].Key)
	assert.Empty(t, target.Relations[1].Via)
}

func TestResolveTarget_NotFound(t *testing.T) {
	tests := []struct {
		name   string
		schema string
		mutate func(f *fakeLookup, objectID, fieldID uuid.UUID)
	}{
		{"unknown schema", "ws_2", func(*fakeLookup, uuid.UUID, uuid.UUID) {}},
		{"unsafe schema", `ws_1"; --`, func(*fakeLookup, uuid.UUID, uuid.UUID) {}},
		{"unknown object", "ws_1", func(f *fakeLookup, objectID, _ uuid.UUID) { delete(f.objects, objectID) }},
		{"unknown field", "ws_1", func(f *fakeLookup, _, fieldID uuid.UUID) { delete(f.fields, fieldID) }},
		{"missing table", "ws_1", func(f *fakeLookup, _, _ uuid.UUID) { delete(f.tables, "company") }},
		{"missing column", "ws_1", func(f *fakeLookup, _, fieldID uuid.UUID) { f.fields[fieldID] = "status" }},
		{"unsafe column", "ws_1", func(f *fakeLookup, _, fieldID uuid.UUID) { f.fields[fieldID] = `stage" OR 1=1` }},
		{"no deletedAt", "ws_1", func(f *fakeLookup, _, _ uuid.UUID) {
			f.tables["company"] = []string{"id", "stage", "createdAt", "updatedAt"}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup, objectID, fieldID := newFixture()
			tt.mutate(lookup, objectID, fieldID)

			_, err := NewResolver(lookup).ResolveTarget(context.Background(), tt.schema, objectID, fieldID)
			assert.ErrorIs(t, err, repo.ErrNotFound)
		})
	}
}

func TestResolveTarget_StorageError(t *testing.T) {
	lookup, objectID, fieldID := newFixture()
	lookup.err = errors.New("connection reset")

	_, err := NewResolver(lookup).ResolveTarget(context.Background(), "ws_1", objectID, fieldID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, repo.ErrNotFound)
}

func TestTableName(t *testing.T) {
	assert.Equal(t, "person", TableName("person", false))
	assert.Equal(t, "_invoice", TableName("invoice", true))
}
