package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ObjectMetadata — описание типа объекта из core."objectMetadata".
type ObjectMetadata struct {
	ID           uuid.UUID
	NameSingular string
	IsCustom     bool
}

// CatalogRepo — запросы к метаданным: схемы workspace, объекты, поля
// и allow-list из information_schema.
type CatalogRepo struct {
	db DBTX
}

// NewCatalogRepo создаёт новый CatalogRepo.
func NewCatalogRepo(db DBTX) *CatalogRepo {
	return &CatalogRepo{db: db}
}

// WorkspaceSchema возвращает физическую схему workspace.
func (r *CatalogRepo) WorkspaceSchema(ctx context.Context, workspaceID uuid.UUID) (string, error) {
	var schema string
	err := r.db.QueryRow(ctx, `
		SELECT schema
		FROM core."dataSource"
		WHERE "workspaceId" = $1
		ORDER BY "createdAt" ASC
		LIMIT 1
	`, workspaceID).Scan(&schema)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get workspace schema: %w", err)
	}
	return schema, nil
}

// ObjectMetadata возвращает тип объекта по id.
func (r *CatalogRepo) ObjectMetadata(ctx context.Context, id uuid.UUID) (*ObjectMetadata, error) {
	var om ObjectMetadata
	err := r.db.QueryRow(ctx, `
		SELECT id, "nameSingular", "isCustom"
		FROM core."objectMetadata"
		WHERE id = $1
	`, id).Scan(&om.ID, &om.NameSingular, &om.IsCustom)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get object metadata: %w", err)
	}
	return &om, nil
}

// FieldName возвращает имя поля, принадлежащего объекту.
func (r *CatalogRepo) FieldName(ctx context.Context, fieldID, objectID uuid.UUID) (string, error) {
	var name string
	err := r.db.QueryRow(ctx, `
		SELECT name
		FROM core."fieldMetadata"
		WHERE id = $1 AND "objectMetadataId" = $2
	`, fieldID, objectID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get field name: %w", err)
	}
	return name, nil
}

// SchemaExists проверяет наличие схемы в information_schema.
func (r *CatalogRepo) SchemaExists(ctx context.Context, schema string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.schemata WHERE schema_name = $1
		)
	`, schema).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check schema: %w", err)
	}
	return exists, nil
}

// TableColumns возвращает множество колонок таблицы.
// Для отсутствующей таблицы возвращается пустое множество.
func (r *CatalogRepo) TableColumns(ctx context.Context, schema, table string) (map[string]struct{}, error) {
	rows, err := r.db.Query(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
	`, schema, table)
	if err != nil {
		return nil, fmt.Errorf("list table columns: %w", err)
	}
	defer rows.Close()

	columns := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns[name] = struct{}{}
	}
	return columns, rows.Err()
}
