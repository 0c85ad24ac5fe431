package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shaiso/Conveyor/internal/domain"
)

// RecordRepo — выборка и продвижение записей в таблице workspace.
//
// Имена схемы, таблицы и колонок приходят из domain.Target, который
// прошёл allow-list; дополнительно они проверяются ValidIdentifier
// и экранируются через pgx.Identifier.
type RecordRepo struct {
	db DBTX
}

// NewRecordRepo создаёт новый RecordRepo.
func NewRecordRepo(db DBTX) *RecordRepo {
	return &RecordRepo{db: db}
}

// FetchBatch возвращает до limit записей, стоящих в стадии stageValue.
//
// Порядок: "createdAt", затем id — одинаковый от запуска к запуску,
// поэтому backlog разбирается по очереди.
// Данные записи включают связанные коллекции из target.Relations.
func (r *RecordRepo) FetchBatch(ctx context.Context, target domain.Target, stageValue string, limit int) ([]domain.Record, error) {
	if limit < 1 {
		return nil, nil
	}
	if err := checkTarget(target); err != nil {
		return nil, err
	}

	query, args := buildFetchQuery(target, stageValue, limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch batch from %s: %w", target, err)
	}
	defer rows.Close()

	records := make([]domain.Record, 0, limit)
	for rows.Next() {
		var rec domain.Record
		if err := rows.Scan(&rec.ID, &rec.StageValue, &rec.UpdatedAt, &rec.Data); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Advance переводит запись из стадии from в стадию to.
//
// Обновление условное: колонка стадии должна всё ещё равняться from.
// Если запись удалена или уже передвинута другим run, возвращается ErrNotFound.
// "updatedAt" всегда строго увеличивается.
func (r *RecordRepo) Advance(ctx context.Context, target domain.Target, recordID uuid.UUID, from, to string) error {
	if err := checkTarget(target); err != nil {
		return err
	}

	table := pgx.Identifier{target.Schema, target.Table}.Sanitize()
	column := pgx.Identifier{target.Column}.Sanitize()

	query := `UPDATE ` + table + `
		SET ` + column + ` = $1,
		    "updatedAt" = GREATEST(now(), "updatedAt" + interval '1 microsecond')
		WHERE id = $2 AND "deletedAt" IS NULL AND ` + column + ` = $3
	`
	result, err := r.db.Exec(ctx, query, to, recordID, from)
	if err != nil {
		return fmt.Errorf("advance record %s in %s: %w", recordID, target, err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// buildFetchQuery собирает SELECT с подзапросами для связанных коллекций.
//
//	SELECT main.id, main."stage"::text, main."updatedAt",
//	       to_jsonb(main.*) || jsonb_build_object($3::text, COALESCE((...), '[]'::jsonb))
//	FROM "schema"."table" main
//	WHERE main."stage" = $1 AND main."deletedAt" IS NULL
//	ORDER BY main."createdAt", main.id
//	LIMIT $2
func buildFetchQuery(target domain.Target, stageValue string, limit int) (string, []any) {
	table := pgx.Identifier{target.Schema, target.Table}.Sanitize()
	column := pgx.Identifier{target.Column}.Sanitize()

	args := []any{stageValue, limit}

	var data strings.Builder
	data.WriteString("to_jsonb(main.*)")
	for _, rel := range target.Relations {
		args = append(args, rel.Key)
		fmt.Fprintf(&data, " || jsonb_build_object($%d::text, COALESCE((%s), '[]'::jsonb))",
			len(args), relationSubquery(target.Schema, rel))
	}

	query := `SELECT main.id, main.` + column + `::text, main."updatedAt", ` + data.String() + `
		FROM ` + table + ` main
		WHERE main.` + column + ` = $1 AND main."deletedAt" IS NULL
		ORDER BY main."createdAt" ASC, main.id ASC
		LIMIT $2
	`
	return query, args
}

func relationSubquery(schema string, rel domain.Relation) string {
	table := pgx.Identifier{schema, rel.Table}.Sanitize()
	link := pgx.Identifier{rel.LinkColumn}.Sanitize()

	if rel.Via == "" {
		return `SELECT jsonb_agg(to_jsonb(r.*) ORDER BY r.id) FROM ` + table + ` r WHERE r.` + link + ` = main.id`
	}

	via := pgx.Identifier{schema, rel.Via}.Sanitize()
	foreign := pgx.Identifier{rel.ForeignColumn}.Sanitize()
	return `SELECT jsonb_agg(to_jsonb(r.*) ORDER BY r.id) FROM ` + via + ` l JOIN ` + table +
		` r ON r.id = l.` + foreign + ` WHERE l.` + link + ` = main.id`
}

// checkTarget отсекает Target, собранный в обход catalog.Resolver.
func checkTarget(t domain.Target) error {
	names := []string{t.Schema, t.Table, t.Column}
	for _, rel := range t.Relations {
		names = append(names, rel.Key, rel.Table, rel.LinkColumn)
		if rel.Via != "" {
			names = append(names, rel.Via, rel.ForeignColumn)
		}
	}
	for _, name := range names {
		if !ValidIdentifier(name) {
			return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
		}
	}
	return nil
}
