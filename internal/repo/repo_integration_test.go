//go:build integration

package repo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/shaiso/Conveyor/internal/domain"
)

const fixtureDDL = `
CREATE SCHEMA core;
CREATE TYPE core."aiAgentConfig_status_enum" AS ENUM ('ENABLED', 'DISABLED');
CREATE TABLE core."aiAgentConfig" (
	id uuid PRIMARY KEY,
	"workspaceId" uuid NOT NULL,
	"objectMetadataId" uuid,
	"viewId" uuid,
	"fieldMetadataId" uuid,
	"viewGroupId" uuid,
	agent text NOT NULL,
	"wipLimit" integer NOT NULL DEFAULT 3,
	"additionalInput" varchar(5000),
	status core."aiAgentConfig_status_enum" NOT NULL DEFAULT 'ENABLED',
	"createdAt" timestamptz NOT NULL DEFAULT now(),
	"updatedAt" timestamptz NOT NULL DEFAULT now(),
	"deletedAt" timestamptz
);
CREATE TABLE core."dataSource" ("workspaceId" uuid NOT NULL, schema text NOT NULL, "createdAt" timestamptz NOT NULL DEFAULT now());
CREATE TABLE core."objectMetadata" (id uuid PRIMARY KEY, "nameSingular" text NOT NULL, "isCustom" boolean NOT NULL);
CREATE TABLE core."fieldMetadata" (id uuid PRIMARY KEY, "objectMetadataId" uuid NOT NULL, name text NOT NULL);

CREATE SCHEMA ws_test;
CREATE TABLE ws_test."viewGroup" (
	id uuid PRIMARY KEY,
	"fieldValue" text NOT NULL,
	"position" integer NOT NULL,
	"fieldMetadataId" uuid NOT NULL,
	"viewId" uuid,
	"deletedAt" timestamptz
);
CREATE TABLE ws_test."_deal" (
	id uuid PRIMARY KEY,
	name text,
	stage text,
	"createdAt" timestamptz NOT NULL DEFAULT now(),
	"updatedAt" timestamptz NOT NULL DEFAULT now(),
	"deletedAt" timestamptz
);
CREATE TABLE ws_test."attachment" (
	id uuid PRIMARY KEY,
	"dealId" uuid,
	name text
);
`

func setupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("conveyor"),
		postgres.WithUsername("conveyor"),
		postgres.WithPassword("conveyor"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := NewPool(ctx, PoolConfig{URL: connStr, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, fixtureDDL)
	require.NoError(t, err)
	require.NoError(t, EnsureSchema(ctx, pool))

	return pool
}

func TestRepositories(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t)

	workspaceID := uuid.New()
	objectID := uuid.New()
	fieldID := uuid.New()
	viewID := uuid.New()
	todoID, doingID, doneID := uuid.New(), uuid.New(), uuid.New()

	_, err := pool.Exec(ctx, `INSERT INTO core."dataSource" ("workspaceId", schema) VALUES ($1, 'ws_test')`, workspaceID)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO core."objectMetadata" (id, "nameSingular", "isCustom") VALUES ($1, 'deal', true)`, objectID)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO core."fieldMetadata" (id, "objectMetadataId", name) VALUES ($1, $2, 'stage')`, fieldID, objectID)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `
		INSERT INTO ws_test."viewGroup" (id, "fieldValue", "position", "fieldMetadataId", "viewId", "deletedAt") VALUES
		($1, 'todo', 1, $4, $5, NULL),
		($2, 'doing', 2, $4, $5, NULL),
		($3, 'done', 3, $4, $5, now())
	`, todoID, doingID, doneID, fieldID, viewID)
	require.NoError(t, err)

	t.Run("PipelineRepo", func(t *testing.T) {
		enabledID, disabledID := uuid.New(), uuid.New()
		_, err := pool.Exec(ctx, `
			INSERT INTO core."aiAgentConfig" (id, "workspaceId", "objectMetadataId", "fieldMetadataId", "viewGroupId", agent, "wipLimit", status)
			VALUES ($1, $3, $4, $5, $6, 'agent-1', 2, 'ENABLED'),
			       ($2, $3, $4, $5, $6, 'agent-2', 2, 'DISABLED')
		`, enabledID, disabledID, workspaceID, objectID, fieldID, todoID)
		require.NoError(t, err)

		pipelines := NewPipelineRepo(pool)
		active, err := pipelines.ListActive(ctx)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, enabledID, active[0].ID)
		assert.Equal(t, domain.PipelineStatusEnabled, active[0].Status)
		assert.Nil(t, active[0].ViewID)
		require.NotNil(t, active[0].ViewGroupID)
		assert.Equal(t, todoID, *active[0].ViewGroupID)

		got, err := pipelines.Get(ctx, domain.PipelineFilter{ViewGroupID: &todoID, FieldMetadataID: &fieldID})
		require.NoError(t, err)
		assert.Contains(t, []uuid.UUID{enabledID, disabledID}, got.ID)

		missing := uuid.New()
		_, err = pipelines.Get(ctx, domain.PipelineFilter{ViewGroupID: &missing})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("CatalogRepo", func(t *testing.T) {
		catalog := NewCatalogRepo(pool)

		schema, err := catalog.WorkspaceSchema(ctx, workspaceID)
		require.NoError(t, err)
		assert.Equal(t, "ws_test", schema)

		_, err = catalog.WorkspaceSchema(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)

		om, err := catalog.ObjectMetadata(ctx, objectID)
		require.NoError(t, err)
		assert.Equal(t, "deal", om.NameSingular)
		assert.True(t, om.IsCustom)

		name, err := catalog.FieldName(ctx, fieldID, objectID)
		require.NoError(t, err)
		assert.Equal(t, "stage", name)

		_, err = catalog.FieldName(ctx, fieldID, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)

		exists, err := catalog.SchemaExists(ctx, "ws_test")
		require.NoError(t, err)
		assert.True(t, exists)

		columns, err := catalog.TableColumns(ctx, "ws_test", "_deal")
		require.NoError(t, err)
		assert.Contains(t, columns, "stage")
		assert.Contains(t, columns, "deletedAt")

		columns, err = catalog.TableColumns(ctx, "ws_test", "absent")
		require.NoError(t, err)
		assert.Empty(t, columns)
	})

	t.Run("StageRepo", func(t *testing.T) {
		stages, err := NewStageRepo(pool, "ws_test")
		require.NoError(t, err)

		current, err := stages.CurrentStage(ctx, todoID)
		require.NoError(t, err)
		assert.Equal(t, "todo", current.FieldValue)
		assert.Equal(t, 1, current.Position)

		next, err := stages.NextStage(ctx, fieldID, current.ViewID, current.Position)
		require.NoError(t, err)
		require.NotNil(t, next)
		assert.Equal(t, "doing", next.FieldValue)

		// "done" удалена — "doing" последняя
		last, err := stages.NextStage(ctx, fieldID, nil, next.Position)
		require.NoError(t, err)
		assert.Nil(t, last)

		_, err = stages.CurrentStage(ctx, doneID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("RecordRepo", func(t *testing.T) {
		ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
		base := time.Now().Add(-time.Hour)
		for i, id := range ids {
			_, err := pool.Exec(ctx, `
				INSERT INTO ws_test."_deal" (id, name, stage, "createdAt", "updatedAt") VALUES ($1, $2, 'todo', $3, $3)
			`, id, "deal", base.Add(time.Duration(i)*time.Minute))
			require.NoError(t, err)
		}
		_, err := pool.Exec(ctx, `INSERT INTO ws_test."attachment" (id, "dealId", name) VALUES ($1, $2, 'contract.pdf')`, uuid.New(), ids[0])
		require.NoError(t, err)

		target := domain.Target{
			Schema: "ws_test", Table: "_deal", Column: "stage", ObjectName: "deal",
			Relations: []domain.Relation{{Key: "attachments", Table: "attachment", LinkColumn: "dealId"}},
		}
		records := NewRecordRepo(pool)

		batch, err := records.FetchBatch(ctx, target, "todo", 2)
		require.NoError(t, err)
		require.Len(t, batch, 2)
		assert.Equal(t, ids[0], batch[0].ID)
		assert.Equal(t, ids[1], batch[1].ID)
		assert.Contains(t, string(batch[0].Data), "contract.pdf")
		assert.Contains(t, string(batch[1].Data), `"attachments": []`)

		before := batch[0].UpdatedAt
		require.NoError(t, records.Advance(ctx, target, ids[0], "todo", "doing"))

		// повторное продвижение из той же стадии не проходит
		err = records.Advance(ctx, target, ids[0], "todo", "doing")
		assert.ErrorIs(t, err, ErrNotFound)

		var stage string
		var updatedAt time.Time
		err = pool.QueryRow(ctx, `SELECT stage, "updatedAt" FROM ws_test."_deal" WHERE id = $1`, ids[0]).Scan(&stage, &updatedAt)
		require.NoError(t, err)
		assert.Equal(t, "doing", stage)
		assert.True(t, updatedAt.After(before))

		empty, err := records.FetchBatch(ctx, target, "nothing", 5)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("TriggerRepo", func(t *testing.T) {
		triggers := NewTriggerRepo(pool)

		_, err := triggers.Get(ctx, domain.DefaultTriggerName)
		assert.ErrorIs(t, err, ErrNotFound)

		tr := &domain.Trigger{Name: domain.DefaultTriggerName, Pattern: "*/5 * * * *", Enabled: true}
		require.NoError(t, triggers.Save(ctx, tr))
		assert.False(t, tr.UpdatedAt.IsZero())

		tr.Enabled = false
		require.NoError(t, triggers.Save(ctx, tr))

		got, err := triggers.Get(ctx, domain.DefaultTriggerName)
		require.NoError(t, err)
		assert.Equal(t, "*/5 * * * *", got.Pattern)
		assert.False(t, got.Enabled)
	})
}
