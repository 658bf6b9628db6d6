package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/dma-readiness/internal/querytest"
	"github.com/txn2/dma-readiness/pkg/catalog"
	"github.com/txn2/dma-readiness/pkg/query"
	"github.com/txn2/dma-readiness/pkg/staging"
)

func canonicalCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New("canonical-test",
		catalog.Spec{Name: "transformation_one", Category: catalog.Transformation, SQL: "create table one as select 1"},
		catalog.Spec{Name: "transformation_two", Category: catalog.Transformation, SQL: "create table two as select 2"},
		catalog.Spec{Name: "assessment_one", Category: catalog.Assessment, SQL: "select :PKEY as pkey from one"},
	)
	require.NoError(t, err)
	return cat
}

func TestCanonicalManager_Transformations(t *testing.T) {
	conn := querytest.New()
	m, err := NewCanonicalManager(conn, WithCatalog(canonicalCatalog(t)))
	require.NoError(t, err)

	require.NoError(t, m.ExecuteTransformationQueries(context.Background()))
	assert.Equal(t, []string{"create table one as select 1", "create table two as select 2"}, conn.Statements("execute"))
	assert.Empty(t, conn.Statements("select"))
}

func TestCanonicalManager_TransformationFailureStops(t *testing.T) {
	conn := querytest.New().Fail("one", errors.New("catalog error"))
	m, err := NewCanonicalManager(conn, WithCatalog(canonicalCatalog(t)))
	require.NoError(t, err)

	err = m.ExecuteTransformationQueries(context.Background())
	var execErr *query.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, catalog.Transformation, execErr.Category)
	assert.Len(t, conn.Statements("execute"), 1)
}

func TestCanonicalManager_Assessments(t *testing.T) {
	conn := querytest.New().On("from one", querytest.Rows([]string{"pkey"}, []any{"run-1"}))
	m, err := NewCanonicalManager(conn, WithCatalog(canonicalCatalog(t)))
	require.NoError(t, err)

	results, err := m.ExecuteAssessmentQueries(context.Background(), testRun)
	require.NoError(t, err)
	require.Contains(t, results, "assessment_one")
	assert.Equal(t, 1, results["assessment_one"].Len())
}

// Transformations run in catalog order on a real store: a script reading
// another script's table only works when it comes second.
func TestCanonicalManager_TransformationOrderOnStaging(t *testing.T) {
	base := catalog.Spec{Name: "transformation_base", Category: catalog.Transformation,
		SQL: "create table base as select 1 as n"}
	derived := catalog.Spec{Name: "transformation_derived", Category: catalog.Transformation,
		SQL: "create table derived as select n + 1 as n from base"}

	tests := []struct {
		name    string
		specs   []catalog.Spec
		wantErr string
	}{
		{name: "dependency first", specs: []catalog.Spec{base, derived}},
		{name: "dependency second", specs: []catalog.Spec{derived, base}, wantErr: derived.Name},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store, err := staging.Open(ctx, "")
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })

			cat, err := catalog.New("order-test", tt.specs...)
			require.NoError(t, err)
			m, err := NewCanonicalManager(store, WithCatalog(cat))
			require.NoError(t, err)

			err = m.ExecuteTransformationQueries(ctx)
			tables, tablesErr := store.Tables(ctx)
			require.NoError(t, tablesErr)

			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, []string{"base", "derived"}, tables)
				return
			}

			var execErr *query.ExecutionError
			require.ErrorAs(t, err, &execErr)
			assert.Equal(t, tt.wantErr, execErr.Query)
			assert.Equal(t, catalog.Transformation, execErr.Category)
			assert.Empty(t, tables, "scripts after the failure must not run")
		})
	}
}

// The embedded canonical catalog runs end to end against DuckDB with only
// part of the collected relations staged.
func TestCanonicalManager_EmbeddedCatalogOnStaging(t *testing.T) {
	ctx := context.Background()
	store, err := staging.Open(ctx, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	staged := map[string]*query.ResultSet{
		"collection_postgres_version": querytest.Rows(
			[]string{"pkey", "dma_source_id", "dma_manual_id", "version_string", "version_num", "database_name"},
			[]any{"run-1", "src", nil, "PostgreSQL 16.2", "160002", "app"},
		),
		"collection_postgres_settings": querytest.Rows(
			[]string{"pkey", "dma_source_id", "dma_manual_id", "name", "setting", "unit", "category", "source", "context"},
			[]any{"run-1", "src", nil, "shared_buffers", "16384", "8kB", "Resource Usage / Memory", "configuration file", "postmaster"},
			[]any{"run-1", "src", nil, "work_mem", "4096", "kB", "Resource Usage / Memory", "default", "user"},
		),
		"extended_collection_postgres_table_details": querytest.Rows(
			[]string{"pkey", "dma_source_id", "dma_manual_id", "schema_name", "table_name", "live_rows", "total_bytes", "seq_scans", "idx_scans"},
			[]any{"run-1", "src", nil, "public", "orders", int64(10), int64(8192), int64(1), int64(0)},
			[]any{"run-1", "src", nil, "public", "items", int64(5), int64(16384), int64(2), nil},
		),
	}
	_, err = staging.Import(ctx, store, staged)
	require.NoError(t, err)

	m, err := NewCanonicalManager(store)
	require.NoError(t, err)
	require.NoError(t, m.ExecuteTransformationQueries(ctx))

	results, err := m.ExecuteAssessmentQueries(ctx, testRun)
	require.NoError(t, err)

	metrics := map[string]any{}
	for _, rs := range results {
		for _, row := range rs.Rows {
			metrics[row["metric_name"].(string)] = row["metric_value"]
			assert.Equal(t, testRun.Key, row["pkey"])
			assert.Nil(t, row["dma_manual_id"])
		}
	}
	assert.Equal(t, "postgres", metrics["database_type"])
	assert.Equal(t, "2", metrics["setting_count"])
	assert.Equal(t, "0", metrics["extension_count"])
	assert.Equal(t, "2", metrics["table_count"])
	assert.Equal(t, "24576", metrics["total_table_bytes"])
}
