package summary

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/dma-readiness/internal/querytest"
	"github.com/txn2/dma-readiness/pkg/engine"
	"github.com/txn2/dma-readiness/pkg/query"
	"github.com/txn2/dma-readiness/pkg/staging"
)

func TestLookup(t *testing.T) {
	for _, e := range []engine.Type{engine.Postgres, engine.MySQL} {
		_, ok := Lookup(e)
		assert.True(t, ok, e)
	}
	for _, e := range []engine.Type{engine.Oracle, engine.SQLServer, "db2"} {
		_, ok := Lookup(e)
		assert.False(t, ok, e)
	}
}

func TestRelationRenderer_Statement(t *testing.T) {
	r, _ := Lookup(engine.Postgres)
	stmt, err := r.(RelationRenderer).Statement()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT metric_category, metric_name, metric_value FROM collection_postgres_calculated_metrics ORDER BY rowid",
		stmt)
}

// A staged metrics relation renders as exactly its rows, in column order.
func TestPostgresSummary_FromStaging(t *testing.T) {
	ctx := context.Background()
	store, err := staging.Open(ctx, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	rs := querytest.Rows(
		[]string{"pkey", "dma_source_id", "dma_manual_id", "metric_category", "metric_name", "metric_value"},
		[]any{"k", "s", nil, "memory", "shared_buffers", "128MB"},
	)
	require.NoError(t, store.Register(ctx, "collection_postgres_calculated_metrics", rs))

	r, ok := Lookup(engine.Postgres)
	require.True(t, ok)
	s, err := r.Summarize(ctx, store)
	require.NoError(t, err)

	assert.Equal(t, []string{"Metric Category", "Metric", "Value"}, s.Headers)
	assert.Equal(t, [][]string{{"memory", "shared_buffers", "128MB"}}, s.Rows)

	var buf bytes.Buffer
	require.NoError(t, s.Render(&buf))
	out := buf.String()
	for _, want := range []string{"Metric Category", "memory", "shared_buffers", "128MB"} {
		assert.Contains(t, out, want)
	}
}

func TestMySQLSummary_PreservesOrder(t *testing.T) {
	conn := querytest.New().On("collection_mysql_config", querytest.Rows(
		[]string{"variable_category", "variable_name", "variable_value"},
		[]any{"innodb", "innodb_buffer_pool_size", int64(134217728)},
		[]any{"general", "max_connections", "151"},
		[]any{"general", "sql_mode", nil},
	))

	r, ok := Lookup(engine.MySQL)
	require.True(t, ok)
	s, err := r.Summarize(context.Background(), conn)
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"innodb", "innodb_buffer_pool_size", "134217728"},
		{"general", "max_connections", "151"},
		{"general", "sql_mode", ""},
	}, s.Rows)
}

func TestPrint_WritesNothingOnFailure(t *testing.T) {
	conn := querytest.New().Fail("collection_postgres_calculated_metrics", errors.New("no such table"))
	r, _ := Lookup(engine.Postgres)

	var buf bytes.Buffer
	called := false
	err := Print(context.Background(), r, conn, &buf, func(*Summary) { called = true })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collection_postgres_calculated_metrics")
	assert.Zero(t, buf.Len())
	assert.False(t, called, "before must not run for a summary that was never fetched")
}

func TestPrint_BeforeRunsAheadOfRender(t *testing.T) {
	conn := querytest.New().On("collection_mysql_config", querytest.Rows(
		[]string{"variable_category", "variable_name", "variable_value"},
		[]any{"memory", "innodb_buffer_pool_size", "134217728"},
	))
	r, _ := Lookup(engine.MySQL)

	var buf bytes.Buffer
	require.NoError(t, Print(context.Background(), r, conn, &buf, func(s *Summary) {
		assert.Len(t, s.Rows, 1)
		buf.WriteString("HEADING\n")
	}))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "HEADING\n"))
	assert.Contains(t, out, "innodb_buffer_pool_size")
}

func TestPrint_EmptyRelation(t *testing.T) {
	conn := querytest.New().On("collection_mysql_config", &query.ResultSet{})
	r, _ := Lookup(engine.MySQL)

	var buf bytes.Buffer
	require.NoError(t, Print(context.Background(), r, conn, &buf, nil))
	assert.Contains(t, buf.String(), "Variable Category")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed pipe") }

func TestSummary_RenderWriteError(t *testing.T) {
	s := &Summary{Headers: []string{"a"}, Rows: [][]string{{"1"}}}
	err := s.Render(failingWriter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "writing summary")
}

func TestSummary_StringIncludesTitle(t *testing.T) {
	s := &Summary{Title: "Totals", Headers: []string{"k", "v"}, Rows: [][]string{{"a", "1"}}}
	out := s.String()
	assert.Contains(t, out, "Totals")
	assert.Contains(t, out, "a")
}
