package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/dma-readiness/internal/querytest"
	"github.com/txn2/dma-readiness/pkg/catalog"
	"github.com/txn2/dma-readiness/pkg/engine"
	"github.com/txn2/dma-readiness/pkg/query"
)

var testRun = query.RunParams{Key: "run-1", SourceID: "db.example:5432/app"}

func sourceCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New("sources/test",
		catalog.Spec{Name: "collection_test_a", Category: catalog.Collection, SQL: "select 'a'"},
		catalog.Spec{Name: "collection_test_b", Category: catalog.Collection, SQL: "select 'b'"},
		catalog.Spec{Name: "collection_test_c", Category: catalog.Collection, SQL: "select 'c'"},
	)
	require.NoError(t, err)
	return cat
}

func TestCollectionManager_RunsInCatalogOrder(t *testing.T) {
	conn := querytest.New().
		On("'a'", querytest.Rows([]string{"v"}, []any{"a"})).
		On("'b'", querytest.Rows([]string{"v"}, []any{"b"}, []any{"b"}))

	m, err := NewCollectionManager(engine.Postgres, conn, WithCatalog(sourceCatalog(t)))
	require.NoError(t, err)

	results, err := m.ExecuteCollectionQueries(context.Background(), testRun)
	require.NoError(t, err)

	assert.Len(t, results, 3)
	assert.Equal(t, 1, results["collection_test_a"].Len())
	assert.Equal(t, 2, results["collection_test_b"].Len())
	assert.True(t, results["collection_test_c"].Empty())
	assert.Equal(t, "collection_test_b", results["collection_test_b"].Query)
	assert.Equal(t, []string{"select 'a'", "select 'b'", "select 'c'"}, conn.Statements("select"))

	for _, call := range conn.Calls() {
		assert.Equal(t, testRun.Params(), call.Params)
	}
}

func TestCollectionManager_EmptyCategory(t *testing.T) {
	conn := querytest.New()
	m, err := NewCollectionManager(engine.Postgres, conn, WithCatalog(sourceCatalog(t)))
	require.NoError(t, err)

	results, err := m.ExecuteExtendedCollectionQueries(context.Background(), testRun)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.Empty(t, conn.Calls())
}

func TestCollectionManager_FailureDiscardsPartialResults(t *testing.T) {
	boom := errors.New("permission denied")
	conn := querytest.New().
		On("'a'", querytest.Rows([]string{"v"}, []any{"a"})).
		Fail("'b'", boom)

	m, err := NewCollectionManager(engine.Postgres, conn, WithCatalog(sourceCatalog(t)))
	require.NoError(t, err)

	results, err := m.ExecuteCollectionQueries(context.Background(), testRun)
	require.ErrorIs(t, err, boom)
	assert.Nil(t, results)

	var execErr *query.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "collection_test_b", execErr.Query)
	assert.Equal(t, catalog.Collection, execErr.Category)
	assert.Equal(t, []string{"select 'a'", "select 'b'"}, conn.Statements("select"), "c never runs")
}

func TestCollectionManager_CanceledContext(t *testing.T) {
	conn := querytest.New()
	m, err := NewCollectionManager(engine.Postgres, conn, WithCatalog(sourceCatalog(t)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := m.ExecuteCollectionQueries(ctx, testRun)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, results)
	assert.Empty(t, conn.Calls())
}

func TestCollectionManager_Hooks(t *testing.T) {
	conn := querytest.New().On("'a'", querytest.Rows([]string{"v"}, []any{"a"}))

	var events []string
	hooks := Hooks{
		BeforeCategory: func(c catalog.Category, names []string) {
			events = append(events, "category:"+string(c))
		},
		BeforeQuery: func(_ catalog.Category, name string) {
			events = append(events, "before:"+name)
		},
		AfterQuery: func(_ catalog.Category, name string, _ *query.ResultSet) {
			events = append(events, "after:"+name)
		},
	}
	m, err := NewCollectionManager(engine.Postgres, conn, WithCatalog(sourceCatalog(t)), WithHooks(hooks))
	require.NoError(t, err)

	_, err = m.ExecuteCollectionQueries(context.Background(), testRun)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"category:collection",
		"before:collection_test_a", "after:collection_test_a",
		"before:collection_test_b", "after:collection_test_b",
		"before:collection_test_c", "after:collection_test_c",
	}, events)
}

func TestCollectionManager_HookSeesEmptyCategory(t *testing.T) {
	var got []string
	called := false
	hooks := Hooks{BeforeCategory: func(_ catalog.Category, names []string) {
		called = true
		got = names
	}}
	m, err := NewCollectionManager(engine.Postgres, querytest.New(), WithCatalog(sourceCatalog(t)), WithHooks(hooks))
	require.NoError(t, err)

	_, err = m.ExecuteExtendedCollectionQueries(context.Background(), testRun)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Empty(t, got)
}

func TestNewCollectionManager_EmbeddedCatalogs(t *testing.T) {
	for _, e := range engine.All() {
		t.Run(e.String(), func(t *testing.T) {
			m, err := NewCollectionManager(e, querytest.New())
			require.NoError(t, err)
			assert.Equal(t, e, m.Engine())
			assert.NotEmpty(t, m.Manager().AvailableQueries(catalog.Collection))
		})
	}
}

func TestNewCollectionManager_UnknownEngine(t *testing.T) {
	_, err := NewCollectionManager("db2", querytest.New())
	var loadErr *catalog.LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.ErrorIs(t, err, catalog.ErrNoCatalog)
}

func TestCollectionManager_SQLServerHasNoExtendedQueries(t *testing.T) {
	conn := querytest.New()
	m, err := NewCollectionManager(engine.SQLServer, conn)
	require.NoError(t, err)

	results, err := m.ExecuteExtendedCollectionQueries(context.Background(), testRun)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestResults_Names(t *testing.T) {
	r := Results{"a": nil, "b": nil}
	assert.ElementsMatch(t, []string{"a", "b"}, r.Names())
}
