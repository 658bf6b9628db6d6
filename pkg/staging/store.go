// Package staging provides the local analytical store collected result sets
// are loaded into before the canonical transformation and assessment run.
package staging

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"
	duckdb "github.com/duckdb/duckdb-go/v2"

	"github.com/txn2/dma-readiness/pkg/query"
)

// insertBatchRows bounds the rows sent in one INSERT statement.
const insertBatchRows = 256

// dsq is the DuckDB statement builder with dollar placeholders.
var dsq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ErrEmptyRelationName is returned when a result set is registered without a
// relation name.
var ErrEmptyRelationName = errors.New("relation name is empty")

// Store is a DuckDB database that result sets are registered into as
// relations. It is also a query.Connection, so the canonical catalog runs
// against it directly.
type Store struct {
	*query.SQLConnection
	path string
}

// Open opens an empty DuckDB database at path. Anything an earlier run left
// at path is removed first, so every run starts with no relations. An empty
// path opens a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("creating staging directory: %w", err)
		}
		if err := removeDatabase(path); err != nil {
			return nil, fmt.Errorf("clearing staging database: %w", err)
		}
	}

	connector, err := duckdb.NewConnector(path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating duckdb connector: %w", err)
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging staging database: %w", err)
	}
	return &Store{SQLConnection: query.NewSQLConnection(db, sq.Dollar), path: path}, nil
}

// NewStore wraps an already open DuckDB handle.
func NewStore(db *sql.DB) *Store {
	return &Store{SQLConnection: query.NewSQLConnection(db, sq.Dollar)}
}

// Path returns the database file path, empty for an in-memory store.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database. A file-backed store also removes its file;
// staged relations never outlive the store.
func (s *Store) Close() error {
	if err := s.SQLConnection.Close(); err != nil {
		return err
	}
	if s.path == "" {
		return nil
	}
	if err := removeDatabase(s.path); err != nil {
		return fmt.Errorf("removing staging database: %w", err)
	}
	return nil
}

// removeDatabase deletes a DuckDB file and its write-ahead log.
func removeDatabase(path string) error {
	for _, p := range []string{path, path + ".wal"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Register replaces the relation name with the rows of rs. Column types are
// inferred from the values. An empty result set registers nothing.
func (s *Store) Register(ctx context.Context, name string, rs *query.ResultSet) error {
	if name == "" {
		return ErrEmptyRelationName
	}
	if rs.Empty() {
		return nil
	}

	cols := inferColumns(rs)
	tx, err := s.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, createStatement(name, cols)); err != nil {
		return fmt.Errorf("creating relation %s: %w", name, err)
	}

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = quoteIdent(c.name)
	}
	for start := 0; start < len(rs.Rows); start += insertBatchRows {
		end := min(start+insertBatchRows, len(rs.Rows))
		qb := dsq.Insert(quoteIdent(name)).Columns(names...)
		for _, row := range rs.Rows[start:end] {
			values := make([]any, len(cols))
			for i, c := range cols {
				values[i] = c.typ.convert(row[c.name])
			}
			qb = qb.Values(values...)
		}
		stmt, args, err := qb.ToSql()
		if err != nil {
			return fmt.Errorf("building insert for %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return fmt.Errorf("loading relation %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing relation %s: %w", name, err)
	}
	return nil
}

// Tables returns the relations in the main schema, sorted by name.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	stmt, args, err := dsq.Select("table_name").
		From("information_schema.tables").
		Where(sq.Eq{"table_schema": "main"}).
		OrderBy("table_name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building tables query: %w", err)
	}

	rows, err := s.DB().QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("listing relations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning relation name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating relations: %w", err)
	}
	return tables, nil
}

type column struct {
	name string
	typ  columnType
}

// inferColumns returns the result set's columns with a type each. Columns
// missing from the header but present in rows are appended in name order.
func inferColumns(rs *query.ResultSet) []column {
	names := append([]string(nil), rs.Columns...)
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	var extra []string
	for _, row := range rs.Rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				extra = append(extra, k)
			}
		}
	}
	sort.Strings(extra)
	names = append(names, extra...)

	cols := make([]column, len(names))
	for i, n := range names {
		cols[i] = column{name: n, typ: inferType(rs.Values(n))}
	}
	return cols
}

func createStatement(name string, cols []column) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = quoteIdent(c.name) + " " + string(c.typ)
	}
	return fmt.Sprintf("CREATE OR REPLACE TABLE %s (%s)", quoteIdent(name), strings.Join(defs, ", "))
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
