package query

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

const defaultRowCapacity = 64

// SQLConnection implements Connection over database/sql. Named parameters
// are bound into the driver's placeholder dialect.
type SQLConnection struct {
	db     *sql.DB
	format sq.PlaceholderFormat
}

// NewSQLConnection wraps db. format selects the driver's placeholder style
// (sq.Dollar, sq.Question, sq.Colon or sq.AtP).
func NewSQLConnection(db *sql.DB, format sq.PlaceholderFormat) *SQLConnection {
	if format == nil {
		format = sq.Question
	}
	return &SQLConnection{db: db, format: format}
}

// DB returns the underlying handle.
func (c *SQLConnection) DB() *sql.DB {
	return c.db
}

// PlaceholderFormat returns the placeholder dialect statements are bound to.
func (c *SQLConnection) PlaceholderFormat() sq.PlaceholderFormat {
	return c.format
}

// Execute runs a statement that returns no rows.
func (c *SQLConnection) Execute(ctx context.Context, statement string, params Params) error {
	stmt, args, err := Bind(statement, params, c.format)
	if err != nil {
		return err
	}
	if _, err := c.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("executing statement: %w", err)
	}
	return nil
}

// Select runs a statement and collects every row.
func (c *SQLConnection) Select(ctx context.Context, statement string, params Params) (*ResultSet, error) {
	stmt, args, err := Bind(statement, params, c.format)
	if err != nil {
		return nil, err
	}

	rows, err := c.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("querying: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanRows(rows)
}

// Close closes the underlying handle.
func (c *SQLConnection) Close() error {
	if c.db == nil {
		return nil
	}
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

func scanRows(rows *sql.Rows) (*ResultSet, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	rs := &ResultSet{
		Columns: columns,
		Rows:    make([]Row, 0, defaultRowCapacity),
	}

	values := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = normalize(values[i])
		}
		rs.Rows = append(rs.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return rs, nil
}

// normalize converts driver byte slices to strings. Several drivers return
// text and numeric columns as []byte, and the buffer is reused between rows.
func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// Verify interface compliance.
var _ Connection = (*SQLConnection)(nil)
