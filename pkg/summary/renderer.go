package summary

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/txn2/dma-readiness/pkg/engine"
	"github.com/txn2/dma-readiness/pkg/query"
)

// dsq is the DuckDB statement builder with dollar placeholders.
var dsq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Source is where a renderer reads staged relations from.
type Source interface {
	Select(ctx context.Context, statement string, params query.Params) (*query.ResultSet, error)
}

// Renderer builds the summary for one engine.
type Renderer interface {
	Summarize(ctx context.Context, src Source) (*Summary, error)
}

// RelationRenderer reads fixed columns of one relation, in insertion order.
type RelationRenderer struct {
	Title    string
	Relation string
	Columns  []string
	Headers  []string
}

// Statement returns the select the renderer runs.
func (r RelationRenderer) Statement() (string, error) {
	stmt, _, err := dsq.Select(r.Columns...).
		From(r.Relation).
		OrderBy("rowid").
		ToSql()
	if err != nil {
		return "", fmt.Errorf("building summary query for %s: %w", r.Relation, err)
	}
	return stmt, nil
}

// Summarize reads the relation and formats every value as text.
func (r RelationRenderer) Summarize(ctx context.Context, src Source) (*Summary, error) {
	stmt, err := r.Statement()
	if err != nil {
		return nil, err
	}
	rs, err := src.Select(ctx, stmt, nil)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", r.Relation, err)
	}

	s := &Summary{Title: r.Title, Headers: r.Headers, Rows: make([][]string, 0, rs.Len())}
	for _, row := range rs.Rows {
		cells := make([]string, len(r.Columns))
		for i, col := range r.Columns {
			cells[i] = cell(row[col])
		}
		s.Rows = append(s.Rows, cells)
	}
	return s, nil
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

// renderers is the static engine to renderer table. Engines missing here
// have no summary.
var renderers = map[engine.Type]Renderer{
	engine.Postgres: RelationRenderer{
		Title:    "PostgreSQL calculated metrics",
		Relation: "collection_postgres_calculated_metrics",
		Columns:  []string{"metric_category", "metric_name", "metric_value"},
		Headers:  []string{"Metric Category", "Metric", "Value"},
	},
	engine.MySQL: RelationRenderer{
		Title:    "MySQL configuration",
		Relation: "collection_mysql_config",
		Columns:  []string{"variable_category", "variable_name", "variable_value"},
		Headers:  []string{"Variable Category", "Variable", "Value"},
	},
}

// Lookup returns the renderer registered for e.
func Lookup(e engine.Type) (Renderer, bool) {
	r, ok := renderers[e]
	return r, ok
}

// Verify interface compliance.
var _ Renderer = (*RelationRenderer)(nil)
