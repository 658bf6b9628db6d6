// Package query binds a catalog of named statements to a connection and runs
// them. Engine differences are data: which catalog and which connection.
package query

import "context"

// Bound parameter names every collection and assessment query receives.
// Statements that do not reference a name ignore it.
const (
	ParamKey      = "PKEY"
	ParamSourceID = "DMA_SOURCE_ID"
	ParamManualID = "DMA_MANUAL_ID"
)

// Params holds named statement parameters.
type Params map[string]any

// RunParams identifies one readiness run to the queries it executes.
type RunParams struct {
	Key      string  // PKEY
	SourceID string  // DMA_SOURCE_ID
	ManualID *string // DMA_MANUAL_ID, nil binds NULL
}

// Params returns the fixed parameter set. DMA_MANUAL_ID is an untyped nil
// when no manual identifier was given so drivers bind NULL.
func (p RunParams) Params() Params {
	var manual any
	if p.ManualID != nil {
		manual = *p.ManualID
	}
	return Params{
		ParamKey:      p.Key,
		ParamSourceID: p.SourceID,
		ParamManualID: manual,
	}
}

// Row maps column names to values.
type Row map[string]any

// ResultSet is the ordered output of one query, tagged with the query name.
type ResultSet struct {
	Query   string   `json:"query"`
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Len returns the number of rows. A nil result set has none.
func (r *ResultSet) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// Empty reports whether the result set has no rows.
func (r *ResultSet) Empty() bool {
	return r.Len() == 0
}

// Values returns the values of one column, in row order.
func (r *ResultSet) Values(column string) []any {
	if r == nil {
		return nil
	}
	out := make([]any, 0, len(r.Rows))
	for _, row := range r.Rows {
		out = append(out, row[column])
	}
	return out
}

// Connection is the capability a query manager needs from a database. Every
// call may block on I/O; a purely local implementation simply never does.
type Connection interface {
	// Execute runs a statement that returns no rows.
	Execute(ctx context.Context, statement string, params Params) error

	// Select runs a statement and returns its rows.
	Select(ctx context.Context, statement string, params Params) (*ResultSet, error)

	// Close releases the connection.
	Close() error
}
