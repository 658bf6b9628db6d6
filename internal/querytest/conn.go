// Package querytest provides a scripted in-memory query.Connection for tests.
package querytest

import (
	"context"
	"maps"
	"strings"
	"sync"

	"github.com/txn2/dma-readiness/pkg/query"
)

// Call records one statement sent to the connection.
type Call struct {
	Method    string
	Statement string
	Params    query.Params
}

type response struct {
	match  string
	result *query.ResultSet
	err    error
}

// Conn answers statements from scripted responses. The first response whose
// match string is contained in the statement wins; unmatched selects return
// an empty result and unmatched executes succeed.
type Conn struct {
	mu         sync.Mutex
	responses  []response
	calls      []Call
	registered map[string]*query.ResultSet
	closed     int

	// CloseErr is returned from Close when set.
	CloseErr error
	// RegisterErr is returned from Register when set.
	RegisterErr error
}

// New creates an empty scripted connection.
func New() *Conn {
	return &Conn{registered: make(map[string]*query.ResultSet)}
}

// On answers statements containing match with rs.
func (c *Conn) On(match string, rs *query.ResultSet) *Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses = append(c.responses, response{match: match, result: rs})
	return c
}

// Fail answers statements containing match with err.
func (c *Conn) Fail(match string, err error) *Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses = append(c.responses, response{match: match, err: err})
	return c
}

// Execute records the call and returns the scripted error, if any.
func (c *Conn) Execute(ctx context.Context, statement string, params query.Params) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r := c.record("execute", statement, params)
	return r.err
}

// Select records the call and returns a copy of the scripted result.
func (c *Conn) Select(ctx context.Context, statement string, params query.Params) (*query.ResultSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := c.record("select", statement, params)
	if r.err != nil {
		return nil, r.err
	}
	if r.result == nil {
		return &query.ResultSet{}, nil
	}
	cp := *r.result
	return &cp, nil
}

// Register stores rs under name, replacing any earlier relation.
func (c *Conn) Register(_ context.Context, name string, rs *query.ResultSet) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, Call{Method: "register", Statement: name})
	if c.RegisterErr != nil {
		return c.RegisterErr
	}
	c.registered[name] = rs
	return nil
}

// Close counts the call and returns CloseErr.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return c.CloseErr
}

// Registered returns a copy of the registered relations.
func (c *Conn) Registered() map[string]*query.ResultSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.registered)
}

// Calls returns every recorded call in order.
func (c *Conn) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}

// Statements returns the recorded statements for one method ("execute",
// "select" or "register"), in order.
func (c *Conn) Statements(method string) []string {
	var out []string
	for _, call := range c.Calls() {
		if call.Method == method {
			out = append(out, call.Statement)
		}
	}
	return out
}

// CloseCount returns how many times Close was called.
func (c *Conn) CloseCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Conn) record(method, statement string, params query.Params) response {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, Call{Method: method, Statement: statement, Params: params})
	for _, r := range c.responses {
		if strings.Contains(statement, r.match) {
			return r
		}
	}
	return response{}
}

// Rows builds a result set from positional row values.
func Rows(columns []string, rows ...[]any) *query.ResultSet {
	rs := &query.ResultSet{Columns: columns, Rows: make([]query.Row, 0, len(rows))}
	for _, values := range rows {
		row := make(query.Row, len(columns))
		for i, col := range columns {
			if i < len(values) {
				row[col] = values[i]
			}
		}
		rs.Rows = append(rs.Rows, row)
	}
	return rs
}

// Verify interface compliance.
var _ query.Connection = (*Conn)(nil)
