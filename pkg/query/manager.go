package query

import (
	"context"
	"fmt"

	"github.com/txn2/dma-readiness/pkg/catalog"
)

// Manager binds a catalog to a connection and runs its statements by name.
// It holds the connection exclusively but does not close it.
type Manager struct {
	catalog *catalog.Catalog
	conn    Connection
}

// NewManager creates a manager over cat and conn.
func NewManager(cat *catalog.Catalog, conn Connection) *Manager {
	return &Manager{catalog: cat, conn: conn}
}

// Catalog returns the bound catalog.
func (m *Manager) Catalog() *catalog.Catalog {
	return m.catalog
}

// Connection returns the bound connection.
func (m *Manager) Connection() Connection {
	return m.conn
}

// AvailableQueries returns the query names for a category in catalog order.
// An empty result means there is nothing to do; it is never an error.
func (m *Manager) AvailableQueries(category catalog.Category) []string {
	return m.catalog.Names(category)
}

// Execute runs a named statement that returns no rows.
func (m *Manager) Execute(ctx context.Context, name string) error {
	spec, err := m.lookup(name)
	if err != nil {
		return err
	}
	if err := m.conn.Execute(ctx, spec.SQL, nil); err != nil {
		return m.failure(spec, err)
	}
	return nil
}

// Select runs a named statement with params and returns its rows tagged with
// the query name.
func (m *Manager) Select(ctx context.Context, name string, params Params) (*ResultSet, error) {
	spec, err := m.lookup(name)
	if err != nil {
		return nil, err
	}
	rs, err := m.conn.Select(ctx, spec.SQL, params)
	if err != nil {
		return nil, m.failure(spec, err)
	}
	if rs == nil {
		rs = &ResultSet{}
	}
	rs.Query = name
	return rs, nil
}

func (m *Manager) lookup(name string) (catalog.Spec, error) {
	spec, ok := m.catalog.Lookup(name)
	if !ok {
		category, _ := catalog.CategoryOf(name)
		return catalog.Spec{}, &ExecutionError{
			Catalog:  m.catalog.Name(),
			Category: category,
			Query:    name,
			Err:      fmt.Errorf("%w: %s", ErrQueryNotFound, m.catalog.Name()),
		}
	}
	return spec, nil
}

func (m *Manager) failure(spec catalog.Spec, err error) error {
	return &ExecutionError{
		Catalog:  m.catalog.Name(),
		Category: spec.Category,
		Query:    spec.Name,
		Err:      err,
	}
}
