package collector

import (
	"context"

	"github.com/txn2/dma-readiness/pkg/catalog"
	"github.com/txn2/dma-readiness/pkg/engine"
	"github.com/txn2/dma-readiness/pkg/query"
)

// CollectionManager runs an engine's collection catalog against the source
// database.
type CollectionManager struct {
	engine engine.Type
	runner runner
}

// NewCollectionManager binds the collection catalog for e to conn. The
// connection is borrowed; closing it stays with the caller.
func NewCollectionManager(e engine.Type, conn query.Connection, opts ...Option) (*CollectionManager, error) {
	o := buildOptions(opts)
	cat := o.catalog
	if cat == nil {
		var err error
		if cat, err = catalog.ForEngine(e); err != nil {
			return nil, err
		}
	}
	return &CollectionManager{
		engine: e,
		runner: runner{mgr: query.NewManager(cat, conn), hooks: o.hooks},
	}, nil
}

// Engine returns the engine the manager collects from.
func (m *CollectionManager) Engine() engine.Type {
	return m.engine
}

// Manager returns the underlying query manager.
func (m *CollectionManager) Manager() *query.Manager {
	return m.runner.mgr
}

// ExecuteCollectionQueries runs every collection script in catalog order.
// An engine without collection scripts yields an empty, non-nil Results.
func (m *CollectionManager) ExecuteCollectionQueries(ctx context.Context, run query.RunParams) (Results, error) {
	return m.runner.selectAll(ctx, catalog.Collection, run)
}

// ExecuteExtendedCollectionQueries runs every extended collection script in
// catalog order.
func (m *CollectionManager) ExecuteExtendedCollectionQueries(ctx context.Context, run query.RunParams) (Results, error) {
	return m.runner.selectAll(ctx, catalog.ExtendedCollection, run)
}
