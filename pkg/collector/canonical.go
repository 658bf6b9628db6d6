package collector

import (
	"context"

	"github.com/txn2/dma-readiness/pkg/catalog"
	"github.com/txn2/dma-readiness/pkg/query"
)

// CanonicalManager runs the engine-independent transformation and assessment
// catalog against the staging store. It does not enforce that
// transformation runs before assessment; the workflow does.
type CanonicalManager struct {
	runner runner
}

// NewCanonicalManager binds the canonical catalog to conn.
func NewCanonicalManager(conn query.Connection, opts ...Option) (*CanonicalManager, error) {
	o := buildOptions(opts)
	cat := o.catalog
	if cat == nil {
		var err error
		if cat, err = catalog.Canonical(); err != nil {
			return nil, err
		}
	}
	return &CanonicalManager{
		runner: runner{mgr: query.NewManager(cat, conn), hooks: o.hooks},
	}, nil
}

// Manager returns the underlying query manager.
func (m *CanonicalManager) Manager() *query.Manager {
	return m.runner.mgr
}

// ExecuteTransformationQueries runs every transformation script in catalog
// order. Transformations produce no rows.
func (m *CanonicalManager) ExecuteTransformationQueries(ctx context.Context) error {
	return m.runner.executeAll(ctx, catalog.Transformation)
}

// ExecuteAssessmentQueries runs every assessment script in catalog order.
func (m *CanonicalManager) ExecuteAssessmentQueries(ctx context.Context, run query.RunParams) (Results, error) {
	return m.runner.selectAll(ctx, catalog.Assessment, run)
}
