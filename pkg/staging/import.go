package staging

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/txn2/dma-readiness/pkg/query"
)

// Registrar registers a result set as a named relation, replacing any
// relation of the same name.
type Registrar interface {
	Register(ctx context.Context, name string, rs *query.ResultSet) error
}

// Import registers every non-empty result set under its query name, in name
// order, and returns the names registered. Importing the same results again
// leaves the store unchanged.
func Import(ctx context.Context, r Registrar, results map[string]*query.ResultSet) ([]string, error) {
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	registered := make([]string, 0, len(names))
	for _, name := range names {
		rs := results[name]
		if rs.Empty() {
			slog.Debug("skipping empty result set", "relation", name)
			continue
		}
		if err := r.Register(ctx, name, rs); err != nil {
			return registered, fmt.Errorf("staging %s: %w", name, err)
		}
		slog.Debug("staged result set", "relation", name, "rows", rs.Len())
		registered = append(registered, name)
	}
	return registered, nil
}

// Verify interface compliance.
var _ Registrar = (*Store)(nil)
