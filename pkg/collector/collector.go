// Package collector runs whole query categories through a query.Manager.
// A category is all-or-nothing: the first failing script aborts it and its
// partial results are discarded.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/txn2/dma-readiness/pkg/catalog"
	"github.com/txn2/dma-readiness/pkg/query"
)

// Results maps script names to their result sets for one category.
type Results map[string]*query.ResultSet

// Names returns the script names in results. Order is unspecified.
func (r Results) Names() []string {
	out := make([]string, 0, len(r))
	for name := range r {
		out = append(out, name)
	}
	return out
}

// Hooks receive progress notifications. They are observability only and
// cannot change the outcome of a run. Any hook may be nil.
type Hooks struct {
	// BeforeCategory is called once per category with the scripts about to
	// run. An empty slice means the category has nothing for this engine.
	BeforeCategory func(category catalog.Category, names []string)

	// BeforeQuery is called before each script.
	BeforeQuery func(category catalog.Category, name string)

	// AfterQuery is called after each script completes. rs is nil for
	// statements that return no rows.
	AfterQuery func(category catalog.Category, name string, rs *query.ResultSet)
}

func (h Hooks) beforeCategory(c catalog.Category, names []string) {
	if h.BeforeCategory != nil {
		h.BeforeCategory(c, names)
	}
}

func (h Hooks) beforeQuery(c catalog.Category, name string) {
	if h.BeforeQuery != nil {
		h.BeforeQuery(c, name)
	}
}

func (h Hooks) afterQuery(c catalog.Category, name string, rs *query.ResultSet) {
	if h.AfterQuery != nil {
		h.AfterQuery(c, name, rs)
	}
}

// Option configures a manager.
type Option func(*options)

type options struct {
	hooks   Hooks
	catalog *catalog.Catalog
}

// WithHooks installs progress hooks.
func WithHooks(h Hooks) Option {
	return func(o *options) {
		o.hooks = h
	}
}

// WithCatalog replaces the embedded catalog a manager would otherwise load.
func WithCatalog(c *catalog.Catalog) Option {
	return func(o *options) {
		o.catalog = c
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// runner drives one category at a time through a manager.
type runner struct {
	mgr   *query.Manager
	hooks Hooks
}

func (r runner) selectAll(ctx context.Context, category catalog.Category, run query.RunParams) (Results, error) {
	names := r.mgr.AvailableQueries(category)
	r.hooks.beforeCategory(category, names)

	params := run.Params()
	results := make(Results, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("running %s queries: %w", category, err)
		}
		r.hooks.beforeQuery(category, name)
		start := time.Now()
		rs, err := r.mgr.Select(ctx, name, params)
		if err != nil {
			slog.Debug("query failed", "catalog", r.mgr.Catalog().Name(), "query", name, "error", err)
			return nil, err
		}
		slog.Debug("query complete",
			"catalog", r.mgr.Catalog().Name(),
			"query", name,
			"rows", rs.Len(),
			"duration", time.Since(start),
		)
		results[name] = rs
		r.hooks.afterQuery(category, name, rs)
	}
	return results, nil
}

func (r runner) executeAll(ctx context.Context, category catalog.Category) error {
	names := r.mgr.AvailableQueries(category)
	r.hooks.beforeCategory(category, names)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("running %s queries: %w", category, err)
		}
		r.hooks.beforeQuery(category, name)
		start := time.Now()
		if err := r.mgr.Execute(ctx, name); err != nil {
			slog.Debug("statement failed", "catalog", r.mgr.Catalog().Name(), "query", name, "error", err)
			return err
		}
		slog.Debug("statement complete",
			"catalog", r.mgr.Catalog().Name(),
			"query", name,
			"duration", time.Since(start),
		)
		r.hooks.afterQuery(category, name, nil)
	}
	return nil
}
