// Package readiness sequences a migration readiness check: it opens the
// source and staging connections, collects from the source, stages the
// results, builds the canonical model, runs the assessment and prints the
// engine's summary. Connections are released on every path.
package readiness

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/txn2/dma-readiness/pkg/catalog"
	"github.com/txn2/dma-readiness/pkg/collector"
	"github.com/txn2/dma-readiness/pkg/engine"
	"github.com/txn2/dma-readiness/pkg/query"
	"github.com/txn2/dma-readiness/pkg/source"
	"github.com/txn2/dma-readiness/pkg/staging"
	"github.com/txn2/dma-readiness/pkg/summary"
)

// Staging is the local store collected results are loaded into and the
// canonical catalog runs against.
type Staging interface {
	query.Connection
	staging.Registrar
}

// Collected maps each category to the result sets of its scripts.
type Collected map[catalog.Category]collector.Results

// RendererLookup resolves the summary renderer for an engine.
type RendererLookup func(engine.Type) (summary.Renderer, bool)

// Options configures a workflow.
type Options struct {
	// Source describes the database being assessed. Used by Open only.
	Source source.Config

	// StagingPath is the DuckDB file to stage into. Empty stages in memory.
	// Used by Open only.
	StagingPath string

	// Sink receives the rendered summary. Defaults to stdout.
	Sink io.Writer

	// Hooks receive per-category and per-script progress.
	Hooks collector.Hooks

	// OnState is called when the workflow enters a state.
	OnState func(State)

	// BeforeSummary is called once the summary has been read from staging,
	// just before it is written to Sink. It is not called for a failed read.
	BeforeSummary func(*summary.Summary)

	// Renderers resolves summary renderers. Defaults to summary.Lookup.
	Renderers RendererLookup
}

// Option adjusts Options for New.
type Option func(*Options)

// WithSink sets the summary sink.
func WithSink(w io.Writer) Option {
	return func(o *Options) { o.Sink = w }
}

// WithHooks sets the progress hooks.
func WithHooks(h collector.Hooks) Option {
	return func(o *Options) { o.Hooks = h }
}

// WithStateObserver sets the state observer.
func WithStateObserver(fn func(State)) Option {
	return func(o *Options) { o.OnState = fn }
}

// WithBeforeSummary sets the callback run ahead of writing the summary.
func WithBeforeSummary(fn func(*summary.Summary)) Option {
	return func(o *Options) { o.BeforeSummary = fn }
}

// WithRenderers replaces the summary renderer table.
func WithRenderers(fn RendererLookup) Option {
	return func(o *Options) { o.Renderers = fn }
}

// Workflow is one readiness check over one source and one staging store.
// It is not safe for concurrent use.
type Workflow struct {
	engine     engine.Type
	source     query.Connection
	staging    Staging
	collection *collector.CollectionManager
	canonical  *collector.CanonicalManager
	opts       Options
	lc         *lifecycle
	state      State
	closed     bool
}

// Open loads the engine and canonical catalogs, then connects to the source
// and opens the staging store. A missing catalog fails with
// *catalog.LoadError before any connection is attempted. If a connection
// fails, whatever was already opened is closed and a
// *ResourceAcquisitionError is returned.
func Open(ctx context.Context, opts Options) (*Workflow, error) {
	e := opts.Source.Engine
	cats, err := loadCatalogs(e)
	if err != nil {
		return nil, err
	}

	var (
		src   *query.SQLConnection
		stage *staging.Store
	)

	lc := newLifecycle()
	lc.add("source",
		func(ctx context.Context) error {
			c, err := source.Open(ctx, opts.Source)
			src = c
			return err
		},
		func(context.Context) error { return src.Close() },
	)
	lc.add("staging",
		func(ctx context.Context) error {
			s, err := staging.Open(ctx, opts.StagingPath)
			stage = s
			return err
		},
		func(context.Context) error { return stage.Close() },
	)

	if err := lc.start(ctx); err != nil {
		var rae *ResourceAcquisitionError
		if errors.As(err, &rae) {
			rae.Engine = e
		}
		return nil, err
	}
	slog.Info("connections open", "engine", e, "source", opts.Source.Addr(), "staging", stagingName(opts.StagingPath))

	w, err := newWorkflow(e, src, stage, lc, cats, opts)
	if err != nil {
		_ = lc.stop(ctx)
		return nil, err
	}
	return w, nil
}

// New builds a workflow over connections the caller has already opened. The
// workflow takes ownership of both and closes them in Close, or right away
// when the catalogs for e cannot be loaded.
func New(e engine.Type, src query.Connection, stage Staging, opts ...Option) (*Workflow, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}

	lc := newLifecycle()
	lc.add("source", nil, func(context.Context) error { return src.Close() })
	lc.add("staging", nil, func(context.Context) error { return stage.Close() })
	if err := lc.start(context.Background()); err != nil {
		return nil, err
	}

	cats, err := loadCatalogs(e)
	if err != nil {
		_ = lc.stop(context.Background())
		return nil, err
	}
	w, err := newWorkflow(e, src, stage, lc, cats, o)
	if err != nil {
		_ = lc.stop(context.Background())
		return nil, err
	}
	return w, nil
}

// catalogs are the two catalogs a workflow runs.
type catalogs struct {
	collection *catalog.Catalog
	canonical  *catalog.Catalog
}

func loadCatalogs(e engine.Type) (catalogs, error) {
	collection, err := catalog.ForEngine(e)
	if err != nil {
		return catalogs{}, err
	}
	canonical, err := catalog.Canonical()
	if err != nil {
		return catalogs{}, err
	}
	return catalogs{collection: collection, canonical: canonical}, nil
}

func newWorkflow(e engine.Type, src query.Connection, stage Staging, lc *lifecycle, cats catalogs, o Options) (*Workflow, error) {
	if o.Sink == nil {
		o.Sink = os.Stdout
	}
	if o.Renderers == nil {
		o.Renderers = summary.Lookup
	}

	collection, err := collector.NewCollectionManager(e, src,
		collector.WithCatalog(cats.collection), collector.WithHooks(o.Hooks))
	if err != nil {
		return nil, err
	}
	canonical, err := collector.NewCanonicalManager(stage,
		collector.WithCatalog(cats.canonical), collector.WithHooks(o.Hooks))
	if err != nil {
		return nil, err
	}

	w := &Workflow{
		engine:     e,
		source:     src,
		staging:    stage,
		collection: collection,
		canonical:  canonical,
		opts:       o,
		lc:         lc,
	}
	w.enter(StateOpen)
	return w, nil
}

// Engine returns the source engine.
func (w *Workflow) Engine() engine.Type {
	return w.engine
}

// State returns the state the workflow last entered.
func (w *Workflow) State() State {
	return w.state
}

func (w *Workflow) enter(s State) {
	w.state = s
	slog.Debug("workflow state", "engine", w.engine, "state", s.String())
	if w.opts.OnState != nil {
		w.opts.OnState(s)
	}
}

// Process collects from the source, stages the results, runs the canonical
// transformation and then the assessment. Extended collection results are
// staged after collection results, so they win on a name collision.
func (w *Workflow) Process(ctx context.Context, run query.RunParams) (Collected, error) {
	if w.closed {
		return nil, ErrClosed
	}

	w.enter(StateCollect)
	collected, err := w.collection.ExecuteCollectionQueries(ctx, run)
	if err != nil {
		return nil, &StageError{State: StateCollect, Err: err}
	}
	extended, err := w.collection.ExecuteExtendedCollectionQueries(ctx, run)
	if err != nil {
		return nil, &StageError{State: StateCollect, Err: err}
	}
	slog.Info("collection complete", "engine", w.engine,
		"collection", len(collected), "extended_collection", len(extended))

	w.enter(StateStage)
	for _, results := range []collector.Results{collected, extended} {
		names, err := staging.Import(ctx, w.staging, results)
		if err != nil {
			return nil, &StageError{State: StateStage, Err: err}
		}
		slog.Debug("staged relations", "engine", w.engine, "relations", names)
	}

	w.enter(StateTransform)
	if err := w.canonical.ExecuteTransformationQueries(ctx); err != nil {
		return nil, &StageError{State: StateTransform, Err: err}
	}

	w.enter(StateAssess)
	assessed, err := w.canonical.ExecuteAssessmentQueries(ctx, run)
	if err != nil {
		return nil, &StageError{State: StateAssess, Err: err}
	}
	slog.Info("assessment complete", "engine", w.engine, "assessment", len(assessed))

	return Collected{
		catalog.Collection:         collected,
		catalog.ExtendedCollection: extended,
		catalog.Assessment:         assessed,
	}, nil
}

// PrintSummary renders the engine's summary to the sink. The renderer is
// resolved here, not earlier; an engine without one fails with
// *UnsupportedEngineError and nothing is written.
func (w *Workflow) PrintSummary(ctx context.Context) error {
	if w.closed {
		return ErrClosed
	}

	renderer, ok := w.opts.Renderers(w.engine)
	if !ok {
		return &StageError{State: StateReport, Err: &UnsupportedEngineError{Engine: w.engine}}
	}

	w.enter(StateReport)
	if err := summary.Print(ctx, renderer, w.staging, w.opts.Sink, w.opts.BeforeSummary); err != nil {
		return &StageError{State: StateReport, Err: err}
	}
	return nil
}

// Close releases both connections. It is safe to call more than once.
func (w *Workflow) Close(ctx context.Context) error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.enter(StateClose)
	if err := w.lc.stop(ctx); err != nil {
		return &StageError{State: StateClose, Err: err}
	}
	return nil
}

// Run performs a complete readiness check. Connections are closed whether
// or not the run succeeds, and no summary is written for a failed run.
func Run(ctx context.Context, opts Options, run query.RunParams) (_ Collected, err error) {
	w, err := Open(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := w.Close(context.WithoutCancel(ctx)); cerr != nil {
			if err == nil {
				err = cerr
				return
			}
			slog.Warn("closing workflow after failure", "engine", w.engine, "error", cerr)
		}
	}()

	collected, err := w.Process(ctx, run)
	if err != nil {
		return nil, err
	}
	if err := w.PrintSummary(ctx); err != nil {
		return nil, err
	}
	return collected, nil
}

func stagingName(path string) string {
	if path == "" {
		return "memory"
	}
	return path
}
