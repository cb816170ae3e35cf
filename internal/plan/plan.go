package plan

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/vitebski/seedgraph/internal/resolver"
	"github.com/vitebski/seedgraph/internal/seed"
	"github.com/vitebski/seedgraph/internal/store"
	"github.com/vitebski/seedgraph/pkg/models"
)

// Engine builds plans against one schema. Engines are cheap and immutable;
// all generation state lives in the store owned by each execution.
type Engine struct {
	schema      *models.Schema
	rootSeed    string
	autoConnect bool
	models      map[string]resolver.ModelOverride
	logger      *logrus.Logger
}

// Option configures an engine.
type Option func(*Engine)

// WithSeed sets the ambient root seed for every plan built by the engine.
func WithSeed(s string) Option {
	return func(e *Engine) { e.rootSeed = s }
}

// WithAutoConnect enables reusing existing store rows for unresolved parent
// relationships instead of creating new ones.
func WithAutoConnect(on bool) Option {
	return func(e *Engine) { e.autoConnect = on }
}

// WithModels sets the per-table override configuration.
func WithModels(m map[string]resolver.ModelOverride) Option {
	return func(e *Engine) { e.models = m }
}

// WithLogger sets the logger passed into resolvers.
func WithLogger(l *logrus.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates a plan engine for the given schema.
func NewEngine(schema *models.Schema, opts ...Option) *Engine {
	e := &Engine{schema: schema, rootSeed: seed.DefaultRoot, logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RequestSpec describes what to generate for one table: explicit per-row
// overrides, or a count the resolver expands into default rows.
type RequestSpec struct {
	rows  []resolver.RowSpec
	count resolver.CountSpec
}

// Rows builds a spec from an explicit ordered list of per-row overrides.
func Rows(rows ...resolver.RowSpec) RequestSpec {
	return RequestSpec{rows: rows, count: resolver.Exactly(len(rows))}
}

// Count requests exactly n rows with no overrides.
func Count(n int) RequestSpec {
	return RequestSpec{count: resolver.Exactly(n)}
}

// CountBetween requests a row count drawn once from the closed range.
func CountBetween(min, max int) RequestSpec {
	return RequestSpec{count: resolver.Between(min, max)}
}

// Repeat expands to n row specs, optionally parameterized per index.
type Repeat func(n int, fn ...func(i int) resolver.RowSpec) []resolver.RowSpec

// Times builds a spec through a callback receiving the repeat helper, for
// callers that compute their row list.
func Times(build func(x Repeat) []resolver.RowSpec) RequestSpec {
	x := Repeat(func(n int, fn ...func(i int) resolver.RowSpec) []resolver.RowSpec {
		rows := make([]resolver.RowSpec, n)
		if len(fn) > 0 && fn[0] != nil {
			for i := range rows {
				rows[i] = fn[0](i)
			}
		}
		return rows
	})
	return Rows(build(x)...)
}

type planKind int

const (
	leafPlan planKind = iota
	pipePlan
	mergePlan
)

// ComposeOptions optionally override the root seed and per-table models for
// every plan a composition runs. A set seed takes precedence over the
// ambient engine seed.
type ComposeOptions struct {
	Seed   string
	Models map[string]resolver.ModelOverride
}

// Plan is a composable, lazily evaluated unit: building one performs no
// generation. Only Generate runs the resolver.
type Plan struct {
	engine   *Engine
	kind     planKind
	req      *resolver.Request
	children []*Plan
	opts     *ComposeOptions
	buildErr error
}

// Generate builds a plan producing rows for one table. Specification errors
// (invalid cardinality, unknown override keys) are detected here and surface
// on execution before any generation work starts.
func (e *Engine) Generate(table string, spec RequestSpec) *Plan {
	req := &resolver.Request{Table: table, Count: spec.count, Rows: spec.rows}
	p := &Plan{engine: e, kind: leafPlan, req: req}
	if err := e.newResolver(e.rootSeed, nil).Validate(req); err != nil {
		p.buildErr = err
	}
	return p
}

func (e *Engine) newResolver(rootSeed string, extra map[string]resolver.ModelOverride) *resolver.Resolver {
	opts := resolver.Options{AutoConnect: e.autoConnect, Models: mergeModels(e.models, extra)}
	return resolver.New(e.schema, seed.New(rootSeed), opts, e.logger)
}

// Pipe composes plans sequentially: each plan's resulting store pre-seeds the
// next, so later plans may auto-connect to rows produced by earlier ones.
func Pipe(plans []*Plan, opts *ComposeOptions) *Plan {
	return compose(pipePlan, plans, opts)
}

// Merge composes plans independently: each runs against its own empty store
// and the results are concatenated in input order. No cross-plan
// auto-connection can occur.
func Merge(plans []*Plan, opts *ComposeOptions) *Plan {
	return compose(mergePlan, plans, opts)
}

func compose(kind planKind, plans []*Plan, opts *ComposeOptions) *Plan {
	p := &Plan{kind: kind, children: plans, opts: opts}
	if len(plans) > 0 {
		p.engine = plans[0].engine
	}
	return p
}

// Err returns the first specification error recorded while building this
// plan or any plan it composes.
func (p *Plan) Err() error {
	if p.buildErr != nil {
		return p.buildErr
	}
	for _, c := range p.children {
		if err := c.Err(); err != nil {
			return err
		}
	}
	return nil
}

// Generate executes the plan against the initial store (empty when nil) and
// returns the populated store. There is no cancellation mid-resolution; the
// context is honoured between composition stages.
func (p *Plan) Generate(ctx context.Context, initial *store.Store) (*store.Store, error) {
	if err := p.Err(); err != nil {
		return nil, err
	}
	if initial == nil {
		initial = store.New()
	}
	return p.run(ctx, initial, "", nil)
}

func (p *Plan) run(ctx context.Context, st *store.Store, seedOverride string, extraModels map[string]resolver.ModelOverride) (*store.Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.opts != nil {
		if p.opts.Seed != "" {
			seedOverride = p.opts.Seed
		}
		if p.opts.Models != nil {
			extraModels = mergeModels(extraModels, p.opts.Models)
		}
	}

	switch p.kind {
	case leafPlan:
		rootSeed := p.engine.rootSeed
		if seedOverride != "" {
			rootSeed = seedOverride
		}
		res := p.engine.newResolver(rootSeed, extraModels)
		if _, err := res.Resolve(p.req, st); err != nil {
			return nil, err
		}
		return st, nil

	case pipePlan:
		cur := st
		for _, child := range p.children {
			out, err := child.run(ctx, cur, seedOverride, extraModels)
			if err != nil {
				return nil, err
			}
			cur = out
		}
		return cur, nil

	default: // mergePlan
		results := make([]*store.Store, len(p.children))
		errs := make([]error, len(p.children))
		var wg sync.WaitGroup
		for i, child := range p.children {
			wg.Add(1)
			go func(i int, child *Plan) {
				defer wg.Done()
				results[i], errs[i] = child.run(ctx, store.New(), seedOverride, extraModels)
			}(i, child)
		}
		wg.Wait()
		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}
		out := st
		for _, r := range results {
			out = out.Merge(r)
		}
		return out, nil
	}
}

func mergeModels(base, override map[string]resolver.ModelOverride) map[string]resolver.ModelOverride {
	if len(override) == 0 {
		return base
	}
	out := make(map[string]resolver.ModelOverride, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}
