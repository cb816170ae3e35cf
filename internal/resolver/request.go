package resolver

import (
	"github.com/vitebski/seedgraph/internal/store"
)

// CountSpec is a cardinality specification: an exact count when Min == Max,
// otherwise a closed inclusive range. The concrete count for a range is drawn
// once per request node from the node's seed stream.
type CountSpec struct {
	Min int
	Max int
}

// Exactly requests exactly n rows.
func Exactly(n int) CountSpec {
	return CountSpec{Min: n, Max: n}
}

// Between requests a count drawn from the closed range [min, max].
func Between(min, max int) CountSpec {
	return CountSpec{Min: min, Max: max}
}

func (c CountSpec) zero() bool {
	return c.Min == 0 && c.Max == 0
}

// FieldContext is handed to computed field values so user callbacks can stay
// deterministic. ModelSeed is the row's seed path, Seed the field's.
type FieldContext struct {
	ModelSeed string
	Seed      string
}

// FieldValue is a tagged variant for per-field input: either a static value
// or a callback computed at resolution time. Both forms are evaluated
// uniformly when the row is resolved.
type FieldValue struct {
	static  interface{}
	compute func(FieldContext) interface{}
}

// Value wraps a static field value.
func Value(v interface{}) FieldValue {
	return FieldValue{static: v}
}

// Compute wraps a callback evaluated with the row's and field's seed paths.
func Compute(fn func(FieldContext) interface{}) FieldValue {
	return FieldValue{compute: fn}
}

func (f FieldValue) eval(ctx FieldContext) interface{} {
	if f.compute != nil {
		return f.compute(ctx)
	}
	return f.static
}

// View is a lazily materialized read-only snapshot of rows produced during an
// in-flight execution, grouped by table.
type View struct {
	load  func() map[string][]store.Row
	cache map[string][]store.Row
}

func newView(load func() map[string][]store.Row) *View {
	return &View{load: load}
}

// Rows returns the produced rows for a table, materializing on first use.
func (v *View) Rows(table string) []store.Row {
	if v.cache == nil {
		v.cache = v.load()
	}
	return v.cache[table]
}

// ConnectContext is passed to connect callbacks. Store holds everything
// accumulated so far (including pre-seeded rows), Graph the rows produced
// anywhere in the in-flight request tree, and Branch only those produced
// along the current recursive path. Index is the row index being resolved and
// Seed the relationship's seed path.
type ConnectContext struct {
	Index  int
	Seed   string
	Store  *store.Store
	Graph  *View
	Branch *View
}

// ConnectFunc resolves a parent relationship from user code. The returned map
// either identifies an existing row of the target table (by its referenced
// columns) or supplies scalar overrides for a freshly created parent row.
type ConnectFunc func(ConnectContext) map[string]interface{}

// ParentSpec is the per-row instruction for one parent relationship: static
// already-resolved foreign key data, a connect callback, or overrides for a
// parent row to create.
type ParentSpec struct {
	values  map[string]interface{}
	connect ConnectFunc
	create  *RowSpec
}

// ParentValues marks the relationship as already resolved with the given
// foreign key data. Keys may name either the owning table's foreign key
// columns or the target table's referenced columns.
func ParentValues(values map[string]interface{}) ParentSpec {
	return ParentSpec{values: values}
}

// ParentConnect resolves the relationship through a callback.
func ParentConnect(fn ConnectFunc) ParentSpec {
	return ParentSpec{connect: fn}
}

// ParentCreate forces creation of a new parent row with the given overrides.
func ParentCreate(spec RowSpec) ParentSpec {
	return ParentSpec{create: &spec}
}

// RowSpec carries the optional user overrides for one requested row: scalar
// values, parent-connection instructions, and nested child requests.
type RowSpec struct {
	Fields   map[string]FieldValue
	Parents  map[string]ParentSpec
	Children map[string]*Request
}

// Request is one resolution unit: a target table, a cardinality, and optional
// per-row overrides. Nested child requests form a tree mirroring the user's
// input. When Rows is non-empty the count is len(Rows).
type Request struct {
	Table string
	Count CountSpec
	Rows  []RowSpec
}

// NewRequest builds a request for count rows with no overrides.
func NewRequest(table string, count CountSpec) *Request {
	return &Request{Table: table, Count: count}
}

// NewRowsRequest builds a request from explicit per-row overrides.
func NewRowsRequest(table string, rows ...RowSpec) *Request {
	return &Request{Table: table, Count: Exactly(len(rows)), Rows: rows}
}
