package resolver

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/vitebski/seedgraph/internal/seed"
	"github.com/vitebski/seedgraph/internal/store"
	"github.com/vitebski/seedgraph/pkg/models"
)

// ModelOverride is the per-table user configuration applied during
// resolution.
type ModelOverride struct {
	// Connect supplies field values whenever auto-connect needs a value for
	// this table. A nil return falls back to the default behaviour.
	Connect func(*store.Store) map[string]interface{}
	// Data holds partial scalar defaults applied before per-call overrides.
	Data map[string]interface{}
}

// Options is the resolution configuration for one execution.
type Options struct {
	AutoConnect bool
	Models      map[string]ModelOverride
}

// Resolver expands request nodes into concrete rows. It is a pure
// recursive-descent algorithm over one store; an execution owns its store
// exclusively end-to-end, so there is no locking.
type Resolver struct {
	schema *models.Schema
	seeds  *seed.Generator
	opts   Options
	logger *logrus.Logger
}

// New creates a resolver for a schema, seeded by the given generator.
func New(schema *models.Schema, seeds *seed.Generator, opts Options, logger *logrus.Logger) *Resolver {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Resolver{schema: schema, seeds: seeds, opts: opts, logger: logger}
}

// maxDepth bounds recursive parent creation so cyclic required relationship
// graphs fail with a resolution error instead of recursing forever.
const maxDepth = 64

// Resolve validates the request tree, then expands it into rows appended to
// st. It returns the newly created rows for the request's own table. On error
// the store may hold partial results; callers re-run from a fresh store.
func (r *Resolver) Resolve(req *Request, st *store.Store) ([]store.Row, error) {
	if err := r.Validate(req); err != nil {
		return nil, err
	}
	e := &execution{r: r, st: st, produced: make(map[string][]store.Row)}
	return e.resolveNode(req, nil, nil, nil)
}

type execution struct {
	r        *Resolver
	st       *store.Store
	produced map[string][]store.Row
}

// branchFrame links the rows created along the current recursive path.
type branchFrame struct {
	table  string
	row    store.Row
	parent *branchFrame
}

func (b *branchFrame) materialize() map[string][]store.Row {
	var frames []*branchFrame
	for f := b; f != nil; f = f.parent {
		frames = append(frames, f)
	}
	out := make(map[string][]store.Row)
	for i := len(frames) - 1; i >= 0; i-- {
		out[frames[i].table] = append(out[frames[i].table], frames[i].row.Clone())
	}
	return out
}

// graphView clones the produced rows so a callback cannot mutate rows already
// appended to the store.
func (e *execution) graphView() *View {
	return newView(func() map[string][]store.Row {
		out := make(map[string][]store.Row, len(e.produced))
		for t, rows := range e.produced {
			copies := make([]store.Row, len(rows))
			for i, r := range rows {
				copies[i] = r.Clone()
			}
			out[t] = copies
		}
		return out
	})
}

func branchViewOf(b *branchFrame) *View {
	return newView(func() map[string][]store.Row {
		if b == nil {
			return map[string][]store.Row{}
		}
		return b.materialize()
	})
}

// resolveNode expands one request node. The path prefix carries the seed path
// elements accumulated so far; forced parent specs pin relationships that
// point back at a row currently being built.
func (e *execution) resolveNode(req *Request, path []string, forced map[string]ParentSpec, branch *branchFrame) ([]store.Row, error) {
	tbl, err := e.r.schema.Table(req.Table)
	if err != nil {
		return nil, err
	}
	if len(path) >= maxDepth {
		return nil, &ResolutionError{Table: tbl.Name, Detail: "relationship recursion exceeds depth limit; required relationships form a cycle"}
	}

	nodePath := appendPath(path, tbl.Name)

	count := len(req.Rows)
	if count == 0 {
		count = e.r.seeds.Derive(appendPath(nodePath, "count")...).CountIn(req.Count.Min, req.Count.Max)
	}

	e.r.logger.Debugf("resolving %s: %d row(s)", tbl.Name, count)

	// Seed indices continue from the rows the store already holds for the
	// table, so repeated requests for one table never replay paths.
	offset := e.st.Len(tbl.Name)

	rows := make([]store.Row, 0, count)
	for i := 0; i < count; i++ {
		var spec RowSpec
		if i < len(req.Rows) {
			spec = req.Rows[i]
		}
		row, err := e.resolveRow(tbl, spec, i, offset+i, nodePath, forced, branch)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// resolveRow assembles one row: scalars first, then parents in declaration
// order, then the append, then nested children. Parents are fully resolved
// before the row is appended so its foreign keys are known; children run
// after, pinned to the row just built.
func (e *execution) resolveRow(tbl *models.Table, spec RowSpec, index, seedIndex int, nodePath []string, forced map[string]ParentSpec, branch *branchFrame) (store.Row, error) {
	rowPath := appendPath(nodePath, strconv.Itoa(seedIndex))
	modelSeed := e.r.seeds.Derive(rowPath...).Path()
	owned := tbl.ForeignKeyColumns()
	model := e.r.opts.Models[tbl.Name]

	row := store.Row{}

	for _, col := range tbl.Columns {
		if _, isFK := owned[col.Name]; isFK {
			continue
		}
		fieldStream := e.r.seeds.Derive(appendPath(rowPath, col.Name)...)
		if fv, ok := spec.Fields[col.Name]; ok {
			row[col.Name] = fv.eval(FieldContext{ModelSeed: modelSeed, Seed: fieldStream.Path()})
			continue
		}
		if v, ok := model.Data[col.Name]; ok {
			row[col.Name] = v
			continue
		}
		row[col.Name] = fieldStream.Scalar(col)
	}

	for _, rel := range tbl.Parents {
		ps, explicit := forced[rel.Name]
		if !explicit {
			ps, explicit = spec.Parents[rel.Name]
		}
		if err := e.resolveParent(tbl, rel, ps, explicit, row, index, rowPath, branch); err != nil {
			return nil, err
		}
	}

	e.st.Append(tbl.Name, row)
	e.produced[tbl.Name] = append(e.produced[tbl.Name], row)
	frame := &branchFrame{table: tbl.Name, row: row, parent: branch}

	for _, childRel := range tbl.Children {
		childReq, ok := spec.Children[childRel.Name]
		if !ok {
			continue
		}
		childTbl, err := e.r.schema.Table(childRel.Target)
		if err != nil {
			return nil, err
		}
		backRel, ok := childTbl.Parent(childRel.ParentRelation)
		if !ok {
			return nil, &models.SchemaError{Table: childTbl.Name, Detail: fmt.Sprintf("missing parent relationship %q", childRel.ParentRelation)}
		}

		// The child always points at the row just built.
		values := make(map[string]interface{}, len(backRel.Columns))
		for k, c := range backRel.Columns {
			values[c] = row[backRel.TargetColumns[k]]
		}
		pinned := map[string]ParentSpec{childRel.ParentRelation: ParentValues(values)}

		normalized := *childReq
		normalized.Table = childRel.Target
		if _, err := e.resolveNode(&normalized, appendPath(rowPath, childRel.Name), pinned, frame); err != nil {
			return nil, err
		}
	}

	return row, nil
}

// resolveParent fills the foreign key columns owned by rel on row. Resolution
// order: explicit user instruction, auto-connect, recursive creation for
// required relationships, null for optional ones.
func (e *execution) resolveParent(tbl *models.Table, rel models.Relation, ps ParentSpec, explicit bool, row store.Row, index int, rowPath []string, branch *branchFrame) error {
	if explicit {
		switch {
		case ps.values != nil:
			for k, c := range rel.Columns {
				v, ok := ps.values[c]
				if !ok {
					v, ok = ps.values[rel.TargetColumns[k]]
				}
				if !ok {
					return &ResolutionError{Table: tbl.Name, Index: index, Relation: rel.Name, Detail: fmt.Sprintf("static value missing column %q", c)}
				}
				row[c] = v
			}
			return nil

		case ps.connect != nil:
			ctx := ConnectContext{
				Index:  index,
				Seed:   e.r.seeds.Derive(appendPath(rowPath, rel.Name)...).Path(),
				Store:  e.st,
				Graph:  e.graphView(),
				Branch: branchViewOf(branch),
			}
			got := ps.connect(ctx)
			if got == nil {
				return &ResolutionError{Table: tbl.Name, Index: index, Relation: rel.Name, Detail: "connect callback returned no value"}
			}
			return e.adoptConnectResult(tbl, rel, got, row, index, rowPath, branch)

		case ps.create != nil:
			return e.createParent(rel, *ps.create, row, index, rowPath, branch)
		}
	}

	if e.r.opts.AutoConnect {
		if model, ok := e.r.opts.Models[rel.Target]; ok && model.Connect != nil {
			if got := model.Connect(e.st); got != nil {
				return e.adoptConnectResult(tbl, rel, got, row, index, rowPath, branch)
			}
		}
		if n := e.st.Len(rel.Target); n > 0 {
			pick := e.r.seeds.Derive(appendPath(rowPath, rel.Name, "connect")...).Choose(n)
			target, err := e.st.RowAt(rel.Target, pick)
			if err != nil {
				return err
			}
			for k, c := range rel.Columns {
				row[c] = target[rel.TargetColumns[k]]
			}
			return nil
		}
	}

	if rel.Nullable {
		for _, c := range rel.Columns {
			row[c] = nil
		}
		return nil
	}

	if rel.Target == tbl.Name {
		// Creating a fresh parent of the same table would recurse forever; a
		// row must not end up referencing itself.
		return &ResolutionError{Table: tbl.Name, Index: index, Relation: rel.Name,
			Detail: "required self-referencing relationship needs an existing row or an explicit value"}
	}

	return e.createParent(rel, RowSpec{}, row, index, rowPath, branch)
}

// adoptConnectResult applies a connect callback's return value: if it
// identifies an existing row of the target table it connects to it; anything
// else is treated as inline override data for a newly created parent row.
func (e *execution) adoptConnectResult(tbl *models.Table, rel models.Relation, got map[string]interface{}, row store.Row, index int, rowPath []string, branch *branchFrame) error {
	if target := e.findExisting(rel, got); target != nil {
		for k, c := range rel.Columns {
			row[c] = target[rel.TargetColumns[k]]
		}
		return nil
	}

	targetTbl, err := e.r.schema.Table(rel.Target)
	if err != nil {
		return err
	}
	spec := RowSpec{Fields: make(map[string]FieldValue, len(got))}
	fkOwned := targetTbl.ForeignKeyColumns()
	for k, v := range got {
		if _, ok := targetTbl.Column(k); !ok {
			return &ResolutionError{Table: tbl.Name, Index: index, Relation: rel.Name, Detail: fmt.Sprintf("connect value names unknown column %q on %s", k, rel.Target)}
		}
		if owner, isFK := fkOwned[k]; isFK {
			return &ResolutionError{Table: tbl.Name, Index: index, Relation: rel.Name, Detail: fmt.Sprintf("connect value sets column %q owned by relationship %q on %s", k, owner, rel.Target)}
		}
		spec.Fields[k] = Value(v)
	}
	return e.createParent(rel, spec, row, index, rowPath, branch)
}

// findExisting looks up a store row of rel's target table matching all of the
// relationship's referenced columns in got. A result missing any referenced
// column identifies nothing.
func (e *execution) findExisting(rel models.Relation, got map[string]interface{}) store.Row {
	keys := make([]interface{}, len(rel.TargetColumns))
	for k, c := range rel.TargetColumns {
		v, ok := got[c]
		if !ok {
			return nil
		}
		keys[k] = v
	}
	for _, candidate := range e.st.Rows(rel.Target) {
		match := true
		for k, c := range rel.TargetColumns {
			if !reflect.DeepEqual(candidate[c], keys[k]) {
				match = false
				break
			}
		}
		if match {
			return candidate
		}
	}
	return nil
}

// createParent resolves one fresh row of the relationship's target table
// depth-first and wires its referenced columns into row.
func (e *execution) createParent(rel models.Relation, spec RowSpec, row store.Row, index int, rowPath []string, branch *branchFrame) error {
	req := &Request{Table: rel.Target, Count: Exactly(1), Rows: []RowSpec{spec}}
	created, err := e.resolveNode(req, appendPath(rowPath, rel.Name), nil, branch)
	if err != nil {
		return err
	}
	parent := created[0]
	for k, c := range rel.Columns {
		row[c] = parent[rel.TargetColumns[k]]
	}
	return nil
}

// appendPath copies before appending so sibling recursions never alias the
// same backing array.
func appendPath(path []string, parts ...string) []string {
	out := make([]string, 0, len(path)+len(parts))
	out = append(out, path...)
	return append(out, parts...)
}
