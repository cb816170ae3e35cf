package resolver

import (
	"fmt"

	"github.com/vitebski/seedgraph/pkg/models"
)

// Validate checks the whole request tree against the schema before any
// generation work starts. Unknown override keys and invalid cardinalities are
// fatal and reported with the path of the offending node.
func (r *Resolver) Validate(req *Request) error {
	return r.validateNode(req, req.Table, req.Table)
}

func (r *Resolver) validateNode(req *Request, table, path string) error {
	if req.Table != "" && req.Table != table {
		return &SpecificationError{Path: path, Detail: fmt.Sprintf("request targets table %q, expected %q", req.Table, table)}
	}
	tbl, err := r.schema.Table(table)
	if err != nil {
		return &SpecificationError{Path: path, Detail: fmt.Sprintf("unknown table %q", table)}
	}

	if req.Count.Min < 0 || req.Count.Max < req.Count.Min {
		return &SpecificationError{Path: path, Detail: fmt.Sprintf("invalid cardinality [%d,%d]", req.Count.Min, req.Count.Max)}
	}
	if len(req.Rows) > 0 && !req.Count.zero() && req.Count != Exactly(len(req.Rows)) {
		return &SpecificationError{Path: path, Detail: fmt.Sprintf("count [%d,%d] conflicts with %d explicit rows", req.Count.Min, req.Count.Max, len(req.Rows))}
	}

	for i, spec := range req.Rows {
		if err := r.validateRowSpec(tbl, spec, fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) validateRowSpec(tbl *models.Table, spec RowSpec, path string) error {
	owned := tbl.ForeignKeyColumns()

	for col := range spec.Fields {
		if _, ok := tbl.Column(col); !ok {
			return &SpecificationError{Path: path, Detail: fmt.Sprintf("unknown column %q on table %s", col, tbl.Name)}
		}
		if rel, isFK := owned[col]; isFK {
			return &SpecificationError{Path: path, Detail: fmt.Sprintf("column %q is owned by relationship %q; set the relationship instead", col, rel)}
		}
	}

	for name, ps := range spec.Parents {
		rel, ok := tbl.Parent(name)
		if !ok {
			return &SpecificationError{Path: path, Detail: fmt.Sprintf("unknown parent relationship %q on table %s", name, tbl.Name)}
		}
		relPath := path + "." + name
		if ps.values != nil {
			for k := range ps.values {
				if !contains(rel.Columns, k) && !contains(rel.TargetColumns, k) {
					return &SpecificationError{Path: relPath, Detail: fmt.Sprintf("value key %q matches no column of relationship %q", k, name)}
				}
			}
		}
		if ps.create != nil {
			target, err := r.schema.Table(rel.Target)
			if err != nil {
				return &SpecificationError{Path: relPath, Detail: err.Error()}
			}
			if err := r.validateRowSpec(target, *ps.create, relPath); err != nil {
				return err
			}
		}
	}

	for name, child := range spec.Children {
		c, ok := tbl.Child(name)
		if !ok {
			return &SpecificationError{Path: path, Detail: fmt.Sprintf("unknown child relationship %q on table %s", name, tbl.Name)}
		}
		if child == nil {
			return &SpecificationError{Path: path + "." + name, Detail: "nil child request"}
		}
		if err := r.validateNode(child, c.Target, path+"."+name); err != nil {
			return err
		}
	}

	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
