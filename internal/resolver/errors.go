package resolver

import "fmt"

// SpecificationError reports an invalid request before any generation work
// starts: bad cardinality or an override naming a column or relationship the
// schema does not have. Path locates the offending request node.
type SpecificationError struct {
	Path   string
	Detail string
}

func (e *SpecificationError) Error() string {
	return fmt.Sprintf("invalid specification at %s: %s", e.Path, e.Detail)
}

// ResolutionError aborts an in-progress execution: a required relationship
// that cannot be resolved, a direct self-cycle, or runaway recursion. The
// store may hold partial results; callers re-run from a fresh store.
type ResolutionError struct {
	Table    string
	Index    int
	Relation string
	Detail   string
}

func (e *ResolutionError) Error() string {
	if e.Relation == "" {
		return fmt.Sprintf("resolution failed: table %s row %d: %s", e.Table, e.Index, e.Detail)
	}
	return fmt.Sprintf("resolution failed: table %s row %d relationship %s: %s", e.Table, e.Index, e.Relation, e.Detail)
}
