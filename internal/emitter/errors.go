package emitter

import (
	"fmt"
	"strings"
)

// OrderingError reports that the parent relationship graph among the store's
// tables (ignoring self-relations) is not a DAG, so no insertion order exists.
type OrderingError struct {
	Tables []string
}

func (e *OrderingError) Error() string {
	return fmt.Sprintf("cyclic parent relationships among tables: %s", strings.Join(e.Tables, ", "))
}

// PersistenceError wraps the external client's failure for one statement. The
// already-built store remains valid, so emission can be retried without
// redoing generation.
type PersistenceError struct {
	Index     int
	Statement string
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("statement %d failed: %v", e.Index, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
