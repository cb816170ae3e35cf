package store

import (
	"fmt"
	"sort"
)

// Row is one generated or externally supplied record: column name to value.
// Rows are append-only; once their relationship fields are finalized they are
// never mutated.
type Row map[string]interface{}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ErrNotFound is returned by RowAt for an out-of-range index.
type ErrNotFound struct {
	Table string
	Index int
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("store: no row %d in table %s", e.Index, e.Table)
}

type tableRows struct {
	rows     []Row
	external []bool
}

// Store is the accumulating per-table row collection. One plan execution owns
// its store exclusively, so no locking happens here. A store can also be
// passed read-only as pre-seeded input to prime connection targets.
type Store struct {
	names  []string
	tables map[string]*tableRows
}

// New creates an empty store.
func New() *Store {
	return &Store{tables: make(map[string]*tableRows)}
}

// NewSeeded creates a store primed with initial rows. When external is true
// the rows are marked as pre-existing and the persistence emitter will not
// re-emit inserts for them. Tables are registered in sorted name order so
// priming is reproducible.
func NewSeeded(initial map[string][]Row, external bool) *Store {
	s := New()
	names := make([]string, 0, len(initial))
	for name := range initial {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, row := range initial[name] {
			s.append(name, row, external)
		}
	}
	return s
}

func (s *Store) table(name string) *tableRows {
	t, ok := s.tables[name]
	if !ok {
		t = &tableRows{}
		s.tables[name] = t
		s.names = append(s.names, name)
	}
	return t
}

func (s *Store) append(table string, row Row, external bool) int {
	t := s.table(table)
	t.rows = append(t.rows, row)
	t.external = append(t.external, external)
	return len(t.rows) - 1
}

// Append adds a generated row to the table's sequence and returns its index.
func (s *Store) Append(table string, row Row) int {
	return s.append(table, row, false)
}

// Rows returns the ordered row sequence for a table.
func (s *Store) Rows(table string) []Row {
	if t, ok := s.tables[table]; ok {
		return t.rows
	}
	return nil
}

// RowAt returns the row at the given index.
func (s *Store) RowAt(table string, index int) (Row, error) {
	t, ok := s.tables[table]
	if !ok || index < 0 || index >= len(t.rows) {
		return nil, &ErrNotFound{Table: table, Index: index}
	}
	return t.rows[index], nil
}

// Len returns the number of rows held for a table.
func (s *Store) Len(table string) int {
	if t, ok := s.tables[table]; ok {
		return len(t.rows)
	}
	return 0
}

// IsExternal reports whether the row at index was pre-seeded as external.
func (s *Store) IsExternal(table string, index int) bool {
	t, ok := s.tables[table]
	if !ok || index < 0 || index >= len(t.external) {
		return false
	}
	return t.external[index]
}

// Tables returns table names in first-seen order.
func (s *Store) Tables() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Merge returns a new store concatenating this store's per-table sequences
// with the other store's, preserving each input's relative order. Tables are
// iterated in first-seen order, this store's first. Nothing is deduplicated;
// callers merging overlapping data accept the duplication.
func (s *Store) Merge(other *Store) *Store {
	out := New()
	for _, pick := range []*Store{s, other} {
		if pick == nil {
			continue
		}
		for _, name := range pick.names {
			t := pick.tables[name]
			for i, row := range t.rows {
				out.append(name, row, t.external[i])
			}
		}
	}
	return out
}
