package models

import "fmt"

// SchemaError reports malformed or mutually inconsistent relationship metadata.
type SchemaError struct {
	Table  string
	Detail string
}

func (e *SchemaError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("schema error: %s", e.Detail)
	}
	return fmt.Sprintf("schema error: table %s: %s", e.Table, e.Detail)
}

// Schema is the read-only collection of tables the engine resolves against.
// It is validated once on construction and immutable afterwards.
type Schema struct {
	tables map[string]*Table
	names  []string
}

// NewSchema builds a Schema from the given tables and validates relationship
// metadata: relation names must be unique per table and per direction, every
// relation must reference existing tables and columns, and every child
// relationship must have exactly one matching parent relationship on the
// opposite table, and vice versa.
func NewSchema(tables ...*Table) (*Schema, error) {
	s := &Schema{tables: make(map[string]*Table)}

	for _, t := range tables {
		if _, exists := s.tables[t.Name]; exists {
			return nil, &SchemaError{Table: t.Name, Detail: "duplicate table name"}
		}
		s.tables[t.Name] = t
		s.names = append(s.names, t.Name)
	}

	for _, t := range tables {
		if err := s.validateTable(t); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *Schema) validateTable(t *Table) error {
	parentNames := make(map[string]bool)
	for _, r := range t.Parents {
		if parentNames[r.Name] {
			return &SchemaError{Table: t.Name, Detail: fmt.Sprintf("duplicate parent relationship name %q", r.Name)}
		}
		parentNames[r.Name] = true

		target, ok := s.tables[r.Target]
		if !ok {
			return &SchemaError{Table: t.Name, Detail: fmt.Sprintf("parent relationship %q references unknown table %q", r.Name, r.Target)}
		}
		if len(r.Columns) == 0 || len(r.Columns) != len(r.TargetColumns) {
			return &SchemaError{Table: t.Name, Detail: fmt.Sprintf("parent relationship %q has mismatched column lists", r.Name)}
		}
		for _, c := range r.Columns {
			if _, ok := t.Column(c); !ok {
				return &SchemaError{Table: t.Name, Detail: fmt.Sprintf("parent relationship %q names unknown column %q", r.Name, c)}
			}
		}
		for _, c := range r.TargetColumns {
			if _, ok := target.Column(c); !ok {
				return &SchemaError{Table: t.Name, Detail: fmt.Sprintf("parent relationship %q references unknown column %s.%s", r.Name, r.Target, c)}
			}
		}

		// The symmetric child edge must exist on the target table.
		matched := 0
		for _, c := range target.Children {
			if c.Target == t.Name && c.ParentRelation == r.Name {
				matched++
			}
		}
		if matched != 1 {
			return &SchemaError{
				Table:  t.Name,
				Detail: fmt.Sprintf("parent relationship %q has %d child relationships on %s, want exactly 1", r.Name, matched, r.Target),
			}
		}
	}

	childNames := make(map[string]bool)
	for _, c := range t.Children {
		if childNames[c.Name] {
			return &SchemaError{Table: t.Name, Detail: fmt.Sprintf("duplicate child relationship name %q", c.Name)}
		}
		childNames[c.Name] = true

		target, ok := s.tables[c.Target]
		if !ok {
			return &SchemaError{Table: t.Name, Detail: fmt.Sprintf("child relationship %q references unknown table %q", c.Name, c.Target)}
		}
		r, ok := target.Parent(c.ParentRelation)
		if !ok {
			return &SchemaError{Table: t.Name, Detail: fmt.Sprintf("child relationship %q names unknown parent relationship %s.%s", c.Name, c.Target, c.ParentRelation)}
		}
		if r.Target != t.Name {
			return &SchemaError{Table: t.Name, Detail: fmt.Sprintf("child relationship %q points at %s.%s which targets %q", c.Name, c.Target, c.ParentRelation, r.Target)}
		}
	}

	return nil
}

// Table looks up a table by name.
func (s *Schema) Table(name string) (*Table, error) {
	t, ok := s.tables[name]
	if !ok {
		return nil, &SchemaError{Table: name, Detail: "unknown table"}
	}
	return t, nil
}

// Has reports whether a table with the given name exists.
func (s *Schema) Has(name string) bool {
	_, ok := s.tables[name]
	return ok
}

// Tables returns all tables in declaration order.
func (s *Schema) Tables() []*Table {
	out := make([]*Table, 0, len(s.names))
	for _, name := range s.names {
		out = append(out, s.tables[name])
	}
	return out
}
