package models

// Column represents a scalar (non-relationship) column of a table
type Column struct {
	Name       string
	Type       string
	Nullable   bool
	HasDefault bool
}

// Relation represents a named parent relationship: a foreign-key-bearing
// reference from the owning table to a target table. Columns are the
// foreign-key columns on the owning table; TargetColumns are the referenced
// columns on the target table, in the same order.
type Relation struct {
	Name          string
	Target        string
	Columns       []string
	TargetColumns []string
	Nullable      bool
}

// ChildRelation is the reverse view of a parent relationship, seen from the
// referenced table. ParentRelation names the Relation on the child table
// (Target) that points back to the owning table.
type ChildRelation struct {
	Name           string
	Target         string
	ParentRelation string
}

// Table represents a relational entity with its scalar columns and its named
// parent and child relationships, all in declaration order.
type Table struct {
	Name       string
	PrimaryKey []string
	Columns    []Column
	Parents    []Relation
	Children   []ChildRelation
}

// Column returns the scalar column with the given name.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Parent returns the parent relationship with the given name.
func (t *Table) Parent(name string) (Relation, bool) {
	for _, r := range t.Parents {
		if r.Name == name {
			return r, true
		}
	}
	return Relation{}, false
}

// Child returns the child relationship with the given name.
func (t *Table) Child(name string) (ChildRelation, bool) {
	for _, c := range t.Children {
		if c.Name == name {
			return c, true
		}
	}
	return ChildRelation{}, false
}

// ForeignKeyColumns maps every foreign-key column of the table to the name of
// the parent relationship that owns it. Foreign-key scalars are never filled
// directly; their values are always derived from the resolved parent row.
func (t *Table) ForeignKeyColumns() map[string]string {
	owned := make(map[string]string)
	for _, r := range t.Parents {
		for _, c := range r.Columns {
			owned[c] = r.Name
		}
	}
	return owned
}

// IsForeignKey reports whether the named column is owned by a parent relationship.
func (t *Table) IsForeignKey(column string) bool {
	_, ok := t.ForeignKeyColumns()[column]
	return ok
}
