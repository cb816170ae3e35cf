package store

import (
	"errors"
	"reflect"
	"testing"
)

func TestAppendAndRows(t *testing.T) {
	s := New()
	s.Append("users", Row{"id": "a"})
	s.Append("users", Row{"id": "b"})

	if got := s.Len("users"); got != 2 {
		t.Fatalf("Len = %d, want 2", got)
	}
	rows := s.Rows("users")
	if rows[0]["id"] != "a" || rows[1]["id"] != "b" {
		t.Errorf("rows out of order: %v", rows)
	}
}

func TestRowAtOutOfRange(t *testing.T) {
	s := New()
	s.Append("users", Row{"id": "a"})

	_, err := s.RowAt("users", 3)
	var notFound *ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.RowAt("missing", 0); err == nil {
		t.Error("expected error for unknown table")
	}
}

func TestTablesFirstSeenOrder(t *testing.T) {
	s := New()
	s.Append("b", Row{})
	s.Append("a", Row{})
	s.Append("b", Row{})

	if got, want := s.Tables(), []string{"b", "a"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Tables = %v, want %v", got, want)
	}
}

func TestNewSeededMarksExternal(t *testing.T) {
	s := NewSeeded(map[string][]Row{
		"users": {{"id": "a"}},
	}, true)

	if !s.IsExternal("users", 0) {
		t.Error("pre-seeded row should be external")
	}

	idx := s.Append("users", Row{"id": "b"})
	if s.IsExternal("users", idx) {
		t.Error("appended row should not be external")
	}
}

func TestNewSeededSortedTables(t *testing.T) {
	s := NewSeeded(map[string][]Row{
		"zebra": {{"id": 1}},
		"apple": {{"id": 2}},
	}, false)

	if got, want := s.Tables(), []string{"apple", "zebra"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Tables = %v, want %v", got, want)
	}
}

func TestMergePreservesOrder(t *testing.T) {
	a := New()
	a.Append("users", Row{"id": "a1"})
	a.Append("posts", Row{"id": "p1"})

	b := New()
	b.Append("users", Row{"id": "b1"})
	b.Append("users", Row{"id": "b2"})

	merged := a.Merge(b)

	users := merged.Rows("users")
	if len(users) != 3 {
		t.Fatalf("merged users = %d, want 3", len(users))
	}
	if users[0]["id"] != "a1" || users[1]["id"] != "b1" || users[2]["id"] != "b2" {
		t.Errorf("merge broke relative order: %v", users)
	}
	if merged.Len("posts") != 1 {
		t.Errorf("posts lost in merge")
	}

	// Inputs stay untouched.
	if a.Len("users") != 1 || b.Len("users") != 2 {
		t.Error("merge mutated an input store")
	}
}

func TestMergeKeepsExternalFlags(t *testing.T) {
	a := NewSeeded(map[string][]Row{"users": {{"id": "ext"}}}, true)
	b := New()
	b.Append("users", Row{"id": "gen"})

	merged := a.Merge(b)
	if !merged.IsExternal("users", 0) {
		t.Error("external flag lost for pre-seeded row")
	}
	if merged.IsExternal("users", 1) {
		t.Error("generated row wrongly marked external")
	}
}

func TestRowClone(t *testing.T) {
	r := Row{"id": "a"}
	c := r.Clone()
	c["id"] = "b"
	if r["id"] != "a" {
		t.Error("Clone shares backing map")
	}
}
