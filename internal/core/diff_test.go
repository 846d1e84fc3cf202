package core

import (
	"reflect"
	"testing"
)

type diffItem struct {
	ID   string
	Name string
}

func itemKey(i diffItem) string { return i.ID }

func TestDiffPartitionsByKey(t *testing.T) {
	current := []diffItem{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	desired := []diffItem{
		{ID: "b", Name: "renamed"},
		{ID: "d", Name: "new"},
		{Name: "no id yet"},
	}

	part := Diff(current, desired, itemKey)

	if got := ids(part.Added); !reflect.DeepEqual(got, []string{"d", ""}) {
		t.Fatalf("added = %v", got)
	}
	if got := ids(part.Modified); !reflect.DeepEqual(got, []string{"b"}) {
		t.Fatalf("modified = %v", got)
	}
	if got := ids(part.Removed); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Fatalf("removed = %v", got)
	}
	if part.Modified[0].Name != "renamed" {
		t.Fatalf("modified element must carry the desired value, got %q", part.Modified[0].Name)
	}
}

func TestDiffRetainedElementsAreModified(t *testing.T) {
	// A retained key lands in Modified even when the value is unchanged:
	// callers re-apply retained elements rather than proving a change.
	current := []diffItem{{ID: "x", Name: "same"}}
	desired := []diffItem{{ID: "x", Name: "same"}}

	part := Diff(current, desired, itemKey)
	if len(part.Added) != 0 || len(part.Removed) != 0 {
		t.Fatalf("expected no additions or removals, got %+v", part)
	}
	if len(part.Modified) != 1 {
		t.Fatalf("expected the retained element in Modified, got %+v", part)
	}
}

func TestDiffEmptySides(t *testing.T) {
	if part := Diff(nil, nil, itemKey); len(part.Added)+len(part.Modified)+len(part.Removed) != 0 {
		t.Fatalf("empty inputs must yield empty partition, got %+v", part)
	}
	part := Diff(nil, []diffItem{{ID: "a"}}, itemKey)
	if len(part.Added) != 1 || len(part.Modified) != 0 || len(part.Removed) != 0 {
		t.Fatalf("all-desired must be Added, got %+v", part)
	}
	part = Diff([]diffItem{{ID: "a"}}, nil, itemKey)
	if len(part.Removed) != 1 || len(part.Added) != 0 || len(part.Modified) != 0 {
		t.Fatalf("all-current must be Removed, got %+v", part)
	}
}

func ids(items []diffItem) []string {
	out := make([]string, 0, len(items))
	for _, i := range items {
		out = append(out, i.ID)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
