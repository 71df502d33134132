package tree

import (
	"slices"
	"testing"
)

func TestFind(t *testing.T) {
	forest := sample()
	for _, id := range []string{"algebra", "linear", "q3", "trash"} {
		if n := Find(forest, id); n == nil || n.ID != id {
			t.Errorf("Find(%s) = %v", id, n)
		}
	}
	if n := Find(forest, "missing"); n != nil {
		t.Errorf("Find(missing) = %v, want nil", n)
	}

	if n := FindByProblemID(forest, "p3"); n == nil || n.ID != "q3" {
		t.Errorf("FindByProblemID(p3) = %v, want q3", n)
	}
	if n := FindByProblemID(forest, "p9"); n != nil {
		t.Errorf("FindByProblemID(p9) = %v, want nil", n)
	}
}

func TestFindTrash(t *testing.T) {
	if n := FindTrash(sample()); n == nil || n.ID != "trash" {
		t.Fatalf("FindTrash = %v, want trash", n)
	}

	// Only a root folder counts.
	nested := roots(folder("a", "A", folder("t", TrashTitle)))
	if n := FindTrash(nested); n != nil {
		t.Errorf("FindTrash(nested) = %v, want nil", n)
	}
	asFile := roots(file("t", TrashTitle, "p1"))
	if n := FindTrash(asFile); n != nil {
		t.Errorf("FindTrash(file) = %v, want nil", n)
	}
}

func TestSiblings(t *testing.T) {
	forest := sample()
	tests := []struct {
		name   string
		parent *string
		want   []string
		ok     bool
	}{
		{"roots", nil, []string{"algebra", "calculus", "q5", "trash"}, true},
		{"folder", strPtr("linear"), []string{"q2", "q3"}, true},
		{"file parent", strPtr("q5"), nil, false},
		{"missing parent", strPtr("missing"), nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Siblings(forest, tt.parent)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && !slices.Equal(ids(got), tt.want) {
				t.Errorf("Siblings = %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestIsDescendant(t *testing.T) {
	forest := sample()
	tests := []struct {
		ancestor, id string
		want         bool
	}{
		{"algebra", "q3", true},
		{"algebra", "linear", true},
		{"linear", "q1", false},
		{"calculus", "q3", false},
		{"algebra", "algebra", false},
	}
	for _, tt := range tests {
		if got := IsDescendant(forest, tt.ancestor, tt.id); got != tt.want {
			t.Errorf("IsDescendant(%s, %s) = %v, want %v", tt.ancestor, tt.id, got, tt.want)
		}
	}
}

func TestCollectNodeIDs(t *testing.T) {
	got := CollectNodeIDs(Find(sample(), "algebra"))
	want := []string{"algebra", "q1", "linear", "q2", "q3"}
	if !slices.Equal(got, want) {
		t.Errorf("CollectNodeIDs = %v, want %v", got, want)
	}
	if got := CollectNodeIDs(nil); len(got) != 0 {
		t.Errorf("CollectNodeIDs(nil) = %v", got)
	}
}
