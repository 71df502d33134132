package tree

import (
	"errors"
	"reflect"
	"slices"
	"testing"
)

func TestDetach(t *testing.T) {
	forest := sample()
	before := Flatten(forest)

	pruned, removed := Detach(forest, "linear")
	if removed == nil || removed.ID != "linear" {
		t.Fatalf("removed = %v, want linear", removed)
	}
	if got := ids(removed.Children); !slices.Equal(got, []string{"q2", "q3"}) {
		t.Errorf("detached subtree children = %v", got)
	}
	if Find(pruned, "linear") != nil || Find(pruned, "q2") != nil {
		t.Error("detached nodes still reachable")
	}
	if !reflect.DeepEqual(Flatten(forest), before) {
		t.Error("Detach modified its input")
	}

	same, none := Detach(forest, "missing")
	if none != nil {
		t.Errorf("removed = %v, want nil", none)
	}
	if !reflect.DeepEqual(same, forest) {
		t.Error("Detach of a missing id changed the forest")
	}
}

func TestInsert(t *testing.T) {
	tests := []struct {
		name     string
		parentID *string
		wantIn   string
		dropped  bool
	}{
		{name: "into folder as last child", parentID: strPtr("calculus"), wantIn: "calculus"},
		{name: "nested folder", parentID: strPtr("linear"), wantIn: "linear"},
		{name: "at root", parentID: nil},
		{name: "unknown parent drops", parentID: strPtr("missing"), dropped: true},
		{name: "file parent drops", parentID: strPtr("q5"), dropped: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forest := sample()
			node := file("new", "New", "p9")
			got := Insert(forest, node, tt.parentID)

			if tt.dropped {
				if Find(got, "new") != nil {
					t.Error("node inserted under an invalid parent")
				}
				return
			}

			siblings, _ := Siblings(got, tt.parentID)
			if len(siblings) == 0 || siblings[len(siblings)-1].ID != "new" {
				t.Fatalf("new node is not the last sibling: %v", ids(siblings))
			}
			placed := siblings[len(siblings)-1]
			if !sameParent(placed.ParentID, tt.parentID) {
				t.Errorf("ParentID = %v, want %v", placed.ParentID, tt.parentID)
			}
			for _, s := range siblings[:len(siblings)-1] {
				if s.SortOrder >= placed.SortOrder {
					t.Errorf("sibling %s sort order %d not before %d", s.ID, s.SortOrder, placed.SortOrder)
				}
			}
			if Find(forest, "new") != nil {
				t.Error("Insert modified its input")
			}
		})
	}
}

func TestDetachInsertInverse(t *testing.T) {
	for _, id := range []string{"q1", "linear", "q5", "calculus", "q3"} {
		t.Run(id, func(t *testing.T) {
			forest := sample()
			original := Find(forest, id)
			pruned, removed := Detach(forest, id)
			restored := Insert(pruned, removed, original.ParentID)

			got := Find(restored, id)
			if got == nil {
				t.Fatal("node lost")
			}
			if got.Title != original.Title || got.Type != original.Type ||
				!sameParent(got.ParentID, original.ParentID) ||
				!reflect.DeepEqual(got.ProblemID, original.ProblemID) ||
				!reflect.DeepEqual(got.Children, original.Children) {
				t.Errorf("restored node %+v differs from %+v", got, original)
			}
		})
	}
}

func TestCanMove(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		parentID *string
		want     error
	}{
		{name: "file into folder", id: "q5", parentID: strPtr("algebra")},
		{name: "folder to root", id: "linear", parentID: nil},
		{name: "folder into sibling folder", id: "calculus", parentID: strPtr("linear")},
		{name: "self move", id: "algebra", parentID: strPtr("algebra"), want: ErrSelfMove},
		{name: "into direct child", id: "algebra", parentID: strPtr("linear"), want: ErrCycle},
		{name: "into file", id: "q1", parentID: strPtr("q5"), want: ErrNotFolder},
		{name: "unknown node", id: "missing", parentID: nil, want: ErrNodeNotFound},
		{name: "unknown target", id: "q1", parentID: strPtr("missing"), want: ErrTargetNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanMove(sample(), tt.id, tt.parentID)
			if !errors.Is(err, tt.want) {
				t.Errorf("CanMove() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMove(t *testing.T) {
	t.Run("file to root", func(t *testing.T) {
		forest := roots(folder("F1", "Algebra", file("Q1", "Q1", "P1")))
		got := Move(forest, "Q1", nil)

		if want := []string{"F1", "Q1"}; !slices.Equal(ids(got), want) {
			t.Fatalf("roots = %v, want %v", ids(got), want)
		}
		if len(got[0].Children) != 0 || got[0].Children == nil {
			t.Errorf("Algebra children = %v, want empty", got[0].Children)
		}
		if got[1].ParentID != nil || *got[1].ProblemID != "P1" {
			t.Errorf("moved file = %+v", got[1])
		}
	})

	t.Run("cycle is a no-op", func(t *testing.T) {
		forest := sample()
		got := Move(forest, "algebra", strPtr("linear"))
		if !reflect.DeepEqual(got, forest) {
			t.Error("rejected move changed the forest")
		}
	})

	t.Run("folder carries its subtree", func(t *testing.T) {
		got := Move(sample(), "linear", strPtr("calculus"))
		calc := Find(got, "calculus")
		if want := []string{"q4", "linear"}; !slices.Equal(ids(calc.Children), want) {
			t.Errorf("calculus children = %v, want %v", ids(calc.Children), want)
		}
		if !IsDescendant(got, "calculus", "q3") {
			t.Error("q3 should follow its folder")
		}
		if IsDescendant(got, "algebra", "q2") {
			t.Error("q2 still under algebra")
		}
	})
}

func TestMoveKeepsForestAcyclic(t *testing.T) {
	forest := sample()
	all := []string{"algebra", "linear", "calculus", "trash", "q1", "q2", "q3", "q4", "q5"}
	targets := append([]*string{nil}, strPtr("algebra"), strPtr("linear"), strPtr("calculus"), strPtr("trash"))

	for round := 0; round < 3; round++ {
		for _, id := range all {
			for _, target := range targets {
				if CanMove(forest, id, target) != nil {
					continue
				}
				forest = Move(forest, id, target)
				if ancestorCycle(forest) {
					t.Fatalf("cycle after moving %s to %v", id, target)
				}
				if got := len(Flatten(forest)); got != len(all) {
					t.Fatalf("node count = %d after moving %s", got, id)
				}
			}
		}
	}
}

func TestReorderSiblings(t *testing.T) {
	tests := []struct {
		name     string
		parentID *string
		ordered  []string
		want     []string
	}{
		{
			name:    "full permutation at root",
			ordered: []string{"trash", "q5", "calculus", "algebra"},
			want:    []string{"trash", "q5", "calculus", "algebra"},
		},
		{
			name:    "partial keeps the rest after in prior order",
			ordered: []string{"q5", "algebra"},
			want:    []string{"q5", "algebra", "calculus", "trash"},
		},
		{
			name:     "inside folder",
			parentID: strPtr("linear"),
			ordered:  []string{"q3"},
			want:     []string{"q3", "q2"},
		},
		{
			name:    "unknown and duplicate ids ignored",
			ordered: []string{"nope", "calculus", "calculus", "q2"},
			want:    []string{"calculus", "algebra", "q5", "trash"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReorderSiblings(sample(), tt.parentID, tt.ordered)
			siblings, ok := Siblings(got, tt.parentID)
			if !ok {
				t.Fatal("parent vanished")
			}
			if !slices.Equal(ids(siblings), tt.want) {
				t.Errorf("order = %v, want %v", ids(siblings), tt.want)
			}
			for i, n := range siblings {
				if n.SortOrder != int64(i) {
					t.Errorf("%s SortOrder = %d, want %d", n.ID, n.SortOrder, i)
				}
			}
			if !reflect.DeepEqual(Build(Flatten(got)), got) {
				t.Error("reordered forest does not survive a round trip")
			}
		})
	}
}

func TestReorderSiblingsPartiality(t *testing.T) {
	forest := sample()
	before := ids(forest)
	mentioned := []string{"trash", "calculus"}

	got := ids(ReorderSiblings(forest, nil, mentioned))

	var restBefore, restAfter, mentionedAfter []string
	for _, id := range before {
		if !slices.Contains(mentioned, id) {
			restBefore = append(restBefore, id)
		}
	}
	for _, id := range got {
		if slices.Contains(mentioned, id) {
			mentionedAfter = append(mentionedAfter, id)
		} else {
			restAfter = append(restAfter, id)
		}
	}
	if !slices.Equal(restBefore, restAfter) {
		t.Errorf("unmentioned order changed: %v -> %v", restBefore, restAfter)
	}
	if !slices.Equal(mentionedAfter, mentioned) {
		t.Errorf("mentioned order = %v, want %v", mentionedAfter, mentioned)
	}
}

func TestPruneByProblemIDs(t *testing.T) {
	forest := sample()
	got := PruneByProblemIDs(forest, map[string]struct{}{"p2": {}, "p5": {}, "p404": {}})

	if Find(got, "q2") != nil || Find(got, "q5") != nil {
		t.Error("pruned files still present")
	}
	for _, id := range []string{"algebra", "linear", "q1", "q3", "q4", "trash"} {
		if Find(got, id) == nil {
			t.Errorf("%s removed", id)
		}
	}
	if Find(forest, "q2") == nil {
		t.Error("PruneByProblemIDs modified its input")
	}
}

func TestRemove(t *testing.T) {
	forest := sample()
	got := Remove(forest, map[string]struct{}{"linear": {}, "q5": {}})

	for _, id := range []string{"linear", "q2", "q3", "q5"} {
		if Find(got, id) != nil {
			t.Errorf("%s still present", id)
		}
	}
	if children := ids(Find(got, "algebra").Children); !slices.Equal(children, []string{"q1"}) {
		t.Errorf("algebra children = %v", children)
	}
	if Find(forest, "linear") == nil {
		t.Error("Remove modified its input")
	}
}

func TestCollectProblemIDs(t *testing.T) {
	forest := sample()
	tests := []struct {
		id   string
		want []string
	}{
		{id: "algebra", want: []string{"p1", "p2", "p3"}},
		{id: "linear", want: []string{"p2", "p3"}},
		{id: "q5", want: []string{"p5"}},
		{id: "trash", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := CollectProblemIDs(Find(forest, tt.id)); !slices.Equal(got, tt.want) {
				t.Errorf("CollectProblemIDs(%s) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}

	t.Run("no duplicates", func(t *testing.T) {
		f := roots(folder("f", "F", file("a", "A", "p1"), file("b", "B", "p1")))
		if got := CollectProblemIDs(f[0]); !slices.Equal(got, []string{"p1"}) {
			t.Errorf("got %v", got)
		}
	})
}
