package tree

import (
	"slices"
)

// Detach removes the node with id from wherever it lives. It returns the
// pruned forest and the detached subtree, or the forest unchanged and nil
// when id is absent.
func Detach(forest Forest, id string) (Forest, *Node) {
	for i, n := range forest {
		if n.ID == id {
			out := make(Forest, 0, len(forest)-1)
			out = append(out, forest[:i]...)
			out = append(out, forest[i+1:]...)
			return out, n
		}
		if len(n.Children) == 0 {
			continue
		}
		children, removed := Detach(n.Children, id)
		if removed != nil {
			c := n.clone()
			c.Children = children
			out := slices.Clone(forest)
			out[i] = c
			return out, removed
		}
	}
	return forest, nil
}

// Insert appends node as the last child of the folder parentID, or as the
// last root when parentID is nil. The inserted copy gets its ParentID and
// SortOrder rewritten. If parentID does not resolve to a folder the node is
// dropped and the forest returned unchanged; callers pass validated ids.
func Insert(forest Forest, node *Node, parentID *string) Forest {
	if node == nil {
		return forest
	}
	placed := node.clone()
	placed.ParentID = copyID(parentID)

	if parentID == nil {
		placed.SortOrder = nextSortOrder(forest)
		out := make(Forest, 0, len(forest)+1)
		out = append(out, forest...)
		return append(out, placed)
	}

	if !Find(forest, *parentID).IsFolder() {
		return forest
	}
	out, _ := update(forest, *parentID, func(parent *Node) {
		placed.SortOrder = nextSortOrder(parent.Children)
		children := make(Forest, 0, len(parent.Children)+1)
		children = append(children, parent.Children...)
		parent.Children = append(children, placed)
	})
	return out
}

// CanMove checks that moving id under parentID keeps the forest a forest:
// both ends exist, the target is a folder, and the target is neither the
// node itself nor anywhere inside its subtree.
func CanMove(forest Forest, id string, parentID *string) error {
	node := Find(forest, id)
	if node == nil {
		return ErrNodeNotFound
	}
	if parentID == nil {
		return nil
	}
	if *parentID == id {
		return ErrSelfMove
	}
	target := Find(forest, *parentID)
	if target == nil {
		return ErrTargetNotFound
	}
	if !target.IsFolder() {
		return ErrNotFolder
	}
	if Find(node.Children, *parentID) != nil {
		return ErrCycle
	}
	return nil
}

// Move detaches id and inserts it under parentID. The precondition is
// re-checked with CanMove; on violation the forest is returned unchanged.
func Move(forest Forest, id string, parentID *string) Forest {
	if err := CanMove(forest, id, parentID); err != nil {
		return forest
	}
	pruned, node := Detach(forest, id)
	return Insert(pruned, node, parentID)
}

// ReorderSiblings rearranges the children of parentID (roots when nil) so
// that the ids in orderedIDs come first, in that order, followed by the
// siblings not mentioned, in their previous relative order. Ids that are not
// siblings are ignored. SortOrder is renumbered to match the new order.
func ReorderSiblings(forest Forest, parentID *string, orderedIDs []string) Forest {
	reorder := func(siblings Forest) Forest {
		byID := make(map[string]*Node, len(siblings))
		for _, n := range siblings {
			byID[n.ID] = n
		}
		seen := make(map[string]struct{}, len(orderedIDs))
		ordered := make(Forest, 0, len(siblings))
		for _, id := range orderedIDs {
			n, ok := byID[id]
			if !ok {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ordered = append(ordered, n)
		}
		for _, n := range siblings {
			if _, ok := seen[n.ID]; !ok {
				ordered = append(ordered, n)
			}
		}
		for i, n := range ordered {
			if n.SortOrder != int64(i) {
				c := n.clone()
				c.SortOrder = int64(i)
				ordered[i] = c
			}
		}
		return ordered
	}

	if parentID == nil {
		return reorder(forest)
	}
	if !Find(forest, *parentID).IsFolder() {
		return forest
	}
	out, _ := update(forest, *parentID, func(parent *Node) {
		parent.Children = reorder(parent.Children)
	})
	return out
}

// PruneByProblemIDs removes every file node whose problem id is in ids.
func PruneByProblemIDs(forest Forest, ids map[string]struct{}) Forest {
	if len(ids) == 0 {
		return forest
	}
	out := make(Forest, 0, len(forest))
	for _, n := range forest {
		if n.Type == NodeTypeFile && n.ProblemID != nil {
			if _, drop := ids[*n.ProblemID]; drop {
				continue
			}
		}
		if len(n.Children) > 0 {
			c := n.clone()
			c.Children = PruneByProblemIDs(n.Children, ids)
			n = c
		}
		out = append(out, n)
	}
	return out
}

// Remove drops every node whose id is in ids, together with its subtree.
func Remove(forest Forest, ids map[string]struct{}) Forest {
	if len(ids) == 0 {
		return forest
	}
	out := make(Forest, 0, len(forest))
	for _, n := range forest {
		if _, drop := ids[n.ID]; drop {
			continue
		}
		if len(n.Children) > 0 {
			c := n.clone()
			c.Children = Remove(n.Children, ids)
			n = c
		}
		out = append(out, n)
	}
	return out
}

// update copies the path from the root to the node with id and lets fn edit
// the copy of that node. It reports whether the node was found.
func update(forest Forest, id string, fn func(*Node)) (Forest, bool) {
	for i, n := range forest {
		if n.ID == id {
			c := n.clone()
			fn(c)
			out := slices.Clone(forest)
			out[i] = c
			return out, true
		}
		if len(n.Children) == 0 {
			continue
		}
		if children, ok := update(n.Children, id, fn); ok {
			c := n.clone()
			c.Children = children
			out := slices.Clone(forest)
			out[i] = c
			return out, true
		}
	}
	return forest, false
}

func nextSortOrder(siblings Forest) int64 {
	var next int64
	for _, n := range siblings {
		if n.SortOrder >= next {
			next = n.SortOrder + 1
		}
	}
	return next
}
