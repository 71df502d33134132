package tree

import (
	"cmp"
	"slices"
)

// Build nests flat rows into a forest in linear time: one pass creates the
// nodes, a second pass attaches each node to its parent. Rows whose parent is
// unknown (or is a file) become roots with a nil ParentID, so nothing is
// dropped. Rows that only
// reach each other through a parent cycle are cut loose and promoted to roots.
// Siblings are ordered by SortOrder, then CreatedAt, then input order.
func Build(rows []Row) Forest {
	nodes := make(map[string]*Node, len(rows))
	for _, r := range rows {
		if _, dup := nodes[r.ID]; dup {
			continue
		}
		nodes[r.ID] = r.Node()
	}

	roots := make(Forest, 0)
	placed := make(map[string]struct{}, len(nodes))
	for _, r := range rows {
		if _, done := placed[r.ID]; done {
			continue
		}
		placed[r.ID] = struct{}{}
		n := nodes[r.ID]

		if n.ParentID != nil {
			if parent, ok := nodes[*n.ParentID]; ok && parent != n && parent.IsFolder() {
				parent.Children = append(parent.Children, n)
				continue
			}
		}
		n.ParentID = nil
		roots = append(roots, n)
	}

	roots = breakCycles(rows, nodes, roots)

	sortForest(roots)
	return roots
}

// breakCycles promotes nodes that are unreachable from any root. Such nodes
// can only exist when parent pointers form a loop.
func breakCycles(rows []Row, nodes map[string]*Node, roots Forest) Forest {
	reached := make(map[string]struct{}, len(nodes))
	var mark func(n *Node)
	mark = func(n *Node) {
		if _, ok := reached[n.ID]; ok {
			return
		}
		reached[n.ID] = struct{}{}
		for _, c := range n.Children {
			mark(c)
		}
	}
	for _, r := range roots {
		mark(r)
	}
	if len(reached) == len(nodes) {
		return roots
	}

	for _, r := range rows {
		if _, ok := reached[r.ID]; ok {
			continue
		}
		n := nodes[r.ID]
		if parent, ok := nodes[*n.ParentID]; ok {
			parent.Children = slices.DeleteFunc(parent.Children, func(c *Node) bool { return c == n })
		}
		n.ParentID = nil
		roots = append(roots, n)
		mark(n)
	}
	return roots
}

func sortForest(forest Forest) {
	slices.SortStableFunc(forest, compareSiblings)
	for _, n := range forest {
		if len(n.Children) > 0 {
			sortForest(n.Children)
		}
	}
}

func compareSiblings(a, b *Node) int {
	if c := cmp.Compare(a.SortOrder, b.SortOrder); c != 0 {
		return c
	}
	return a.CreatedAt.Compare(b.CreatedAt)
}

// Flatten is the inverse of Build: it lists every node as a row, parents
// before children, siblings in forest order.
func Flatten(forest Forest) []Row {
	var rows []Row
	var walk func(f Forest)
	walk = func(f Forest) {
		for _, n := range f {
			rows = append(rows, Row{
				ID:        n.ID,
				ParentID:  copyID(n.ParentID),
				Title:     n.Title,
				Type:      n.Type,
				ProblemID: copyID(n.ProblemID),
				SortOrder: n.SortOrder,
				CreatedAt: n.CreatedAt,
			})
			walk(n.Children)
		}
	}
	walk(forest)
	return rows
}
