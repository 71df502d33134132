package tree

import (
	"time"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func folder(id, title string, children ...*Node) *Node {
	n := &Node{ID: id, Title: title, Type: NodeTypeFolder, Children: Forest{}}
	for i, c := range children {
		c.ParentID = strPtr(id)
		c.SortOrder = int64(i)
		n.Children = append(n.Children, c)
	}
	return n
}

func file(id, title, problemID string) *Node {
	return &Node{ID: id, Title: title, Type: NodeTypeFile, ProblemID: strPtr(problemID)}
}

func roots(nodes ...*Node) Forest {
	f := Forest{}
	for i, n := range nodes {
		n.ParentID = nil
		n.SortOrder = int64(i)
		f = append(f, n)
	}
	return f
}

// sample builds:
//
//	algebra/
//	  q1 (p1)
//	  linear/
//	    q2 (p2)
//	    q3 (p3)
//	calculus/
//	  q4 (p4)
//	q5 (p5)
//	回收站/
func sample() Forest {
	return roots(
		folder("algebra", "Algebra",
			file("q1", "Q1", "p1"),
			folder("linear", "Linear",
				file("q2", "Q2", "p2"),
				file("q3", "Q3", "p3"),
			),
		),
		folder("calculus", "Calculus", file("q4", "Q4", "p4")),
		file("q5", "Q5", "p5"),
		folder("trash", TrashTitle),
	)
}

func ids(f Forest) []string {
	out := make([]string, 0, len(f))
	for _, n := range f {
		out = append(out, n.ID)
	}
	return out
}

// ancestorCycle reports whether any node can reach itself through ParentID.
func ancestorCycle(f Forest) bool {
	parent := make(map[string]string)
	for _, r := range Flatten(f) {
		if r.ParentID != nil {
			parent[r.ID] = *r.ParentID
		}
	}
	for id := range parent {
		seen := map[string]bool{id: true}
		cur := id
		for {
			p, ok := parent[cur]
			if !ok {
				break
			}
			if seen[p] {
				return true
			}
			seen[p] = true
			cur = p
		}
	}
	return false
}
