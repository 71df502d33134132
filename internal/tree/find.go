package tree

// Find returns the node with id, searching depth-first, or nil.
func Find(forest Forest, id string) *Node {
	for _, n := range forest {
		if n.ID == id {
			return n
		}
		if found := Find(n.Children, id); found != nil {
			return found
		}
	}
	return nil
}

// FindByProblemID returns the first file node pointing at problemID, or nil.
func FindByProblemID(forest Forest, problemID string) *Node {
	for _, n := range forest {
		if n.Type == NodeTypeFile && n.ProblemID != nil && *n.ProblemID == problemID {
			return n
		}
		if found := FindByProblemID(n.Children, problemID); found != nil {
			return found
		}
	}
	return nil
}

// FindTrash returns the recycle bin folder at the forest root, or nil.
func FindTrash(forest Forest) *Node {
	for _, n := range forest {
		if n.IsTrash() {
			return n
		}
	}
	return nil
}

// Siblings returns the child list of parentID, or the roots when parentID is
// nil. The second result is false if parentID does not name a folder.
func Siblings(forest Forest, parentID *string) (Forest, bool) {
	if parentID == nil {
		return forest, true
	}
	parent := Find(forest, *parentID)
	if !parent.IsFolder() {
		return nil, false
	}
	return parent.Children, true
}

// CollectProblemIDs gathers every problem id in the subtree rooted at node,
// in depth-first order without duplicates.
func CollectProblemIDs(node *Node) []string {
	if node == nil {
		return nil
	}
	var ids []string
	seen := make(map[string]struct{})
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.Type == NodeTypeFile && n.ProblemID != nil {
			if _, dup := seen[*n.ProblemID]; !dup {
				seen[*n.ProblemID] = struct{}{}
				ids = append(ids, *n.ProblemID)
			}
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(node)
	return ids
}

// CollectNodeIDs returns the ids of node and all of its descendants.
func CollectNodeIDs(node *Node) []string {
	if node == nil {
		return nil
	}
	ids := []string{node.ID}
	for _, c := range node.Children {
		ids = append(ids, CollectNodeIDs(c)...)
	}
	return ids
}

// IsDescendant reports whether id lies strictly below ancestorID.
func IsDescendant(forest Forest, ancestorID, id string) bool {
	ancestor := Find(forest, ancestorID)
	if ancestor == nil {
		return false
	}
	return Find(ancestor.Children, id) != nil
}
