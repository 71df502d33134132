package library

import (
	"time"

	"problembox/internal/tree"
)

// TreeNode is one row of the tree_nodes table.
type TreeNode struct {
	ID        string        `json:"id" db:"id"`
	UserID    string        `json:"-" db:"user_id"`
	Title     string        `json:"title" db:"title"`
	Type      tree.NodeType `json:"type" db:"type"`
	ParentID  *string       `json:"parentId" db:"parent_id"` // NULL = forest root
	ProblemID *string       `json:"problemId,omitempty" db:"problem_id"`
	SortOrder int64         `json:"sortOrder" db:"sort_order"`
	CreatedAt time.Time     `json:"createdAt" db:"created_at"`
}

// Row converts the stored node to the shape tree.Build consumes.
func (n *TreeNode) Row() tree.Row {
	return tree.Row{
		ID:        n.ID,
		ParentID:  n.ParentID,
		Title:     n.Title,
		Type:      n.Type,
		ProblemID: n.ProblemID,
		SortOrder: n.SortOrder,
		CreatedAt: n.CreatedAt,
	}
}

// Node converts a single stored node to a detached tree node.
func (n *TreeNode) Node() *tree.Node {
	return n.Row().Node()
}

// IsTrash reports whether the row is the user's recycle bin.
func (n *TreeNode) IsTrash() bool {
	return n.Type == tree.NodeTypeFolder && n.ParentID == nil && n.Title == tree.TrashTitle
}
