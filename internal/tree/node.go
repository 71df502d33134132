// Package tree holds the per-user folder/file forest and the pure algorithms
// every tree mutation is built from. Functions never modify their inputs;
// they return a new forest that may share unchanged subtrees with the old one.
package tree

import (
	"errors"
	"time"
)

// TrashTitle is the title of the per-user recycle bin folder kept at the root.
const TrashTitle = "回收站"

// NodeType tags a node as a folder or a file.
type NodeType string

const (
	NodeTypeFolder NodeType = "folder"
	NodeTypeFile   NodeType = "file"
)

// Valid reports whether t is a known node type.
func (t NodeType) Valid() bool {
	return t == NodeTypeFolder || t == NodeTypeFile
}

// Structural errors. Operations that would produce them are rejected
// before any state changes.
var (
	ErrNodeNotFound   = errors.New("node not found")
	ErrTargetNotFound = errors.New("target folder not found")
	ErrSelfMove       = errors.New("cannot move a node into itself")
	ErrCycle          = errors.New("cannot move a folder into its own descendant")
	ErrNotFolder      = errors.New("target is not a folder")
	ErrNotSiblings    = errors.New("nodes do not share a parent")
	ErrInvalidNode    = errors.New("invalid node")
)

// Node is a folder or a file in the forest. File nodes reference a Problem
// by ProblemID; folders carry Children (empty slice for an empty folder).
type Node struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Type      NodeType  `json:"type"`
	ParentID  *string   `json:"parentId"`
	ProblemID *string   `json:"problemId,omitempty"`
	SortOrder int64     `json:"sortOrder"`
	CreatedAt time.Time `json:"createdAt"`
	Children  Forest    `json:"children"`
}

// Forest is the ordered list of root nodes.
type Forest []*Node

// IsFolder reports whether n is a folder.
func (n *Node) IsFolder() bool {
	return n != nil && n.Type == NodeTypeFolder
}

// IsTrash reports whether n is the recycle bin folder.
func (n *Node) IsTrash() bool {
	return n.IsFolder() && n.ParentID == nil && n.Title == TrashTitle
}

// Validate checks the shape invariants of a single node.
func (n *Node) Validate() error {
	switch {
	case n == nil || n.ID == "":
		return ErrInvalidNode
	case !n.Type.Valid():
		return ErrInvalidNode
	case n.Type == NodeTypeFile && (n.ProblemID == nil || *n.ProblemID == ""):
		return ErrInvalidNode
	case n.Type == NodeTypeFile && len(n.Children) > 0:
		return ErrInvalidNode
	case n.Type == NodeTypeFolder && n.ProblemID != nil:
		return ErrInvalidNode
	}
	return nil
}

// clone returns a shallow copy; the children slice is shared.
func (n *Node) clone() *Node {
	c := *n
	return &c
}

// Row is the flat storage shape of a node, one per tree_nodes row.
type Row struct {
	ID        string    `json:"id"`
	ParentID  *string   `json:"parentId"`
	Title     string    `json:"title"`
	Type      NodeType  `json:"type"`
	ProblemID *string   `json:"problemId,omitempty"`
	SortOrder int64     `json:"sortOrder"`
	CreatedAt time.Time `json:"createdAt"`
}

// Node converts the row to a detached node with no children attached.
func (r Row) Node() *Node {
	n := &Node{
		ID:        r.ID,
		Title:     r.Title,
		Type:      r.Type,
		ParentID:  copyID(r.ParentID),
		ProblemID: copyID(r.ProblemID),
		SortOrder: r.SortOrder,
		CreatedAt: r.CreatedAt,
	}
	if n.Type == NodeTypeFolder {
		n.Children = Forest{}
	}
	return n
}

func copyID(id *string) *string {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
