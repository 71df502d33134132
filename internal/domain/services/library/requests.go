package library

import (
	"encoding/json"

	"problembox/internal/tree"
)

// CreateFolderRequest is the body of POST /api/folders.
type CreateFolderRequest struct {
	Title    string  `json:"title"`
	ParentID *string `json:"parentId,omitempty"`
}

// NodeRequest is the body of restore and hard-delete.
type NodeRequest struct {
	NodeID string `json:"nodeId"`
}

// NodeIDsRequest is the body of batch soft delete.
type NodeIDsRequest struct {
	NodeIDs []string `json:"nodeIds"`
}

// MoveProblemRequest moves the file node of a problem. A nil target is the root.
type MoveProblemRequest struct {
	ProblemID      string  `json:"problemId"`
	TargetFolderID *string `json:"targetFolderId"`
}

// MoveNodeRequest moves a node. A nil target is the root.
type MoveNodeRequest struct {
	NodeID         string  `json:"nodeId"`
	TargetFolderID *string `json:"targetFolderId"`
}

// ReorderRequest lists sibling ids in their new order. Siblings left out keep
// their relative order after the listed ones.
type ReorderRequest struct {
	OrderedIDs []string `json:"orderedIds"`
}

// ProblemRequest is the body of favorite toggling.
type ProblemRequest struct {
	ProblemID string `json:"problemId"`
}

// ProblemIDsRequest is the body of batch problem deletion.
type ProblemIDsRequest struct {
	ProblemIDs []string `json:"problemIds"`
}

// ImportItem is one question to import.
type ImportItem struct {
	Content    string   `json:"content"`
	Title      string   `json:"title,omitempty"`
	Difficulty string   `json:"difficulty,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

// ImportRequest is the body of POST /api/problems/import.
type ImportRequest struct {
	Items           []ImportItem `json:"items"`
	ParentFolderID  *string      `json:"parentFolderId,omitempty"`
	Subject         string       `json:"subject,omitempty"`
	ForceParentOnly bool         `json:"forceParentOnly,omitempty"`
	ClassifyModel   string       `json:"classifyModel,omitempty"`
}

// DeleteResult lists what a cascading delete removed.
type DeleteResult struct {
	DeletedIDs        []string `json:"deletedIds"`
	DeletedProblemIDs []string `json:"deletedProblemIds"`
}

// OKResponse is the body of successful mutations.
type OKResponse struct {
	OK                bool     `json:"ok"`
	AffectedIDs       []string `json:"affectedIds,omitempty"`
	DeletedProblemIDs []string `json:"deletedProblemIds,omitempty"`
}

// FolderResponse is the body of POST /api/folders.
type FolderResponse struct {
	Node *tree.Node `json:"node"`
}

// FavoritesResponse is the body of POST /api/favorites/toggle.
type FavoritesResponse struct {
	Favorites []string `json:"favorites"`
}

// ImportResponse is the body of POST /api/problems/import.
type ImportResponse struct {
	OK       bool            `json:"ok"`
	Problems []*tree.Problem `json:"problems"`
}

// UpdateProfileRequest is the body of PATCH /api/profile. Nil fields keep
// their stored value.
type UpdateProfileRequest struct {
	Name   *string `json:"name,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

// AnalysisRequest is the body of PUT /api/problems/{id}/analysis. A JSON null
// clears the cached analysis.
type AnalysisRequest struct {
	Analysis json.RawMessage `json:"analysis"`
}
