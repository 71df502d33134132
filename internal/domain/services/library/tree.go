package library

import (
	"context"

	models "problembox/internal/domain/models/library"
	"problembox/internal/tree"
)

// TreeService owns the per-user folder/file forest: the trash folder,
// soft and hard deletes, moves and sibling ordering.
type TreeService interface {
	// Bootstrap returns profile, problems, nested tree and favorites, creating
	// the trash folder first if the user has none.
	Bootstrap(ctx context.Context, userID string) (*models.Bootstrap, error)

	CreateFolder(ctx context.Context, userID string, req *CreateFolderRequest) (*tree.Node, error)

	// SoftDelete moves nodes under the trash folder and returns the ids moved.
	SoftDelete(ctx context.Context, userID string, nodeIDs []string) ([]string, error)

	// Restore moves a node back to the forest root.
	Restore(ctx context.Context, userID, nodeID string) error

	// HardDelete removes a node with its whole subtree and cascades to the
	// problems and favorites referenced by the removed files.
	HardDelete(ctx context.Context, userID, nodeID string) (*DeleteResult, error)

	MoveProblem(ctx context.Context, userID string, req *MoveProblemRequest) error
	MoveNode(ctx context.Context, userID string, req *MoveNodeRequest) error
	Reorder(ctx context.Context, userID string, req *ReorderRequest) error

	// UpdateProfile edits the display name and avatar shown by Bootstrap.
	UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest) (*models.Profile, error)
}

// ProblemService owns problems and favorites.
type ProblemService interface {
	// DeleteProblems removes problems with their tree nodes and favorites.
	DeleteProblems(ctx context.Context, userID string, problemIDs []string) error

	// ToggleFavorite flips the favorite flag and returns the full favorites list.
	ToggleFavorite(ctx context.Context, userID, problemID string) ([]string, error)

	// Import creates one problem and one file node per item, filing the nodes
	// into category folders proposed by the classifier.
	Import(ctx context.Context, userID string, req *ImportRequest) ([]*tree.Problem, error)

	// SaveAnalysis caches an analysis payload on the problem.
	SaveAnalysis(ctx context.Context, userID, problemID string, req *AnalysisRequest) error
}
