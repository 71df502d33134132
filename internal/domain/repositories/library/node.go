package library

import (
	"context"

	models "problembox/internal/domain/models/library"
)

// NodeRepository is data access for tree_nodes. Every method is scoped to a
// single user's rows.
type NodeRepository interface {
	// Create inserts a node and fills in ID and CreatedAt.
	Create(ctx context.Context, node *models.TreeNode) error

	// GetByID returns domain.ErrNotFound when the node is missing or not owned by userID.
	GetByID(ctx context.Context, userID, id string) (*models.TreeNode, error)

	// GetByProblemID returns the file node pointing at problemID.
	GetByProblemID(ctx context.Context, userID, problemID string) (*models.TreeNode, error)

	// ListByUser returns every node of the user ordered by sort_order, created_at.
	ListByUser(ctx context.Context, userID string) ([]models.TreeNode, error)

	// ListChildren returns the direct children of parentID (roots when nil).
	ListChildren(ctx context.Context, userID string, parentID *string) ([]models.TreeNode, error)

	// FindFolder returns the folder titled title directly under parentID, or nil.
	FindFolder(ctx context.Context, userID string, parentID *string, title string) (*models.TreeNode, error)

	// CountOwned returns how many of ids belong to userID.
	CountOwned(ctx context.Context, userID string, ids []string) (int, error)

	// SetParent reparents ids and places them after existing siblings.
	SetParent(ctx context.Context, userID string, ids []string, parentID *string, sortOrder int64) (int64, error)

	// SetSortOrders assigns base+i to ids[i].
	SetSortOrders(ctx context.Context, userID string, ids []string, base int64) error

	// Delete removes ids and returns the number of rows deleted.
	Delete(ctx context.Context, userID string, ids []string) (int64, error)

	// DeleteByProblemIDs removes the file nodes referencing problemIDs.
	DeleteByProblemIDs(ctx context.Context, userID string, problemIDs []string) error
}
