package library

import (
	"context"
	"encoding/json"

	models "problembox/internal/domain/models/library"
)

// ProblemRepository is data access for problems.
type ProblemRepository interface {
	Create(ctx context.Context, problem *models.Problem) error
	ListByUser(ctx context.Context, userID string) ([]models.Problem, error)
	// ListTagsBySubject returns the tag arrays of the user's problems in subject.
	ListTagsBySubject(ctx context.Context, userID, subject string) ([][]string, error)
	DeleteByIDs(ctx context.Context, userID string, ids []string) (int64, error)
	// SetAnalysis stores the cached analysis payload. A nil payload clears it.
	SetAnalysis(ctx context.Context, userID, id string, analysis json.RawMessage) error
}

// FavoriteRepository is data access for favorites.
type FavoriteRepository interface {
	ListProblemIDs(ctx context.Context, userID string) ([]string, error)
	Exists(ctx context.Context, userID, problemID string) (bool, error)
	Add(ctx context.Context, userID, problemID string) error
	Remove(ctx context.Context, userID, problemID string) error
	DeleteByProblemIDs(ctx context.Context, userID string, problemIDs []string) error
}

// ProfileRepository is data access for user profiles.
type ProfileRepository interface {
	GetByID(ctx context.Context, userID string) (*models.Profile, error)
	// Upsert writes name and avatar, creating the row if needed, and fills
	// profile with the stored values.
	Upsert(ctx context.Context, profile *models.Profile) error
}
