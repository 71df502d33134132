package library

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"problembox/internal/domain"
	repos "problembox/internal/domain/repositories/library"
	"problembox/internal/repository/postgres"
)

// PostgresFavoriteRepository implements repos.FavoriteRepository.
type PostgresFavoriteRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewFavoriteRepository creates a favorite repository.
func NewFavoriteRepository(config *postgres.RepositoryConfig) repos.FavoriteRepository {
	return &PostgresFavoriteRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// ListProblemIDs returns the user's favorite problem ids in insertion order.
func (r *PostgresFavoriteRepository) ListProblemIDs(ctx context.Context, userID string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT problem_id FROM %s
		WHERE user_id = $1
		ORDER BY created_at
	`, r.tables.Favorites)

	rows, err := postgres.GetExecutor(ctx, r.pool).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate favorites: %w", err)
	}
	return ids, nil
}

// Exists reports whether problemID is a favorite.
func (r *PostgresFavoriteRepository) Exists(ctx context.Context, userID, problemID string) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS (SELECT 1 FROM %s WHERE user_id = $1 AND problem_id = $2)
	`, r.tables.Favorites)

	var exists bool
	if err := postgres.GetExecutor(ctx, r.pool).QueryRow(ctx, query, userID, problemID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return exists, nil
}

// Add marks problemID as a favorite. Adding twice is a no-op.
func (r *PostgresFavoriteRepository) Add(ctx context.Context, userID, problemID string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, problem_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, problem_id) DO NOTHING
	`, r.tables.Favorites)

	if _, err := postgres.GetExecutor(ctx, r.pool).Exec(ctx, query, userID, problemID); err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("problem %s: %w", problemID, domain.ErrNotFound)
		}
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

// Remove unmarks problemID.
func (r *PostgresFavoriteRepository) Remove(ctx context.Context, userID, problemID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE user_id = $1 AND problem_id = $2
	`, r.tables.Favorites)

	if _, err := postgres.GetExecutor(ctx, r.pool).Exec(ctx, query, userID, problemID); err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}

// DeleteByProblemIDs drops favorites of deleted problems.
func (r *PostgresFavoriteRepository) DeleteByProblemIDs(ctx context.Context, userID string, problemIDs []string) error {
	if len(problemIDs) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE user_id = $1 AND problem_id = ANY($2)
	`, r.tables.Favorites)

	if _, err := postgres.GetExecutor(ctx, r.pool).Exec(ctx, query, userID, problemIDs); err != nil {
		return fmt.Errorf("delete favorites: %w", err)
	}
	return nil
}
