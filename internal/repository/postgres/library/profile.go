package library

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	models "problembox/internal/domain/models/library"
	repos "problembox/internal/domain/repositories/library"
	"problembox/internal/repository/postgres"
)

// PostgresProfileRepository implements repos.ProfileRepository.
type PostgresProfileRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewProfileRepository creates a profile repository.
func NewProfileRepository(config *postgres.RepositoryConfig) repos.ProfileRepository {
	return &PostgresProfileRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// GetByID returns the profile of userID, or nil when the user has none yet.
func (r *PostgresProfileRepository) GetByID(ctx context.Context, userID string) (*models.Profile, error) {
	query := fmt.Sprintf(`
		SELECT id, coalesce(name, ''), coalesce(email, ''), coalesce(avatar, ''), coalesce(plan, 'free')
		FROM %s
		WHERE id = $1
	`, r.tables.Profiles)

	var p models.Profile
	err := postgres.GetExecutor(ctx, r.pool).QueryRow(ctx, query, userID).Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.Avatar,
		&p.Plan,
	)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

// Upsert writes the profile's name and avatar. Email and plan are left to
// the auth provider.
func (r *PostgresProfileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, avatar)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, avatar = EXCLUDED.avatar
		RETURNING coalesce(name, ''), coalesce(email, ''), coalesce(avatar, ''), coalesce(plan, 'free')
	`, r.tables.Profiles)

	err := postgres.GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		profile.ID,
		profile.Name,
		profile.Avatar,
	).Scan(
		&profile.Name,
		&profile.Email,
		&profile.Avatar,
		&profile.Plan,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
