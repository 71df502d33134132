package library

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"problembox/internal/domain"
	models "problembox/internal/domain/models/library"
	repos "problembox/internal/domain/repositories/library"
	"problembox/internal/repository/postgres"
	"problembox/internal/tree"
)

// PostgresProblemRepository implements repos.ProblemRepository.
type PostgresProblemRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewProblemRepository creates a problem repository.
func NewProblemRepository(config *postgres.RepositoryConfig) repos.ProblemRepository {
	return &PostgresProblemRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create inserts a problem.
func (r *PostgresProblemRepository) Create(ctx context.Context, problem *models.Problem) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, title, subject, difficulty, description, tags)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, r.tables.Problems)

	tags := problem.Tags
	if tags == nil {
		tags = []string{}
	}

	err := postgres.GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		problem.UserID,
		problem.Title,
		problem.Subject,
		string(problem.Difficulty),
		problem.Description,
		tags,
	).Scan(&problem.ID, &problem.CreatedAt)
	if err != nil {
		return fmt.Errorf("create problem: %w", err)
	}
	return nil
}

// ListByUser returns the user's problems, newest first.
func (r *PostgresProblemRepository) ListByUser(ctx context.Context, userID string) ([]models.Problem, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, title, subject, difficulty, description, tags, analysis_result, created_at
		FROM %s
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, r.tables.Problems)

	rows, err := postgres.GetExecutor(ctx, r.pool).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list problems: %w", err)
	}
	defer rows.Close()

	problems := make([]models.Problem, 0)
	for rows.Next() {
		var (
			p          models.Problem
			difficulty string
			analysis   []byte
		)
		if err := rows.Scan(
			&p.ID,
			&p.UserID,
			&p.Title,
			&p.Subject,
			&difficulty,
			&p.Description,
			&p.Tags,
			&analysis,
			&p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan problem: %w", err)
		}
		p.Difficulty = tree.NormalizeDifficulty(difficulty)
		if len(analysis) > 0 {
			p.AnalysisResult = json.RawMessage(analysis)
		}
		problems = append(problems, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate problems: %w", err)
	}
	return problems, nil
}

// ListTagsBySubject returns the tags of every problem in subject.
func (r *PostgresProblemRepository) ListTagsBySubject(ctx context.Context, userID, subject string) ([][]string, error) {
	query := fmt.Sprintf(`
		SELECT tags FROM %s
		WHERE user_id = $1 AND subject = $2
	`, r.tables.Problems)

	rows, err := postgres.GetExecutor(ctx, r.pool).Query(ctx, query, userID, subject)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var result [][]string
	for rows.Next() {
		var tags []string
		if err := rows.Scan(&tags); err != nil {
			return nil, fmt.Errorf("scan tags: %w", err)
		}
		result = append(result, tags)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	return result, nil
}

// DeleteByIDs removes problems.
func (r *PostgresProblemRepository) DeleteByIDs(ctx context.Context, userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE user_id = $1 AND id = ANY($2)
	`, r.tables.Problems)

	result, err := postgres.GetExecutor(ctx, r.pool).Exec(ctx, query, userID, ids)
	if err != nil {
		if postgres.IsPgInvalidTextError(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("delete problems: %w", err)
	}
	return result.RowsAffected(), nil
}

// SetAnalysis stores or clears the cached analysis of a problem.
func (r *PostgresProblemRepository) SetAnalysis(ctx context.Context, userID, id string, analysis json.RawMessage) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET analysis_result = $3
		WHERE user_id = $1 AND id = $2
	`, r.tables.Problems)

	var payload []byte
	if len(analysis) > 0 {
		payload = analysis
	}
	result, err := postgres.GetExecutor(ctx, r.pool).Exec(ctx, query, userID, id, payload)
	if err != nil {
		if postgres.IsPgInvalidTextError(err) {
			return fmt.Errorf("problem %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("set analysis: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("problem %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
