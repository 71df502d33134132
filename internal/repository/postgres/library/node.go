package library

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"problembox/internal/domain"
	models "problembox/internal/domain/models/library"
	repos "problembox/internal/domain/repositories/library"
	"problembox/internal/repository/postgres"
	"problembox/internal/tree"
)

const nodeColumns = "id, user_id, title, type, parent_id, problem_id, sort_order, created_at"

// PostgresNodeRepository implements repos.NodeRepository.
type PostgresNodeRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewNodeRepository creates a node repository.
func NewNodeRepository(config *postgres.RepositoryConfig) repos.NodeRepository {
	return &PostgresNodeRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create inserts a node.
func (r *PostgresNodeRepository) Create(ctx context.Context, node *models.TreeNode) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, title, type, parent_id, problem_id, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, r.tables.TreeNodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		node.UserID,
		node.Title,
		string(node.Type),
		node.ParentID,
		node.ProblemID,
		node.SortOrder,
	).Scan(&node.ID, &node.CreatedAt)
	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("parent or problem of node '%s': %w", node.Title, domain.ErrNotFound)
		}
		return fmt.Errorf("create node: %w", err)
	}
	return nil
}

// GetByID retrieves a node owned by userID.
func (r *PostgresNodeRepository) GetByID(ctx context.Context, userID, id string) (*models.TreeNode, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE id = $1 AND user_id = $2
	`, nodeColumns, r.tables.TreeNodes)

	node, err := scanNode(postgres.GetExecutor(ctx, r.pool).QueryRow(ctx, query, id, userID))
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidTextError(err) {
			return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get node: %w", err)
	}
	return node, nil
}

// GetByProblemID retrieves the file node of a problem.
func (r *PostgresNodeRepository) GetByProblemID(ctx context.Context, userID, problemID string) (*models.TreeNode, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE problem_id = $1 AND user_id = $2
		ORDER BY created_at
		LIMIT 1
	`, nodeColumns, r.tables.TreeNodes)

	node, err := scanNode(postgres.GetExecutor(ctx, r.pool).QueryRow(ctx, query, problemID, userID))
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidTextError(err) {
			return nil, fmt.Errorf("node for problem %s: %w", problemID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get node by problem: %w", err)
	}
	return node, nil
}

// ListByUser returns every node of the user.
func (r *PostgresNodeRepository) ListByUser(ctx context.Context, userID string) ([]models.TreeNode, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE user_id = $1
		ORDER BY sort_order, created_at
	`, nodeColumns, r.tables.TreeNodes)

	rows, err := postgres.GetExecutor(ctx, r.pool).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	return collectNodes(rows)
}

// ListChildren returns the direct children of parentID.
func (r *PostgresNodeRepository) ListChildren(ctx context.Context, userID string, parentID *string) ([]models.TreeNode, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE user_id = $1 AND parent_id IS NOT DISTINCT FROM $2
		ORDER BY sort_order, created_at
	`, nodeColumns, r.tables.TreeNodes)

	rows, err := postgres.GetExecutor(ctx, r.pool).Query(ctx, query, userID, parentID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	return collectNodes(rows)
}

// FindFolder looks a folder up by title under parentID.
func (r *PostgresNodeRepository) FindFolder(ctx context.Context, userID string, parentID *string, title string) (*models.TreeNode, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE user_id = $1 AND parent_id IS NOT DISTINCT FROM $2 AND title = $3 AND type = $4
		ORDER BY created_at
		LIMIT 1
	`, nodeColumns, r.tables.TreeNodes)

	node, err := scanNode(postgres.GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		userID, parentID, title, string(tree.NodeTypeFolder)))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find folder: %w", err)
	}
	return node, nil
}

// CountOwned counts how many of ids belong to userID.
func (r *PostgresNodeRepository) CountOwned(ctx context.Context, userID string, ids []string) (int, error) {
	query := fmt.Sprintf(`
		SELECT count(*) FROM %s
		WHERE user_id = $1 AND id = ANY($2)
	`, r.tables.TreeNodes)

	var count int
	if err := postgres.GetExecutor(ctx, r.pool).QueryRow(ctx, query, userID, ids).Scan(&count); err != nil {
		if postgres.IsPgInvalidTextError(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("count nodes: %w", err)
	}
	return count, nil
}

// SetParent reparents ids.
func (r *PostgresNodeRepository) SetParent(ctx context.Context, userID string, ids []string, parentID *string, sortOrder int64) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET parent_id = $1, sort_order = $2
		WHERE user_id = $3 AND id = ANY($4)
	`, r.tables.TreeNodes)

	result, err := postgres.GetExecutor(ctx, r.pool).Exec(ctx, query, parentID, sortOrder, userID, ids)
	if err != nil {
		return 0, fmt.Errorf("move nodes: %w", err)
	}
	return result.RowsAffected(), nil
}

// SetSortOrders assigns base+i to ids[i] in one statement.
func (r *PostgresNodeRepository) SetSortOrders(ctx context.Context, userID string, ids []string, base int64) error {
	if len(ids) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
		UPDATE %s AS n
		SET sort_order = $1 + o.idx - 1
		FROM unnest($2::uuid[]) WITH ORDINALITY AS o(id, idx)
		WHERE n.id = o.id AND n.user_id = $3
	`, r.tables.TreeNodes)

	if _, err := postgres.GetExecutor(ctx, r.pool).Exec(ctx, query, base, ids, userID); err != nil {
		return fmt.Errorf("reorder nodes: %w", err)
	}
	return nil
}

// Delete removes ids.
func (r *PostgresNodeRepository) Delete(ctx context.Context, userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE user_id = $1 AND id = ANY($2)
	`, r.tables.TreeNodes)

	result, err := postgres.GetExecutor(ctx, r.pool).Exec(ctx, query, userID, ids)
	if err != nil {
		return 0, fmt.Errorf("delete nodes: %w", err)
	}
	return result.RowsAffected(), nil
}

// DeleteByProblemIDs removes the file nodes of problemIDs.
func (r *PostgresNodeRepository) DeleteByProblemIDs(ctx context.Context, userID string, problemIDs []string) error {
	if len(problemIDs) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE user_id = $1 AND problem_id = ANY($2)
	`, r.tables.TreeNodes)

	if _, err := postgres.GetExecutor(ctx, r.pool).Exec(ctx, query, userID, problemIDs); err != nil {
		return fmt.Errorf("delete nodes by problem: %w", err)
	}
	return nil
}

func scanNode(row pgx.Row) (*models.TreeNode, error) {
	var (
		node     models.TreeNode
		nodeType string
	)
	err := row.Scan(
		&node.ID,
		&node.UserID,
		&node.Title,
		&nodeType,
		&node.ParentID,
		&node.ProblemID,
		&node.SortOrder,
		&node.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	node.Type = tree.NodeType(nodeType)
	return &node, nil
}

func collectNodes(rows pgx.Rows) ([]models.TreeNode, error) {
	defer rows.Close()

	nodes := make([]models.TreeNode, 0)
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, *node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}
	return nodes, nil
}
