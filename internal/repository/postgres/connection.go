package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"problembox/internal/domain/repositories"
)

// RepositoryConfig is shared by every repository.
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds the environment-prefixed table names.
type TableNames struct {
	TreeNodes string
	Problems  string
	Favorites string
	Profiles  string
}

// NewTableNames prefixes every table with prefix (e.g. "dev_").
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		TreeNodes: fmt.Sprintf("%stree_nodes", prefix),
		Problems:  fmt.Sprintf("%sproblems", prefix),
		Favorites: fmt.Sprintf("%sfavorites", prefix),
		Profiles:  fmt.Sprintf("%sprofiles", prefix),
	}
}

// CreateConnectionPool opens a pgx pool and pings it.
//
// Supabase's transaction pooler (port 6543) is PgBouncer, which cannot hold
// prepared statements across transactions. On that port the pool switches to
// QueryExecModeCacheDescribe unless the connection string already picked a
// mode with default_query_exec_mode.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the transaction stored in ctx, or the pool.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
