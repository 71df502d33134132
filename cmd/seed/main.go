package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"problembox/internal/auth"
	"problembox/internal/config"
	svc "problembox/internal/domain/services/library"
	"problembox/internal/repository/postgres"
	postgresLibrary "problembox/internal/repository/postgres/library"
	"problembox/internal/service/classify"
	"problembox/internal/service/library"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed a library")
	clearData := flag.Bool("clear-data", false, "Clear the demo user's library (keep schema)")
	userID := flag.String("user-id", "", "Seed this user instead of provisioning the demo user")
	email := flag.String("email", "demo@problembox.local", "Demo user email")
	password := flag.String("password", "problembox-demo", "Demo user password")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("BLOCKED: destructive operations (--drop-tables, --clear-data) are disabled in prod")
	}

	logger := config.NewLogger(os.Stdout, false)
	log.Printf("Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("Tables dropped")
	}

	if err := runSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("Schema ready")
	if *schemaOnly {
		return
	}

	uid := *userID
	if uid == "" {
		if cfg.SupabaseServiceKey == "" {
			log.Fatalf("Either --user-id or SUPABASE_SERVICE_KEY is required")
		}
		uid, err = auth.NewAdminClient(cfg.SupabaseURL, cfg.SupabaseServiceKey).EnsureUser(ctx, *email, *password)
		if err != nil {
			log.Fatalf("Failed to provision demo user: %v", err)
		}
		log.Printf("Demo user %s (%s)", *email, uid)
	}

	if err := clearLibrary(ctx, pool, tables, uid); err != nil {
		log.Fatalf("Failed to clear data: %v", err)
	}
	if *clearData {
		log.Println("Data cleared")
		return
	}

	if err := ensureProfile(ctx, pool, tables, uid, *email); err != nil {
		log.Fatalf("Failed to create profile: %v", err)
	}

	repoConfig := &postgres.RepositoryConfig{Pool: pool, Tables: tables, Logger: logger}
	repos := library.Repositories{
		Nodes:     postgresLibrary.NewNodeRepository(repoConfig),
		Problems:  postgresLibrary.NewProblemRepository(repoConfig),
		Favorites: postgresLibrary.NewFavoriteRepository(repoConfig),
		Profiles:  postgresLibrary.NewProfileRepository(repoConfig),
	}
	txManager := postgres.NewTransactionManager(pool, logger)
	trees := library.NewTreeService(repos, txManager, nil, logger)
	problems := library.NewProblemService(repos, classify.KeywordClassifier{}, txManager, nil, logger)

	// Bootstrap creates the trash folder.
	if _, err := trees.Bootstrap(ctx, uid); err != nil {
		log.Fatalf("Failed to bootstrap library: %v", err)
	}

	for _, batch := range seedBatches() {
		imported, err := problems.Import(ctx, uid, batch)
		if err != nil {
			log.Printf("Failed to import %s batch: %v", batch.Subject, err)
			continue
		}
		log.Printf("Imported %d problems under %s", len(imported), batch.Subject)
		if len(imported) > 0 {
			if _, err := problems.ToggleFavorite(ctx, uid, imported[0].ID); err != nil {
				log.Printf("Failed to favorite %s: %v", imported[0].ID, err)
			}
		}
	}

	if _, err := trees.CreateFolder(ctx, uid, &svc.CreateFolderRequest{Title: "待整理"}); err != nil {
		log.Printf("Failed to create inbox folder: %v", err)
	}

	log.Println("Seeding complete")
}

func seedBatches() []*svc.ImportRequest {
	return []*svc.ImportRequest{
		{
			Subject: "数学",
			Items: []svc.ImportItem{
				{Content: "求函数 f(x) = x^3 - 3x 的极值。", Tags: []string{"数学", "导数", "极值"}, Difficulty: "medium"},
				{Content: "已知 f(x) = e^x - ax 在 R 上单调递增，求 a 的取值范围。", Tags: []string{"数学", "导数", "单调性"}, Difficulty: "hard"},
				{Content: "求 lim(x→0) sin(x)/x。", Tags: []string{"数学", "极限"}, Difficulty: "easy"},
			},
		},
		{
			Subject: "物理",
			Items: []svc.ImportItem{
				{Content: "质量为 2kg 的物体在水平面上受 10N 拉力，摩擦因数 0.2，求加速度。", Tags: []string{"物理", "力学", "牛顿定律"}, Difficulty: "easy"},
				{Content: "带电粒子以速度 v 垂直进入匀强磁场，求其运动半径。", Tags: []string{"物理", "电磁学"}, Difficulty: "medium"},
			},
		},
	}
}

// runSchema creates the tables and indexes if they don't exist.
func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`,
		`CREATE TABLE IF NOT EXISTS ` + tables.Profiles + ` (
			id UUID PRIMARY KEY,
			name TEXT,
			email TEXT,
			avatar TEXT,
			plan TEXT DEFAULT 'free',
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.Problems + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL,
			title TEXT NOT NULL,
			subject TEXT NOT NULL DEFAULT '',
			difficulty TEXT NOT NULL DEFAULT 'medium' CHECK (difficulty IN ('easy', 'medium', 'hard')),
			description TEXT NOT NULL DEFAULT '',
			tags TEXT[] NOT NULL DEFAULT '{}',
			analysis_result JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.TreeNodes + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL,
			title VARCHAR(255) NOT NULL,
			type TEXT NOT NULL CHECK (type IN ('folder', 'file')),
			parent_id UUID REFERENCES ` + tables.TreeNodes + `(id) ON DELETE CASCADE,
			problem_id UUID REFERENCES ` + tables.Problems + `(id) ON DELETE CASCADE,
			sort_order BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.Favorites + ` (
			user_id UUID NOT NULL,
			problem_id UUID NOT NULL REFERENCES ` + tables.Problems + `(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, problem_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `tree_nodes_user_parent ON ` + tables.TreeNodes + `(user_id, parent_id, sort_order)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `tree_nodes_problem ON ` + tables.TreeNodes + `(user_id, problem_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `problems_user_created ON ` + tables.Problems + `(user_id, created_at DESC)`,
	}
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// dropAllTables drops tables children first so foreign keys don't block.
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	for _, table := range []string{tables.Favorites, tables.TreeNodes, tables.Problems, tables.Profiles} {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return err
		}
		log.Printf("  dropped %s", table)
	}
	return nil
}

func clearLibrary(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, userID string) error {
	for _, table := range []string{tables.Favorites, tables.TreeNodes, tables.Problems} {
		if _, err := pool.Exec(ctx, "DELETE FROM "+table+" WHERE user_id = $1", userID); err != nil {
			return err
		}
	}
	return nil
}

func ensureProfile(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, userID, email string) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO `+tables.Profiles+` (id, name, email, plan)
		VALUES ($1, $2, $3, 'free')
		ON CONFLICT (id) DO NOTHING`,
		userID, "Demo", email)
	return err
}
