package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"problembox/internal/auth"
	"problembox/internal/config"
	svc "problembox/internal/domain/services/library"
	"problembox/internal/handler"
	"problembox/internal/middleware"
	"problembox/internal/repository/postgres"
	postgresLibrary "problembox/internal/repository/postgres/library"
	"problembox/internal/service/classify"
	"problembox/internal/service/library"
)

func main() {
	// .env is optional; production sets the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	var out io.Writer = os.Stdout
	if cfg.LogDir != "" {
		f, err := config.SetupLogFile(cfg.LogDir, config.MaxLogFiles)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer f.Close()
		out = io.MultiWriter(os.Stdout, f)
	}
	logger := config.NewLogger(out, cfg.Debug)
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jwtVerifier, err := auth.NewJWTVerifier(ctx, cfg.SupabaseJWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()
	logger.Info("database connected")

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}
	repos := library.Repositories{
		Nodes:     postgresLibrary.NewNodeRepository(repoConfig),
		Problems:  postgresLibrary.NewProblemRepository(repoConfig),
		Favorites: postgresLibrary.NewFavoriteRepository(repoConfig),
		Profiles:  postgresLibrary.NewProfileRepository(repoConfig),
	}
	txManager := postgres.NewTransactionManager(pool, logger)

	classifier, err := newClassifier(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to set up classifier: %v", err)
	}

	treeService := library.NewTreeService(repos, txManager, nil, logger)
	problemService := library.NewProblemService(repos, classifier, txManager, nil, logger)
	logger.Info("services initialized")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handler.NewHealthHandler(pool).Health)
	mux.Handle("GET /metrics", promhttp.Handler())
	handler.Register(mux,
		handler.NewTreeHandler(treeService, logger),
		handler.NewProblemHandler(problemService, logger),
	)

	// Outermost first: CORS, request log, recovery, auth, routes.
	var h http.Handler = mux
	h = middleware.AuthMiddleware(jwtVerifier, logger, "/health", "/metrics")(h)
	h = middleware.Recovery(logger)(h)
	h = middleware.RequestLogger(logger)(h)

	// CORS sits outside auth so preflight requests are answered.
	h = cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	}).Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * config.ClassifyTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}
}

// newClassifier prefers the LLM classifier when a key is configured and
// always falls back to keyword matching.
func newClassifier(cfg *config.Config, logger *slog.Logger) (svc.Classifier, error) {
	if cfg.OpenAIAPIKey == "" {
		logger.Warn("no OpenAI key configured, imports use keyword classification")
		return classify.KeywordClassifier{}, nil
	}
	registry, err := classify.LoadRegistry()
	if err != nil {
		return nil, err
	}
	client := classify.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	llm := classify.NewOpenAIClassifier(client, registry, cfg.ClassifyModel, logger)
	return classify.Fallback{llm, classify.KeywordClassifier{}}, nil
}
