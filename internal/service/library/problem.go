package library

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"problembox/internal/config"
	"problembox/internal/domain"
	"problembox/internal/domain/repositories"
	repos "problembox/internal/domain/repositories/library"
	svc "problembox/internal/domain/services/library"
	"problembox/internal/service/content"
)

type problemService struct {
	nodes      repos.NodeRepository
	problems   repos.ProblemRepository
	favorites  repos.FavoriteRepository
	classifier svc.Classifier
	content    *content.Normalizer
	tx         repositories.TransactionManager
	logger     *slog.Logger
	now        Clock
}

// NewProblemService creates the problem service. The classifier may be nil,
// in which case imports are filed directly under their parent folder.
func NewProblemService(r Repositories, classifier svc.Classifier, tx repositories.TransactionManager, now Clock, logger *slog.Logger) svc.ProblemService {
	if now == nil {
		now = time.Now
	}
	return &problemService{
		nodes:      r.Nodes,
		problems:   r.Problems,
		favorites:  r.Favorites,
		classifier: classifier,
		content:    content.NewNormalizer(),
		tx:         tx,
		logger:     logger,
		now:        now,
	}
}

// DeleteProblems removes problems with their file nodes and favorites.
func (s *problemService) DeleteProblems(ctx context.Context, userID string, problemIDs []string) error {
	ids := dedupe(problemIDs)
	if err := validateIDs(ids); err != nil {
		return fmt.Errorf("%w: problemIds: %v", domain.ErrValidation, err)
	}

	err := s.tx.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.nodes.DeleteByProblemIDs(ctx, userID, ids); err != nil {
			return err
		}
		if err := s.favorites.DeleteByProblemIDs(ctx, userID, ids); err != nil {
			return err
		}
		deleted, err := s.problems.DeleteByIDs(ctx, userID, ids)
		if err != nil {
			return err
		}
		if deleted == 0 {
			return fmt.Errorf("problems %v: %w", ids, domain.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("problems deleted", "user_id", userID, "count", len(ids))
	return nil
}

// ToggleFavorite flips the favorite flag and returns the resulting list.
func (s *problemService) ToggleFavorite(ctx context.Context, userID, problemID string) ([]string, error) {
	if problemID == "" {
		return nil, domain.NewValidationError("problemId is required")
	}

	var favorites []string
	err := s.tx.ExecTx(ctx, func(ctx context.Context) error {
		exists, err := s.favorites.Exists(ctx, userID, problemID)
		if err != nil {
			return err
		}
		if exists {
			err = s.favorites.Remove(ctx, userID, problemID)
		} else {
			err = s.favorites.Add(ctx, userID, problemID)
		}
		if err != nil {
			return err
		}
		favorites, err = s.favorites.ListProblemIDs(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("favorite toggled", "problem_id", problemID, "favorites", len(favorites))
	return favorites, nil
}

// SaveAnalysis caches an analysis object on the problem, or clears it when
// the payload is JSON null.
func (s *problemService) SaveAnalysis(ctx context.Context, userID, problemID string, req *svc.AnalysisRequest) error {
	if problemID == "" {
		return domain.NewValidationError("problemId is required")
	}
	payload, err := analysisPayload(req.Analysis)
	if err != nil {
		return fmt.Errorf("%w: analysis: %v", domain.ErrValidation, err)
	}
	if err := s.problems.SetAnalysis(ctx, userID, problemID, payload); err != nil {
		return err
	}
	s.logger.Debug("analysis saved", "problem_id", problemID, "bytes", len(payload))
	return nil
}

// analysisPayload accepts a JSON object or null. Null maps to a nil payload.
func analysisPayload(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("is required")
	}
	if bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if len(trimmed) > config.MaxAnalysisBytes {
		return nil, fmt.Errorf("exceeds %d bytes", config.MaxAnalysisBytes)
	}
	if trimmed[0] != '{' || !json.Valid(trimmed) {
		return nil, errors.New("must be a JSON object")
	}
	return json.RawMessage(trimmed), nil
}
