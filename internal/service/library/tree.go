package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/sync/errgroup"

	"problembox/internal/config"
	"problembox/internal/domain"
	models "problembox/internal/domain/models/library"
	"problembox/internal/domain/repositories"
	repos "problembox/internal/domain/repositories/library"
	svc "problembox/internal/domain/services/library"
	"problembox/internal/tree"
)

// Clock returns the current time. Sort orders of moved and created nodes are
// derived from it in milliseconds, so newer placements sort last.
type Clock func() time.Time

type treeService struct {
	nodes     repos.NodeRepository
	problems  repos.ProblemRepository
	favorites repos.FavoriteRepository
	profiles  repos.ProfileRepository
	tx        repositories.TransactionManager
	logger    *slog.Logger
	now       Clock
}

// Repositories bundles the library repositories.
type Repositories struct {
	Nodes     repos.NodeRepository
	Problems  repos.ProblemRepository
	Favorites repos.FavoriteRepository
	Profiles  repos.ProfileRepository
}

// NewTreeService creates the tree service. A nil clock uses time.Now.
func NewTreeService(r Repositories, tx repositories.TransactionManager, now Clock, logger *slog.Logger) svc.TreeService {
	if now == nil {
		now = time.Now
	}
	return &treeService{
		nodes:     r.Nodes,
		problems:  r.Problems,
		favorites: r.Favorites,
		profiles:  r.Profiles,
		tx:        tx,
		logger:    logger,
		now:       now,
	}
}

// Bootstrap ensures the trash folder exists, then reads everything the client
// needs in parallel.
func (s *treeService) Bootstrap(ctx context.Context, userID string) (*models.Bootstrap, error) {
	if _, err := s.ensureTrash(ctx, userID); err != nil {
		return nil, err
	}

	var (
		profile   *models.Profile
		problems  []models.Problem
		nodes     []models.TreeNode
		favorites []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile, err = s.profiles.GetByID(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		problems, err = s.problems.ListByUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		nodes, err = s.nodes.ListByUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		favorites, err = s.favorites.ListProblemIDs(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	if profile == nil {
		profile = &models.Profile{ID: userID, Plan: "free"}
	}

	views := make([]*tree.Problem, len(problems))
	for i := range problems {
		views[i] = problems[i].View()
	}

	s.logger.Debug("bootstrap loaded",
		"user_id", userID,
		"problems", len(problems),
		"nodes", len(nodes),
		"favorites", len(favorites),
	)

	return &models.Bootstrap{
		Profile:   profile,
		Problems:  views,
		Tree:      buildForest(nodes),
		Favorites: favorites,
	}, nil
}

// CreateFolder validates the title and parent, then inserts the folder last
// among its siblings.
func (s *treeService) CreateFolder(ctx context.Context, userID string, req *svc.CreateFolderRequest) (*tree.Node, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.ParentID != nil && *req.ParentID == "" {
		req.ParentID = nil
	}
	if err := validateCreateFolder(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if req.ParentID != nil {
		parent, err := s.nodes.GetByID(ctx, userID, *req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("parent folder: %w", err)
		}
		if parent.Type != tree.NodeTypeFolder {
			return nil, fmt.Errorf("%w: %w", domain.ErrValidation, tree.ErrNotFolder)
		}
	}

	node := &models.TreeNode{
		UserID:    userID,
		Title:     req.Title,
		Type:      tree.NodeTypeFolder,
		ParentID:  req.ParentID,
		SortOrder: s.now().UnixMilli(),
	}
	if err := s.nodes.Create(ctx, node); err != nil {
		return nil, err
	}

	s.logger.Info("folder created",
		"id", node.ID,
		"title", node.Title,
		"parent_id", node.ParentID,
	)
	return node.Node(), nil
}

// SoftDelete reparents nodes under the trash folder.
func (s *treeService) SoftDelete(ctx context.Context, userID string, nodeIDs []string) ([]string, error) {
	ids := dedupe(nodeIDs)
	if err := validateIDs(ids); err != nil {
		return nil, fmt.Errorf("%w: nodeIds: %v", domain.ErrValidation, err)
	}

	var moved []string
	err := s.tx.ExecTx(ctx, func(ctx context.Context) error {
		trash, err := s.ensureTrash(ctx, userID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if id == trash.ID {
				return domain.NewValidationError("the trash folder cannot be deleted")
			}
		}
		if err := s.requireOwned(ctx, userID, ids); err != nil {
			return err
		}
		if _, err := s.nodes.SetParent(ctx, userID, ids, &trash.ID, s.now().UnixMilli()); err != nil {
			return err
		}
		moved = ids
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("nodes moved to trash", "user_id", userID, "count", len(moved))
	return moved, nil
}

// Restore moves a node back to the root.
func (s *treeService) Restore(ctx context.Context, userID, nodeID string) error {
	if nodeID == "" {
		return domain.NewValidationError("nodeId is required")
	}
	return s.tx.ExecTx(ctx, func(ctx context.Context) error {
		node, err := s.nodes.GetByID(ctx, userID, nodeID)
		if err != nil {
			return err
		}
		if node.IsTrash() {
			return domain.NewValidationError("the trash folder cannot be restored")
		}
		if _, err := s.nodes.SetParent(ctx, userID, []string{nodeID}, nil, s.now().UnixMilli()); err != nil {
			return err
		}
		s.logger.Info("node restored", "id", nodeID, "user_id", userID)
		return nil
	})
}

// HardDelete removes the subtree rooted at nodeID with every problem and
// favorite its files reference.
func (s *treeService) HardDelete(ctx context.Context, userID, nodeID string) (*svc.DeleteResult, error) {
	if nodeID == "" {
		return nil, domain.NewValidationError("nodeId is required")
	}

	var result *svc.DeleteResult
	err := s.tx.ExecTx(ctx, func(ctx context.Context) error {
		target, err := s.nodes.GetByID(ctx, userID, nodeID)
		if err != nil {
			return err
		}
		if target.IsTrash() {
			return domain.NewValidationError("the trash folder cannot be deleted")
		}

		rows, err := s.nodes.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		subtree := tree.Find(buildForest(rows), nodeID)
		if subtree == nil {
			return fmt.Errorf("node %s: %w", nodeID, domain.ErrNotFound)
		}

		nodeIDs := tree.CollectNodeIDs(subtree)
		problemIDs := tree.CollectProblemIDs(subtree)

		if _, err := s.nodes.Delete(ctx, userID, nodeIDs); err != nil {
			return err
		}
		if err := s.cascadeProblems(ctx, userID, problemIDs); err != nil {
			return err
		}

		result = &svc.DeleteResult{DeletedIDs: nodeIDs, DeletedProblemIDs: problemIDs}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("subtree deleted",
		"id", nodeID,
		"user_id", userID,
		"nodes", len(result.DeletedIDs),
		"problems", len(result.DeletedProblemIDs),
	)
	return result, nil
}

// MoveProblem moves the file node of a problem into a folder.
func (s *treeService) MoveProblem(ctx context.Context, userID string, req *svc.MoveProblemRequest) error {
	if req.ProblemID == "" {
		return domain.NewValidationError("problemId is required")
	}
	return s.tx.ExecTx(ctx, func(ctx context.Context) error {
		node, err := s.nodes.GetByProblemID(ctx, userID, req.ProblemID)
		if err != nil {
			return err
		}
		return s.move(ctx, userID, node, normalizeTarget(req.TargetFolderID))
	})
}

// MoveNode moves a node, refusing self-moves and moves into its own subtree.
func (s *treeService) MoveNode(ctx context.Context, userID string, req *svc.MoveNodeRequest) error {
	if req.NodeID == "" {
		return domain.NewValidationError("nodeId is required")
	}
	return s.tx.ExecTx(ctx, func(ctx context.Context) error {
		node, err := s.nodes.GetByID(ctx, userID, req.NodeID)
		if err != nil {
			return err
		}
		return s.move(ctx, userID, node, normalizeTarget(req.TargetFolderID))
	})
}

// Reorder renumbers the whole sibling list: the listed ids first, then the
// unlisted siblings in their previous order.
func (s *treeService) Reorder(ctx context.Context, userID string, req *svc.ReorderRequest) error {
	ids := dedupe(req.OrderedIDs)
	if err := validateIDs(ids); err != nil {
		return fmt.Errorf("%w: orderedIds: %v", domain.ErrValidation, err)
	}

	return s.tx.ExecTx(ctx, func(ctx context.Context) error {
		first, err := s.nodes.GetByID(ctx, userID, ids[0])
		if err != nil {
			return err
		}
		siblings, err := s.nodes.ListChildren(ctx, userID, first.ParentID)
		if err != nil {
			return err
		}

		listed := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			listed[id] = struct{}{}
		}
		present := make(map[string]struct{}, len(siblings))
		order := append([]string(nil), ids...)
		for _, sib := range siblings {
			present[sib.ID] = struct{}{}
			if _, ok := listed[sib.ID]; !ok {
				order = append(order, sib.ID)
			}
		}
		for _, id := range ids {
			if _, ok := present[id]; ok {
				continue
			}
			// Owned elsewhere in the tree or not owned at all.
			if _, err := s.nodes.GetByID(ctx, userID, id); err != nil {
				return err
			}
			return fmt.Errorf("%w: %w", domain.ErrValidation, tree.ErrNotSiblings)
		}

		if err := s.nodes.SetSortOrders(ctx, userID, order, s.now().UnixMilli()); err != nil {
			return err
		}
		s.logger.Debug("siblings reordered", "parent_id", first.ParentID, "count", len(order))
		return nil
	})
}

// move reparents node under target (nil = root) after the structural checks.
func (s *treeService) move(ctx context.Context, userID string, node *models.TreeNode, target *string) error {
	if target != nil {
		if *target == node.ID {
			return fmt.Errorf("%w: %w", domain.ErrValidation, tree.ErrSelfMove)
		}
		if node.IsTrash() {
			return domain.NewValidationError("the trash folder stays at the root")
		}
		dest, err := s.nodes.GetByID(ctx, userID, *target)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("%w: %w", domain.ErrNotFound, tree.ErrTargetNotFound)
			}
			return err
		}
		if dest.Type != tree.NodeTypeFolder {
			return fmt.Errorf("%w: %w", domain.ErrValidation, tree.ErrNotFolder)
		}
		if err := s.validateNoCycle(ctx, userID, node.ID, dest); err != nil {
			return err
		}
	}

	if _, err := s.nodes.SetParent(ctx, userID, []string{node.ID}, target, s.now().UnixMilli()); err != nil {
		return err
	}
	s.logger.Info("node moved", "id", node.ID, "target", target)
	return nil
}

// validateNoCycle walks the ancestors of dest; meeting nodeID means dest lies
// inside the subtree being moved.
func (s *treeService) validateNoCycle(ctx context.Context, userID, nodeID string, dest *models.TreeNode) error {
	seen := map[string]struct{}{dest.ID: {}}
	current := dest
	for current.ParentID != nil {
		parentID := *current.ParentID
		if parentID == nodeID {
			return fmt.Errorf("%w: %w", domain.ErrValidation, tree.ErrCycle)
		}
		if _, ok := seen[parentID]; ok {
			// Stored rows already loop; stop rather than spin.
			return nil
		}
		seen[parentID] = struct{}{}

		parent, err := s.nodes.GetByID(ctx, userID, parentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return err
		}
		current = parent
	}
	return nil
}

// ensureTrash returns the trash folder, creating it on first use.
func (s *treeService) ensureTrash(ctx context.Context, userID string) (*models.TreeNode, error) {
	trash, err := s.nodes.FindFolder(ctx, userID, nil, tree.TrashTitle)
	if err != nil {
		return nil, err
	}
	if trash != nil {
		return trash, nil
	}

	trash = &models.TreeNode{
		UserID:    userID,
		Title:     tree.TrashTitle,
		Type:      tree.NodeTypeFolder,
		SortOrder: s.now().UnixMilli(),
	}
	if err := s.nodes.Create(ctx, trash); err != nil {
		return nil, fmt.Errorf("create trash folder: %w", err)
	}
	s.logger.Info("trash folder created", "id", trash.ID, "user_id", userID)
	return trash, nil
}

// requireOwned fails with ErrNotFound unless every id belongs to userID.
func (s *treeService) requireOwned(ctx context.Context, userID string, ids []string) error {
	count, err := s.nodes.CountOwned(ctx, userID, ids)
	if err != nil {
		return err
	}
	if count != len(ids) {
		return fmt.Errorf("%d of %d nodes: %w", len(ids)-count, len(ids), domain.ErrNotFound)
	}
	return nil
}

// cascadeProblems removes problems together with their favorites and any
// other file nodes pointing at them.
func (s *treeService) cascadeProblems(ctx context.Context, userID string, problemIDs []string) error {
	if len(problemIDs) == 0 {
		return nil
	}
	if err := s.nodes.DeleteByProblemIDs(ctx, userID, problemIDs); err != nil {
		return err
	}
	if err := s.favorites.DeleteByProblemIDs(ctx, userID, problemIDs); err != nil {
		return err
	}
	_, err := s.problems.DeleteByIDs(ctx, userID, problemIDs)
	return err
}

func validateCreateFolder(req *svc.CreateFolderRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Title,
			validation.Required,
			validation.RuneLength(1, config.MaxFolderTitleLength),
		),
	)
}

func validateIDs(ids []string) error {
	return validation.Validate(ids,
		validation.Required,
		validation.Length(1, config.MaxBatchSize),
		validation.Each(validation.Required),
	)
}

func buildForest(nodes []models.TreeNode) tree.Forest {
	rows := make([]tree.Row, len(nodes))
	for i := range nodes {
		rows[i] = nodes[i].Row()
	}
	return tree.Build(rows)
}

func normalizeTarget(id *string) *string {
	if id == nil || *id == "" {
		return nil
	}
	return id
}

// dedupe drops repeated ids, keeping first occurrences.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
