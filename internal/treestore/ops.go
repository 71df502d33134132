package treestore

import (
	"context"
	"fmt"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"problembox/internal/config"
	"problembox/internal/domain"
	"problembox/internal/tree"
)

// CreateFolder asks the server for the folder first and inserts it only
// once the server has assigned its id, so nothing can target a folder that
// does not exist yet. Nothing changes locally on failure.
func (s *Store) CreateFolder(ctx context.Context, title string, parentID *string) (*tree.Node, error) {
	title = strings.TrimSpace(title)
	if err := validation.Validate(title,
		validation.Required,
		validation.RuneLength(1, config.MaxFolderTitleLength),
	); err != nil {
		return nil, fmt.Errorf("%w: title: %v", domain.ErrValidation, err)
	}
	if parentID != nil {
		parent := tree.Find(s.State().Tree, *parentID)
		if parent == nil {
			return nil, tree.ErrTargetNotFound
		}
		if !parent.IsFolder() {
			return nil, tree.ErrNotFolder
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	node, err := s.remote.CreateFolder(ctx, title, parentID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	next := s.state.clone()
	next.Tree = tree.Insert(s.state.Tree, node, node.ParentID)
	s.replaceLocked(next)
	placed := tree.Find(next.Tree, node.ID)
	s.mu.Unlock()

	if placed == nil {
		// The parent vanished while the request was in flight.
		s.logger.Warn("created folder has no local parent, refetching", "node_id", node.ID)
		s.invalidate()
		return node, nil
	}
	return placed, nil
}

// SoftDelete moves a node under the trash folder.
func (s *Store) SoftDelete(ctx context.Context, nodeID string) error {
	trashID, err := s.trashID(ctx)
	if err != nil {
		return err
	}
	return s.Execute(softDelete{nodeIDs: []string{nodeID}, trashID: trashID})
}

// SoftDeleteBatch moves several nodes under the trash folder in one request.
func (s *Store) SoftDeleteBatch(ctx context.Context, nodeIDs []string) error {
	if len(nodeIDs) == 0 {
		return nil
	}
	trashID, err := s.trashID(ctx)
	if err != nil {
		return err
	}
	return s.Execute(softDelete{nodeIDs: slices.Clone(nodeIDs), trashID: trashID, batch: true})
}

// Restore moves a node back to the forest root.
func (s *Store) Restore(nodeID string) error {
	return s.Execute(restore{nodeID: nodeID})
}

// HardDelete removes a node, its subtree and the problems it references.
func (s *Store) HardDelete(nodeID string) error {
	return s.Execute(hardDelete{nodeID: nodeID})
}

// MoveProblemToFolder moves the file node of problemID. A nil target is the
// root.
func (s *Store) MoveProblemToFolder(problemID string, targetFolderID *string) error {
	return s.Execute(moveProblem{problemID: problemID, target: targetFolderID})
}

// MoveNodeToFolder moves a node. Moves into the node itself or anywhere
// below it are rejected before anything changes.
func (s *Store) MoveNodeToFolder(nodeID string, targetFolderID *string) error {
	return s.Execute(moveNode{nodeID: nodeID, target: targetFolderID})
}

// ReorderWithinParent moves fromID to the position toID holds among their
// shared parent's children. Nodes with different parents are rejected.
func (s *Store) ReorderWithinParent(fromID, toID string) error {
	if fromID == toID {
		return nil
	}
	forest := s.State().Tree
	from, to := tree.Find(forest, fromID), tree.Find(forest, toID)
	if from == nil || to == nil {
		return tree.ErrNodeNotFound
	}
	if !sameParent(from.ParentID, to.ParentID) {
		return tree.ErrNotSiblings
	}
	siblings, _ := tree.Siblings(forest, from.ParentID)
	order, ok := relocate(nodeIDs(siblings), fromID, toID)
	if !ok {
		return tree.ErrNotSiblings
	}
	return s.Execute(reorder{parentID: from.ParentID, orderedIDs: order})
}

// ReorderProblemWithinFolder reorders the file nodes of the selected folder
// by dragging one problem onto another. Folders among the children keep
// their places after the files.
func (s *Store) ReorderProblemWithinFolder(fromProblemID, toProblemID string) error {
	if fromProblemID == toProblemID {
		return nil
	}
	folderID := s.Selection().SelectedFolderID
	if folderID == nil {
		return fmt.Errorf("%w: no folder selected", domain.ErrValidation)
	}
	folder := tree.Find(s.State().Tree, *folderID)
	if !folder.IsFolder() {
		return tree.ErrTargetNotFound
	}

	var files []string
	var fromID, toID string
	for _, n := range folder.Children {
		if n.Type != tree.NodeTypeFile || n.ProblemID == nil {
			continue
		}
		files = append(files, n.ID)
		switch *n.ProblemID {
		case fromProblemID:
			fromID = n.ID
		case toProblemID:
			toID = n.ID
		}
	}
	if fromID == "" || toID == "" {
		return tree.ErrNotSiblings
	}
	order, _ := relocate(files, fromID, toID)
	return s.Execute(reorder{parentID: folderID, orderedIDs: order})
}

// DeleteProblem removes a problem, its file nodes and its favorite.
func (s *Store) DeleteProblem(problemID string) error {
	return s.Execute(deleteProblems{problemIDs: []string{problemID}})
}

// DeleteProblemsBatch removes several problems in one request.
func (s *Store) DeleteProblemsBatch(problemIDs []string) error {
	if len(problemIDs) == 0 {
		return nil
	}
	return s.Execute(deleteProblems{problemIDs: slices.Clone(problemIDs), batch: true})
}

// ToggleFavorite flips the favorite flag on the server and adopts the list
// it returns. Nothing changes locally on failure.
func (s *Store) ToggleFavorite(ctx context.Context, problemID string) ([]string, error) {
	if _, ok := s.State().Problems[problemID]; !ok {
		return nil, fmt.Errorf("problem %s: %w", problemID, domain.ErrNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	favorites, err := s.remote.ToggleFavorite(ctx, problemID)
	if err != nil {
		return nil, err
	}
	if favorites == nil {
		favorites = []string{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state.clone()
	next.Favorites = slices.Clone(favorites)
	s.replaceLocked(next)
	return favorites, nil
}

// Drop handles a tree node dragged onto another node. Within one parent it
// reorders; onto a folder elsewhere it moves; anything else is ignored.
func (s *Store) Drop(draggedID, targetID string) error {
	forest := s.State().Tree
	dragged, target := tree.Find(forest, draggedID), tree.Find(forest, targetID)
	if dragged == nil || target == nil {
		return tree.ErrNodeNotFound
	}
	if sameParent(dragged.ParentID, target.ParentID) {
		return s.ReorderWithinParent(draggedID, targetID)
	}
	if target.IsFolder() && draggedID != targetID {
		return s.MoveNodeToFolder(draggedID, &target.ID)
	}
	return nil
}

// DropProblem handles a problem dragged from the list onto a tree node.
// Only folders accept it.
func (s *Store) DropProblem(problemID, targetID string) error {
	target := tree.Find(s.State().Tree, targetID)
	if !target.IsFolder() {
		return nil
	}
	return s.MoveProblemToFolder(problemID, &target.ID)
}

// relocate removes fromID from ids and reinserts it where toID now sits.
func relocate(ids []string, fromID, toID string) ([]string, bool) {
	if !slices.Contains(ids, fromID) {
		return nil, false
	}
	next := slices.DeleteFunc(slices.Clone(ids), func(id string) bool { return id == fromID })
	at := slices.Index(next, toID)
	if at < 0 {
		return nil, false
	}
	return slices.Insert(next, at, fromID), true
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
