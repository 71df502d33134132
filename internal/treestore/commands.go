package treestore

import (
	"context"
	"fmt"
	"slices"

	"problembox/internal/domain"
	"problembox/internal/tree"
)

// Command is one optimistic mutation. Apply derives the next local state
// without side effects; Remote mirrors the change to the server.
type Command interface {
	Name() string
	Apply(st *State) (*State, error)
	Remote(ctx context.Context, r Remote) error
}

var errTrashFixed = fmt.Errorf("%w: the trash folder cannot be moved or deleted", domain.ErrValidation)

type softDelete struct {
	nodeIDs []string
	trashID string
	batch   bool
}

func (c softDelete) Name() string {
	if c.batch {
		return "soft_delete_batch"
	}
	return "soft_delete"
}

func (c softDelete) Apply(st *State) (*State, error) {
	if len(c.nodeIDs) == 0 {
		return nil, fmt.Errorf("%w: no nodes to delete", domain.ErrValidation)
	}
	forest := st.Tree
	for _, id := range c.nodeIDs {
		if id == c.trashID {
			return nil, errTrashFixed
		}
		if err := tree.CanMove(forest, id, &c.trashID); err != nil {
			return nil, err
		}
		forest = tree.Move(forest, id, &c.trashID)
	}
	next := st.clone()
	next.Tree = forest
	return next, nil
}

func (c softDelete) Remote(ctx context.Context, r Remote) error {
	if c.batch {
		_, err := r.SoftDeleteBatch(ctx, c.nodeIDs)
		return err
	}
	_, err := r.SoftDelete(ctx, c.nodeIDs[0])
	return err
}

type restore struct {
	nodeID string
}

func (restore) Name() string { return "restore" }

func (c restore) Apply(st *State) (*State, error) {
	node := tree.Find(st.Tree, c.nodeID)
	if node == nil {
		return nil, tree.ErrNodeNotFound
	}
	if node.IsTrash() {
		return nil, errTrashFixed
	}
	next := st.clone()
	next.Tree = tree.Move(st.Tree, c.nodeID, nil)
	return next, nil
}

func (c restore) Remote(ctx context.Context, r Remote) error {
	return r.Restore(ctx, c.nodeID)
}

// hardDelete removes a subtree and every problem its files reference, along
// with other file nodes and favorites pointing at those problems.
type hardDelete struct {
	nodeID string
}

func (hardDelete) Name() string { return "hard_delete" }

func (c hardDelete) Apply(st *State) (*State, error) {
	node := tree.Find(st.Tree, c.nodeID)
	if node == nil {
		return nil, tree.ErrNodeNotFound
	}
	if node.IsTrash() {
		return nil, errTrashFixed
	}
	next := st.clone()
	next.Tree = tree.Remove(st.Tree, toSet(tree.CollectNodeIDs(node)))
	return withoutProblems(next, tree.CollectProblemIDs(node)), nil
}

func (c hardDelete) Remote(ctx context.Context, r Remote) error {
	return r.HardDelete(ctx, c.nodeID)
}

type moveProblem struct {
	problemID string
	target    *string
}

func (moveProblem) Name() string { return "move_problem" }

func (c moveProblem) Apply(st *State) (*State, error) {
	node := tree.FindByProblemID(st.Tree, c.problemID)
	if node == nil {
		return nil, tree.ErrNodeNotFound
	}
	if err := tree.CanMove(st.Tree, node.ID, c.target); err != nil {
		return nil, err
	}
	next := st.clone()
	next.Tree = tree.Move(st.Tree, node.ID, c.target)
	return next, nil
}

func (c moveProblem) Remote(ctx context.Context, r Remote) error {
	return r.MoveProblem(ctx, c.problemID, c.target)
}

type moveNode struct {
	nodeID string
	target *string
}

func (moveNode) Name() string { return "move_node" }

func (c moveNode) Apply(st *State) (*State, error) {
	if c.target != nil && *c.target == c.nodeID {
		return nil, tree.ErrSelfMove
	}
	node := tree.Find(st.Tree, c.nodeID)
	if node == nil {
		return nil, tree.ErrNodeNotFound
	}
	if node.IsTrash() && c.target != nil {
		return nil, errTrashFixed
	}
	// CanMove searches the whole subtree, not just direct children.
	if err := tree.CanMove(st.Tree, c.nodeID, c.target); err != nil {
		return nil, err
	}
	next := st.clone()
	next.Tree = tree.Move(st.Tree, c.nodeID, c.target)
	return next, nil
}

func (c moveNode) Remote(ctx context.Context, r Remote) error {
	return r.MoveNode(ctx, c.nodeID, c.target)
}

// reorder puts orderedIDs first among the children of parentID. Siblings not
// listed keep their relative order after them.
type reorder struct {
	parentID   *string
	orderedIDs []string
}

func (reorder) Name() string { return "reorder" }

func (c reorder) Apply(st *State) (*State, error) {
	if len(c.orderedIDs) == 0 {
		return nil, fmt.Errorf("%w: nothing to reorder", domain.ErrValidation)
	}
	siblings, ok := tree.Siblings(st.Tree, c.parentID)
	if !ok {
		return nil, tree.ErrTargetNotFound
	}
	known := toSet(nodeIDs(siblings))
	for _, id := range c.orderedIDs {
		if _, ok := known[id]; !ok {
			return nil, tree.ErrNotSiblings
		}
	}
	next := st.clone()
	next.Tree = tree.ReorderSiblings(st.Tree, c.parentID, c.orderedIDs)
	return next, nil
}

func (c reorder) Remote(ctx context.Context, r Remote) error {
	return r.Reorder(ctx, c.orderedIDs)
}

type deleteProblems struct {
	problemIDs []string
	batch      bool
}

func (c deleteProblems) Name() string {
	if c.batch {
		return "delete_problems_batch"
	}
	return "delete_problem"
}

func (c deleteProblems) Apply(st *State) (*State, error) {
	if len(c.problemIDs) == 0 {
		return nil, fmt.Errorf("%w: no problems to delete", domain.ErrValidation)
	}
	known := false
	for _, id := range c.problemIDs {
		if _, ok := st.Problems[id]; ok {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("problem %s: %w", c.problemIDs[0], domain.ErrNotFound)
	}
	return withoutProblems(st.clone(), c.problemIDs), nil
}

func (c deleteProblems) Remote(ctx context.Context, r Remote) error {
	if c.batch {
		return r.DeleteProblemsBatch(ctx, c.problemIDs)
	}
	return r.DeleteProblem(ctx, c.problemIDs[0])
}

// withoutProblems drops ids from the problem map, the favorites and any file
// node still pointing at them. next must be a fresh clone.
func withoutProblems(next *State, ids []string) *State {
	if len(ids) == 0 {
		return next
	}
	drop := toSet(ids)
	next.Tree = tree.PruneByProblemIDs(next.Tree, drop)

	problems := make(tree.ProblemMap, len(next.Problems))
	for id, p := range next.Problems {
		if _, gone := drop[id]; !gone {
			problems[id] = p
		}
	}
	next.Problems = problems

	next.Favorites = slices.DeleteFunc(slices.Clone(next.Favorites), func(id string) bool {
		_, gone := drop[id]
		return gone
	})
	return next
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func nodeIDs(f tree.Forest) []string {
	ids := make([]string, len(f))
	for i, n := range f {
		ids[i] = n.ID
	}
	return ids
}
