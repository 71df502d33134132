package treestore

import (
	"fmt"
	"maps"

	"problembox/internal/domain"
	"problembox/internal/tree"
)

// Selection is view state for one session. It is never sent to the server.
type Selection struct {
	SelectedFolderID *string // nil shows every problem
	Filter           tree.DifficultyFilter
	Expanded         map[string]bool
	CurrentProblemID *string
}

func newSelection() Selection {
	return Selection{Filter: tree.FilterAll, Expanded: map[string]bool{}}
}

func (s Selection) clone() Selection {
	c := s
	c.Expanded = maps.Clone(s.Expanded)
	if c.Expanded == nil {
		c.Expanded = map[string]bool{}
	}
	return c
}

// reconcile clears the current problem once it no longer exists. A selected
// folder that disappeared stays selected and simply shows nothing.
func (s Selection) reconcile(st *State) Selection {
	if s.CurrentProblemID == nil {
		return s
	}
	if _, ok := st.Problems[*s.CurrentProblemID]; ok {
		return s
	}
	c := s.clone()
	c.CurrentProblemID = nil
	return c
}

// Selection returns a copy of the view state.
func (s *Store) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.clone()
}

// SelectFolder narrows the problem list to a folder; nil selects everything.
func (s *Store) SelectFolder(folderID *string) {
	s.updateSelection(func(sel *Selection) {
		if folderID == nil {
			sel.SelectedFolderID = nil
			return
		}
		id := *folderID
		sel.SelectedFolderID = &id
	})
}

// SetDifficultyFilter sets the difficulty filter.
func (s *Store) SetDifficultyFilter(f tree.DifficultyFilter) error {
	if !f.Valid() {
		return fmt.Errorf("%w: unknown difficulty filter %q", domain.ErrValidation, f)
	}
	s.updateSelection(func(sel *Selection) { sel.Filter = f })
	return nil
}

// ToggleExpanded flips whether a folder is shown expanded.
func (s *Store) ToggleExpanded(folderID string) {
	s.updateSelection(func(sel *Selection) {
		if sel.Expanded[folderID] {
			delete(sel.Expanded, folderID)
		} else {
			sel.Expanded[folderID] = true
		}
	})
}

// SelectProblem marks the problem being viewed.
func (s *Store) SelectProblem(problemID string) error {
	if _, ok := s.State().Problems[problemID]; !ok {
		return fmt.Errorf("problem %s: %w", problemID, domain.ErrNotFound)
	}
	s.updateSelection(func(sel *Selection) {
		id := problemID
		sel.CurrentProblemID = &id
	})
	return nil
}

// VisibleProblems lists the problems for the current selection and filter.
func (s *Store) VisibleProblems() []*tree.Problem {
	s.mu.Lock()
	st, sel := s.state, s.sel
	s.mu.Unlock()
	return tree.VisibleProblems(st.Tree, st.Problems, sel.SelectedFolderID, sel.Filter)
}

func (s *Store) updateSelection(fn func(*Selection)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.sel.clone()
	fn(&next)
	s.sel = next
}
