package tree

import (
	"cmp"
	"slices"
)

// VisibleProblems derives the problem list shown for a folder selection and
// difficulty filter. A nil selection means every problem, newest first.
// A folder selection lists the problems under that folder in tree order;
// ids missing from problems are skipped, and an unknown folder yields nothing.
// The result depends only on the arguments.
func VisibleProblems(forest Forest, problems ProblemMap, selectedFolderID *string, filter DifficultyFilter) []*Problem {
	var candidates []*Problem
	if selectedFolderID == nil {
		candidates = make([]*Problem, 0, len(problems))
		for _, p := range problems {
			candidates = append(candidates, p)
		}
		slices.SortFunc(candidates, func(a, b *Problem) int {
			if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})
	} else {
		for _, id := range CollectProblemIDs(Find(forest, *selectedFolderID)) {
			if p, ok := problems[id]; ok {
				candidates = append(candidates, p)
			}
		}
	}

	if filter == "" || filter == FilterAll {
		return candidates
	}
	visible := make([]*Problem, 0, len(candidates))
	for _, p := range candidates {
		if p.Difficulty == Difficulty(filter) {
			visible = append(visible, p)
		}
	}
	return visible
}
