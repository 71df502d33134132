package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"problembox/internal/tree"
)

// renderTree prints the forest depth first. Files show their problem's
// difficulty and a star when favorited.
func renderTree(w io.Writer, forest tree.Forest, problems tree.ProblemMap, favorites []string) {
	var walk func(nodes tree.Forest, prefix string)
	walk = func(nodes tree.Forest, prefix string) {
		for i, n := range nodes {
			last := i == len(nodes)-1
			branch, indent := "├── ", "│   "
			if last {
				branch, indent = "└── ", "    "
			}
			fmt.Fprintf(w, "%s%s%s  %s\n", prefix, branch, label(n, problems, favorites), n.ID)
			if n.IsFolder() {
				walk(n.Children, prefix+indent)
			}
		}
	}
	walk(forest, "")
}

func label(n *tree.Node, problems tree.ProblemMap, favorites []string) string {
	if n.IsFolder() {
		return n.Title + "/"
	}
	if n.ProblemID == nil {
		return n.Title
	}
	var b strings.Builder
	b.WriteString(n.Title)
	if p, ok := problems[*n.ProblemID]; ok {
		fmt.Fprintf(&b, " [%s]", p.Difficulty)
	}
	if slices.Contains(favorites, *n.ProblemID) {
		b.WriteString(" ★")
	}
	return b.String()
}

func renderProblems(w io.Writer, problems []*tree.Problem, favorites []string) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, p := range problems {
		star := ""
		if slices.Contains(favorites, p.ID) {
			star = "★"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.Difficulty, p.CreatedAt.Format("2006-01-02"), star, p.Title)
	}
	tw.Flush()
}
