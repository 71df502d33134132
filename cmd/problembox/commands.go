package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	svc "problembox/internal/domain/services/library"
	"problembox/internal/tree"
)

var (
	mkdirParent string

	lsFolder     string
	lsDifficulty string

	importSubject    string
	importParent     string
	importParentOnly bool
	importModel      string

	profileName   string
	profileAvatar string
)

func registerCommands(root *cobra.Command) {
	treeCmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the folder tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := store.State()
			renderTree(cmd.OutOrStdout(), st.Tree, st.Problems, st.Favorites)
			return nil
		},
	}

	lsCmd := &cobra.Command{
		Use:   "ls",
		Short: "List problems, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if lsFolder != "" {
				store.SelectFolder(&lsFolder)
			}
			if err := store.SetDifficultyFilter(tree.DifficultyFilter(lsDifficulty)); err != nil {
				return err
			}
			renderProblems(cmd.OutOrStdout(), store.VisibleProblems(), store.State().Favorites)
			return nil
		},
	}
	lsCmd.Flags().StringVar(&lsFolder, "folder", "", "only problems under this folder")
	lsCmd.Flags().StringVar(&lsDifficulty, "difficulty", string(tree.FilterAll), "all, easy, medium or hard")

	mkdirCmd := &cobra.Command{
		Use:   "mkdir TITLE",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			node, err := store.CreateFolder(cmd.Context(), args[0], optional(mkdirParent))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), node.ID)
			return nil
		},
	}
	mkdirCmd.Flags().StringVar(&mkdirParent, "parent", "", "parent folder id (default: root)")

	mvCmd := &cobra.Command{
		Use:   "mv NODE [FOLDER]",
		Short: "Move a node into a folder, or to the root when FOLDER is omitted",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(store.MoveNodeToFolder(args[0], targetArg(args)))
		},
	}

	mvProblemCmd := &cobra.Command{
		Use:   "mv-problem PROBLEM [FOLDER]",
		Short: "Move a problem's file into a folder, or to the root",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(store.MoveProblemToFolder(args[0], targetArg(args)))
		},
	}

	rmCmd := &cobra.Command{
		Use:   "rm NODE...",
		Short: "Move nodes to the trash",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return mutate(store.SoftDelete(cmd.Context(), args[0]))
			}
			return mutate(store.SoftDeleteBatch(cmd.Context(), args))
		},
	}

	restoreCmd := &cobra.Command{
		Use:   "restore NODE",
		Short: "Move a node from the trash back to the root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(store.Restore(args[0]))
		},
	}

	purgeCmd := &cobra.Command{
		Use:   "purge NODE",
		Short: "Delete a node, everything below it and the problems it holds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(store.HardDelete(args[0]))
		},
	}

	reorderCmd := &cobra.Command{
		Use:   "reorder NODE TARGET",
		Short: "Move NODE to TARGET's position among their siblings",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(store.ReorderWithinParent(args[0], args[1]))
		},
	}

	dropCmd := &cobra.Command{
		Use:   "drop NODE TARGET",
		Short: "Drop NODE onto TARGET: reorder among siblings or move into a folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(store.Drop(args[0], args[1]))
		},
	}

	rmProblemCmd := &cobra.Command{
		Use:   "rm-problem PROBLEM...",
		Short: "Delete problems and their files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return mutate(store.DeleteProblem(args[0]))
			}
			return mutate(store.DeleteProblemsBatch(args))
		},
	}

	favCmd := &cobra.Command{
		Use:   "fav PROBLEM",
		Short: "Toggle a favorite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			favorites, err := store.ToggleFavorite(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d favorites\n", len(favorites))
			return nil
		},
	}

	importCmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import questions separated by blank lines (FILE may be -)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := readItems(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			problems, err := api.Import(cmd.Context(), &svc.ImportRequest{
				Items:           items,
				ParentFolderID:  optional(importParent),
				Subject:         importSubject,
				ForceParentOnly: importParentOnly,
				ClassifyModel:   importModel,
			})
			if err != nil {
				return err
			}
			for _, p := range problems {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", p.ID, p.Title)
			}
			return nil
		},
	}
	importCmd.Flags().StringVar(&importSubject, "subject", "", "subject the questions belong to")
	importCmd.Flags().StringVar(&importParent, "parent", "", "folder to file the questions under")
	importCmd.Flags().BoolVar(&importParentOnly, "parent-only", false, "skip classification into sub-folders")
	importCmd.Flags().StringVar(&importModel, "model", "", "classification model id")

	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the profile, or edit it with --name and --avatar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile := store.State().Profile
			var req svc.UpdateProfileRequest
			if cmd.Flags().Changed("name") {
				req.Name = &profileName
			}
			if cmd.Flags().Changed("avatar") {
				req.Avatar = &profileAvatar
			}
			if req.Name != nil || req.Avatar != nil {
				updated, err := api.UpdateProfile(cmd.Context(), &req)
				if err != nil {
					return err
				}
				profile = updated
			}
			if profile == nil {
				return fmt.Errorf("no profile loaded")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> plan=%s\n", profile.Name, profile.Email, profile.Plan)
			return nil
		},
	}
	profileCmd.Flags().StringVar(&profileName, "name", "", "display name")
	profileCmd.Flags().StringVar(&profileAvatar, "avatar", "", "avatar URL (empty clears it)")

	root.AddCommand(treeCmd, lsCmd, mkdirCmd, mvCmd, mvProblemCmd, rmCmd, restoreCmd,
		purgeCmd, reorderCmd, dropCmd, rmProblemCmd, favCmd, importCmd, profileCmd)
}

// mutate reports a local rejection, or else waits for the server's verdict.
func mutate(err error) error {
	if err != nil {
		return err
	}
	return settle()
}

func targetArg(args []string) *string {
	if len(args) < 2 {
		return nil
	}
	return optional(args[1])
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// readItems splits the input into questions at blank lines.
func readItems(stdin io.Reader, path string) ([]svc.ImportItem, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return splitItems(r)
}

func splitItems(r io.Reader) ([]svc.ImportItem, error) {
	var items []svc.ImportItem
	var buf []string
	flush := func() {
		if content := strings.TrimSpace(strings.Join(buf, "\n")); content != "" {
			items = append(items, svc.ImportItem{Content: content})
		}
		buf = buf[:0]
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		buf = append(buf, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	if len(items) == 0 {
		return nil, fmt.Errorf("no questions found")
	}
	return items, nil
}
