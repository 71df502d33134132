// Command problembox manages a problem library from the terminal. Each
// invocation loads the library, applies one change and waits for the server
// to confirm it.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"problembox/internal/client"
	"problembox/internal/config"
	"problembox/internal/treestore"
)

var (
	apiURL  string
	verbose bool

	api   *client.Client
	store *treestore.Store

	settleMu sync.Mutex
	failures []treestore.Settlement

	rootCmd = &cobra.Command{
		Use:   "problembox",
		Short: "Organize a problem library from the command line",
		Long: `problembox talks to a problembox server. Set PROBLEMBOX_API_URL and
PROBLEMBOX_TOKEN, or put them in a .env file.`,
		SilenceUsage:      true,
		PersistentPreRunE: openSession,
	}
)

func openSession(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()
	cfg := config.LoadClient()
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	if cfg.Token == "" {
		return errors.New("PROBLEMBOX_TOKEN is not set")
	}

	logger := config.NewLogger(os.Stderr, verbose)
	api = client.New(cfg.APIURL, cfg.Token)
	store = treestore.New(api,
		treestore.WithLogger(logger),
		treestore.WithTimeout(cfg.Timeout),
		treestore.WithOnSettle(func(s treestore.Settlement) {
			if s.Err == nil {
				return
			}
			settleMu.Lock()
			failures = append(failures, s)
			settleMu.Unlock()
		}),
	)
	return store.Load(cmd.Context())
}

// settle waits for background calls and reports the first rejected change.
func settle() error {
	store.Wait()
	settleMu.Lock()
	defer settleMu.Unlock()
	if len(failures) == 0 {
		return nil
	}
	f := failures[0]
	if store.Stale() {
		return fmt.Errorf("%s rejected: %w (local copy could not be refreshed)", f.Command, f.Err)
	}
	return fmt.Errorf("%s rejected: %w", f.Command, f.Err)
}

func main() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "server URL (overrides PROBLEMBOX_API_URL)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
	registerCommands(rootCmd)

	slog.SetDefault(config.NewLogger(os.Stderr, false))
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
