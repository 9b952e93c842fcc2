package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pluiedev/krunner-nix/internal/adapters/nix"
	"github.com/pluiedev/krunner-nix/internal/adapters/terminal"
	"github.com/pluiedev/krunner-nix/internal/app"
	"github.com/spf13/cobra"
)

var flagOfflineFile string

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "One-shot search without a daemon",
	Long: "Loads the catalog in-process, answers one query, and exits. " +
		"With --offline-file the catalog is read from a saved `nix search --json` dump.",
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&flagOfflineFile, "offline-file", "f", "", "catalog JSON file to search instead of running nix search")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	source := app.SourceFor(cfg)
	if flagOfflineFile != "" {
		source = nix.NewFileSource(flagOfflineFile)
	}

	a, err := app.New(app.Config{
		Source:  source,
		Spawner: terminal.NewSpawner(cfg.Terminal, cfg.NixCommand, slog.Default()),
		Flake:   cfg.Flake,
		Logger:  slog.Default(),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	snap, err := a.Load(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	query := strings.Join(args, " ")
	hits := a.Match(query)
	fmt.Print(formatMatches(hits, fmt.Sprintf("%d programs", snap.Catalog.Len())))
	return nil
}
