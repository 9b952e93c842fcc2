package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pluiedev/krunner-nix/internal/app"
	"github.com/pluiedev/krunner-nix/internal/config"
	"github.com/spf13/cobra"
)

var (
	flagConfig   string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "krunner-nix",
	Short: "Search and launch Nix packages from your launcher",
	Long:  "Indexes the Nix package catalog in a background daemon and answers launcher queries with ranked, runnable matches.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(os.Stderr)
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default $XDG_CONFIG_HOME/krunner-nix/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "log level: debug, info, warn, error")

	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(actionsCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(reloadCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(searchCmd)
}

// parseLevel maps the --log-level flag to a slog level.
func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid --log-level %q", s)
	}
	return level, nil
}

// setupLogging installs the default slog logger writing text to w.
func setupLogging(w io.Writer) error {
	level, err := parseLevel(flagLogLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return nil
}

// configPath returns --config or the default location.
func configPath() (string, error) {
	if flagConfig != "" {
		return config.ExpandPath(flagConfig)
	}
	return config.Path()
}

// loadConfig reads the config file, falling back to defaults.
func loadConfig() (*config.Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

// statePaths resolves the daemon's state directory.
func statePaths() (*app.Paths, error) {
	dir, err := config.StateDir()
	if err != nil {
		return nil, err
	}
	return app.NewPaths(dir), nil
}
