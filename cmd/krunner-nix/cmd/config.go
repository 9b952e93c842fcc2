package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pluiedev/krunner-nix/internal/app"
	"github.com/pluiedev/krunner-nix/internal/config"
	"github.com/spf13/cobra"
)

var flagInitConfig bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration",
	Long:  "Shows the config file, catalog source, state paths, socket path, and daemon status. No daemon required.",
	RunE:  runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&flagInitConfig, "init", false, "write the default config file if none exists")
}

func runConfig(cmd *cobra.Command, args []string) error {
	path, err := configPath()
	if err != nil {
		return err
	}

	if flagInitConfig {
		wrote, err := initConfigFile(path)
		if err != nil {
			return err
		}
		if wrote {
			fmt.Printf("⚡ wrote %s\n", path)
		} else {
			fmt.Printf("⚡ %s already exists\n", path)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	paths, err := statePaths()
	if err != nil {
		return err
	}
	sockPath := app.SocketPathFor(cfg)
	running := pingDaemon(sockPath)

	fmt.Print(formatConfig(path, cfg, paths, sockPath, running))
	return nil
}

// initConfigFile writes the default config to path unless a file is already
// there. It reports whether it wrote one.
func initConfigFile(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, fs.ErrNotExist):
		return false, fmt.Errorf("check config %s: %w", path, err)
	}
	if err := config.Save(path, config.DefaultConfig()); err != nil {
		return false, err
	}
	return true, nil
}
