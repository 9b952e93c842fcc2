package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pluiedev/krunner-nix/internal/adapters/socket"
	"github.com/pluiedev/krunner-nix/internal/app"
	"github.com/spf13/cobra"
)

var flagLogFile bool

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the krunner-nix daemon",
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Load the catalog and serve launcher requests",
	RunE:  runDaemonStart,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the daemon",
	RunE:  runDaemonStop,
}

func init() {
	daemonStartCmd.Flags().BoolVar(&flagLogFile, "log-file", false, "also write logs to the state dir (log/daemon.log)")
	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStopCmd)
}

func runDaemonStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	paths, err := statePaths()
	if err != nil {
		return err
	}
	if err := paths.EnsureDirs(); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	if flagLogFile {
		f, err := os.OpenFile(paths.DaemonLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		if err := setupLogging(io.MultiWriter(os.Stderr, f)); err != nil {
			return err
		}
	}

	sockPath := app.SocketPathFor(cfg)

	// Check if already running
	if socket.NewClient(sockPath).Ping() {
		fmt.Println("⚡ daemon already running")
		return nil
	}

	release, err := app.AcquireLock(paths.Lock)
	if err != nil {
		return err
	}
	defer release()

	d, err := app.NewDaemon(cfg, paths, slog.Default())
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}

	// Ctrl-C during a slow `nix search` aborts the load.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("⚡ loading catalog from %s...\n", app.SourceFor(cfg).Key())
	snap, err := d.Load(ctx)
	if err != nil {
		d.Stop()
		return fmt.Errorf("load catalog: %w", err)
	}
	if err := d.Start(); err != nil {
		d.Stop()
		return err
	}

	fmt.Printf("⚡ krunner-nix daemon started at %s (%d programs)\n", sockPath, snap.Catalog.Len())

	// Wait for shutdown signal or a remote stop
	select {
	case <-ctx.Done():
	case <-d.Server.ShutdownCh():
	}

	fmt.Println("\n⚡ shutting down...")
	return d.Stop()
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	client, err := daemonClient()
	if err != nil {
		return err
	}

	if !client.Ping() {
		fmt.Println("⚡ daemon is not running")
		return nil
	}

	if err := client.Shutdown(); err != nil {
		return err
	}

	fmt.Println("⚡ daemon stopped")
	return nil
}

// daemonClient returns a client for the configured socket.
func daemonClient() (*socket.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return socket.NewClient(app.SocketPathFor(cfg)), nil
}

// requireDaemon returns a client, or an error telling the user to start the daemon.
func requireDaemon() (*socket.Client, error) {
	client, err := daemonClient()
	if err != nil {
		return nil, err
	}
	if !client.Ping() {
		return nil, fmt.Errorf("daemon is not running\n  → start it:  krunner-nix daemon start")
	}
	return client, nil
}

func pingDaemon(sockPath string) bool {
	return socket.NewClient(sockPath).Ping()
}
