package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Re-fetch the catalog and swap it in without restarting",
	Long:  "Runs the catalog source again (bypassing the cache). Queries keep using the old catalog until the new one is indexed; a failed reload leaves it in place.",
	RunE:  runReload,
}

func runReload(cmd *cobra.Command, args []string) error {
	client, err := requireDaemon()
	if err != nil {
		return err
	}

	fmt.Println("⚡ reloading catalog...")
	result, err := client.Reload()
	if err != nil {
		return err
	}
	fmt.Print(formatReload(result))
	return nil
}
