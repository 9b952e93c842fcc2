package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagAction string

var runCmd = &cobra.Command{
	Use:   "run <id>",
	Short: "Launch a program through the daemon",
	Long:  "Opens a terminal running `nix run` (default) or `nix shell` (--action shell) for the program id.",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVarP(&flagAction, "action", "a", "", "action id: run or shell (default run)")
}

func runRun(cmd *cobra.Command, args []string) error {
	client, err := requireDaemon()
	if err != nil {
		return err
	}
	result, err := client.Run(args[0], flagAction)
	if err != nil {
		return err
	}
	fmt.Printf("⚡ nix %s %s\n", result.Verb, result.Target)
	return nil
}
