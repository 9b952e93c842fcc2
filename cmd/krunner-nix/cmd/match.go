package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:   "match <query...>",
	Short: "Query the daemon like the launcher does",
	Long:  "Sends the query to the running daemon and prints up to 10 ranked matches. Words are joined with single spaces.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMatch,
}

func runMatch(cmd *cobra.Command, args []string) error {
	client, err := requireDaemon()
	if err != nil {
		return err
	}
	result, err := client.Match(strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Print(formatMatches(result.Matches, result.Elapsed))
	return nil
}
