package cmd

import (
	"fmt"

	"github.com/pluiedev/krunner-nix/internal/adapters/socket"
	"github.com/pluiedev/krunner-nix/internal/domain/match"
	"github.com/spf13/cobra"
)

var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "List the actions every match offers",
	Long:  "Lists action ids, labels, and icons. No daemon required.",
	RunE:  runActions,
}

func runActions(cmd *cobra.Command, args []string) error {
	var infos []socket.ActionInfo
	for _, a := range match.AllActions() {
		info := a.Info()
		infos = append(infos, socket.ActionInfo{ID: info.ID, Text: info.Text, Icon: info.Icon})
	}
	fmt.Print(formatActions(infos))
	return nil
}
