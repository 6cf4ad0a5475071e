package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/livp123/gfcore/cmd/gfcore/commands/common"
	"github.com/livp123/gfcore/internal/plugins/types"
)

var hubCmd = &cobra.Command{
	Use:   "hub",
	Short: "Browse and refresh the Plugin-Hub",
}

var hubUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Download the Plugin-Hub index",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := common.GetApp(cmd.Context())
		if err != nil {
			return err
		}
		if err := a.Hub.Refresh(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Plugin-Hub updated: %d plugins\n", len(a.Hub.List()))
		return nil
	},
}

var hubListCmd = &cobra.Command{
	Use:   "list",
	Short: "List Plugin-Hub entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := common.GetApp(cmd.Context())
		if err != nil {
			return err
		}
		list := a.Hub.List()
		if common.JSONOutput() {
			if list == nil {
				list = []*types.Plugin{}
			}
			return common.PrintJSON(cmd, list)
		}
		if len(list) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Plugin-Hub is empty, run 'gfcore hub update' first.")
			return nil
		}

		rows := make([][]string, 0, len(list))
		for _, p := range list {
			installed := ""
			if local, ok := a.Plugins.Get(p.ID); ok {
				installed = local.Version
			}
			triggers := make([]string, len(p.Triggers))
			for i, t := range p.Triggers {
				triggers[i] = string(t)
			}
			rows = append(rows, []string{p.ID, p.Name, p.Version, installed, strings.Join(triggers, ",")})
		}
		fmt.Fprintln(cmd.OutOrStdout(), common.RenderTable(
			[]string{"ID", "NAME", "VERSION", "INSTALLED", "TRIGGERS"}, rows, nil))
		return nil
	},
}

func init() {
	hubCmd.AddCommand(hubUpdateCmd, hubListCmd)
}
