package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/livp123/gfcore/cmd/gfcore/commands/common"
	"github.com/livp123/gfcore/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Show the current version of gfcore`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if common.JSONOutput() {
			return common.PrintJSON(cmd, map[string]string{
				"version":   version.Version,
				"commit":    version.Commit,
				"buildDate": version.BuildDate,
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
		return nil
	},
}
