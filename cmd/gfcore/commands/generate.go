package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/livp123/gfcore/cmd/gfcore/commands/common"
)

var generateCmd = &cobra.Command{
	Use:   "generate [profile-id]",
	Short: "Compile a profile into the core config file",
	Long: `Compile a profile into the core config file.
Without an id the configured kernel profile is used, else the first profile.
Examples:
  gfcore generate
  gfcore generate 3f2a9c`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := common.GetApp(cmd.Context())
		if err != nil {
			return err
		}
		id := ""
		if len(args) == 1 {
			id = args[0]
		}
		res, err := a.Generate(cmd.Context(), id)
		if err != nil {
			return err
		}
		path := a.Files.GetPath(a.Config.GetConfig().Kernel.ConfigPath)
		if common.JSONOutput() {
			return common.PrintJSON(cmd, map[string]any{"path": path, "unresolved": res.Unresolved})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Core config written to %s\n", path)
		for _, name := range res.Unresolved {
			fmt.Fprintf(cmd.OutOrStdout(), "⚠️  Rule-set %q is referenced but not defined\n", name)
		}
		return nil
	},
}
