package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/livp123/gfcore/cmd/gfcore/commands/common"
	"github.com/livp123/gfcore/internal/utils/logger"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the log file",
	Long: `Print the last lines of the log file and optionally follow it.
Examples:
  gfcore logs -n 100
  gfcore logs -f`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := common.GetApp(cmd.Context())
		if err != nil {
			return err
		}
		cfg := a.Config.GetConfig()
		logging := cfg.Logging.Resolve(cfg.RootDir)
		if logging.Path == "" {
			return fmt.Errorf("file logging is not configured (logging.path is empty)")
		}
		n, _ := cmd.Flags().GetInt("lines")
		follow, _ := cmd.Flags().GetBool("follow")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return logger.Tail(ctx, logging.Path, n, follow, cmd.OutOrStdout())
	},
}

func init() {
	logsCmd.Flags().IntP("lines", "n", 50, "Number of lines to show")
	logsCmd.Flags().BoolP("follow", "f", false, "Keep printing new lines")
}
