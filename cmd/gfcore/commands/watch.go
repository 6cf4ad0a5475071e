package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/livp123/gfcore/cmd/gfcore/commands/common"
	"github.com/livp123/gfcore/internal/plugins/watcher"
	"github.com/livp123/gfcore/internal/utils/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Hot-reload File plugins when their source changes",
	Long: `Watch the directories of every File plugin and reload a plugin when
its source file is written. Runs until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := common.GetApp(cmd.Context())
		if err != nil {
			return err
		}
		debounce, _ := cmd.Flags().GetDuration("debounce")
		out := cmd.OutOrStdout()
		log := logger.Get(cmd.Context())

		w := a.NewWatcher(
			watcher.WithDebounce(debounce),
			watcher.OnReload(func(id string, err error) {
				if err != nil {
					log.Warnf("[WATCH] Reload of %s failed: %v", id, err)
					return
				}
				fmt.Fprintf(out, "🔄 Reloaded %s\n", id)
			}),
		)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer w.Stop()

		fmt.Fprintln(out, "👀 Watching plugin sources, press Ctrl+C to stop")
		<-ctx.Done()
		return nil
	},
}

func init() {
	watchCmd.Flags().Duration("debounce", 500*time.Millisecond, "Quiet period before a changed file is reloaded")
}
