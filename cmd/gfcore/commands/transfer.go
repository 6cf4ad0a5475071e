package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/livp123/gfcore/cmd/gfcore/commands/common"
	"github.com/livp123/gfcore/internal/transfer"
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export profiles, subscriptions, rulesets and plugins",
	Long: `Export every store into one JSON document, written to file or stdout.
Examples:
  gfcore export backup.json
  gfcore export > backup.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := common.GetApp(cmd.Context())
		if err != nil {
			return err
		}
		doc := a.Transfer.Export()
		if len(args) == 0 {
			return transfer.Encode(cmd.OutOrStdout(), doc)
		}

		f, err := os.Create(args[0])
		if err != nil {
			return err
		}
		if err := transfer.Encode(f, doc); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Exported %d profiles, %d subscriptions, %d rulesets, %d plugins to %s\n",
			len(doc.Profiles), len(doc.Subscribes), len(doc.Rulesets), len(doc.Plugins), args[0])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a document written by export",
	Long: `Import a document written by export. Without section flags every
section present in the document is imported. Sections replace their store
unless --merge is given, which only adds records whose id is missing.
Examples:
  gfcore import backup.json
  gfcore import backup.json --merge --plugins`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		doc, err := transfer.Decode(f)
		if err != nil {
			return err
		}

		a, err := common.GetApp(cmd.Context())
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		opts := transfer.Options{}
		opts.Profiles, _ = flags.GetBool("profiles")
		opts.Subscribes, _ = flags.GetBool("subscribes")
		opts.Rulesets, _ = flags.GetBool("rulesets")
		opts.Plugins, _ = flags.GetBool("plugins")
		if !opts.Profiles && !opts.Subscribes && !opts.Rulesets && !opts.Plugins {
			opts = transfer.AllSections()
		}
		opts.Merge, _ = flags.GetBool("merge")

		if !opts.Merge && !common.AskConfirmation("Replace the selected stores with the imported document?") {
			fmt.Fprintln(cmd.OutOrStdout(), "Import cancelled")
			return nil
		}

		sum, err := a.Transfer.Import(cmd.Context(), doc, opts)
		if err != nil {
			return err
		}
		if common.JSONOutput() {
			return common.PrintJSON(cmd, sum)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Imported %d profiles, %d subscriptions, %d rulesets, %d plugins\n",
			sum.Profiles, sum.Subscribes, sum.Rulesets, sum.Plugins)
		return nil
	},
}

func init() {
	importCmd.Flags().Bool("merge", false, "Only add records whose id is missing")
	importCmd.Flags().Bool("profiles", false, "Import profiles")
	importCmd.Flags().Bool("subscribes", false, "Import subscriptions")
	importCmd.Flags().Bool("rulesets", false, "Import rulesets")
	importCmd.Flags().Bool("plugins", false, "Import plugins")
}
