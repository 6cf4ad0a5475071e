package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/livp123/gfcore/cmd/gfcore/commands/common"
	"github.com/livp123/gfcore/internal/app"
	"github.com/livp123/gfcore/internal/plugins/executor"
	"github.com/livp123/gfcore/internal/plugins/query"
	"github.com/livp123/gfcore/internal/plugins/types"
	apperrors "github.com/livp123/gfcore/pkg/errors"
)

var pluginCmd = &cobra.Command{
	Use:   "plugin",
	Short: "Manage plugins",
	Long:  `Manage plugins (list/add/remove/edit/update/run/trigger/reload)`,
}

var pluginListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed plugins",
	Long: `List installed plugins, optionally filtered by an expression.
Fields: ID Name Version Type Path URL Status Disabled HasUI FromHub Tags
Triggers Deprecated NewVersion HasSettings; helpers: HasTrigger(t) HasTag(tag).
Examples:
  gfcore plugin list
  gfcore plugin list --where '!Disabled && HasTrigger("on::generate")'
  gfcore plugin list --where 'NewVersion'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := common.GetApp(cmd.Context())
		if err != nil {
			return err
		}
		where, _ := cmd.Flags().GetString("where")
		var f *query.Filter
		if where != "" {
			if f, err = query.Compile(where); err != nil {
				return err
			}
		}
		list, err := query.Select(f, a.Plugins.List(), a.Hub)
		if err != nil {
			return err
		}
		if common.JSONOutput() {
			if list == nil {
				list = []*types.Plugin{}
			}
			return common.PrintJSON(cmd, list)
		}
		common.ShowPlugins(cmd.OutOrStdout(), list, a.Hub)
		return nil
	},
}

var pluginAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Install a plugin",
	Long: `Install a plugin from the Plugin-Hub or from explicit fields.
Examples:
  gfcore plugin add --from-hub plugin-sync-config
  gfcore plugin add --name Tagger --type File --path data/plugins/tag.js --trigger on::generate`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := common.GetApp(cmd.Context())
		if err != nil {
			return err
		}

		var p *types.Plugin
		if hubID, _ := cmd.Flags().GetString("from-hub"); hubID != "" {
			found, ok := a.Hub.Find(hubID)
			if !ok {
				return apperrors.NewNotFoundError(hubID)
			}
			p = found
		} else {
			p = &types.Plugin{Version: "v1.0.0", Type: types.SourceFile}
			if err := applyPluginFlags(cmd, p); err != nil {
				return err
			}
		}

		installed, err := a.Updater.Install(cmd.Context(), p)
		if err != nil {
			return err
		}
		if common.JSONOutput() {
			return common.PrintJSON(cmd, installed)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Plugin added: %s (%s)\n", installed.Name, installed.ID)
		return nil
	},
}

var pluginRemoveCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm", "del"},
	Short:   "Remove a plugin",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := common.GetApp(cmd.Context())
		if err != nil {
			return err
		}
		if err := a.Plugins.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Plugin removed: %s\n", args[0])
		return nil
	},
}

var pluginEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a plugin record or its settings",
	Long: `Edit the fields of a plugin record, or store user settings for it.
Examples:
  gfcore plugin edit local-tag --disable
  gfcore plugin edit local-tag --trigger on::generate --trigger on::startup
  gfcore plugin edit local-tag --set Token=abc --set Retries=3
  gfcore plugin edit local-tag --reset-settings`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := common.GetApp(cmd.Context())
		if err != nil {
			return err
		}
		id := args[0]
		p, ok := a.Plugins.Get(id)
		if !ok {
			return apperrors.NewNotFoundError(id)
		}

		if err := applyPluginFlags(cmd, p); err != nil {
			return err
		}
		if cmd.Flags().Changed("enable") || cmd.Flags().Changed("disable") {
			enable, _ := cmd.Flags().GetBool("enable")
			disable, _ := cmd.Flags().GetBool("disable")
			if enable == disable {
				return fmt.Errorf("use exactly one of --enable or --disable")
			}
			p.Disabled = disable
		}
		if err := a.Plugins.Edit(cmd.Context(), id, p); err != nil {
			return err
		}

		if reset, _ := cmd.Flags().GetBool("reset-settings"); reset {
			if err := a.Config.SetPluginSettings(id, nil); err != nil {
				return err
			}
		}
		if pairs, _ := cmd.Flags().GetStringArray("set"); len(pairs) > 0 {
			values, _ := a.Config.PluginSettings(id)
			if values == nil {
				values = map[string]any{}
			}
			for _, pair := range pairs {
				key, v, err := parseAssignment(pair)
				if err != nil {
					return err
				}
				values[key] = v
			}
			if err := a.Config.SetPluginSettings(id, values); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Plugin updated: %s\n", p.Name)
		return nil
	},
}

var pluginUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Update one plugin or all enabled plugins",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := common.GetApp(cmd.Context())
		if err != nil {
			return err
		}
		if len(args) == 1 {
			msg, err := a.Updater.Update(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		}

		results, err := a.Updater.UpdateAll(cmd.Context())
		if common.JSONOutput() {
			if perr := common.PrintJSON(cmd, results); perr != nil {
				return perr
			}
			return err
		}
		failed := 0
		for _, r := range results {
			mark := "✅"
			if !r.OK {
				mark = "❌"
				failed++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", mark, r.Message)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %d/%d plugins\n", len(results)-failed, len(results))
		return err
	},
}

var pluginRunCmd = &cobra.Command{
	Use:   "run <id> [event]",
	Short: "Run a plugin handler manually",
	Long: `Run a plugin handler manually. The event defaults to OnManual; each
--arg is parsed as YAML and passed in order.
Examples:
  gfcore plugin run local-tag
  gfcore plugin run local-tag onTest --arg '{"dry": true}' --arg 3`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := common.GetApp(cmd.Context())
		if err != nil {
			return err
		}
		event := ""
		if len(args) == 2 {
			event = args[1]
		}
		raw, _ := cmd.Flags().GetStringArray("arg")
		hookArgs := make([]any, 0, len(raw))
		for _, r := range raw {
			var v any
			if err := yaml.Unmarshal([]byte(r), &v); err != nil {
				return fmt.Errorf("invalid --arg %q: %w", r, err)
			}
			hookArgs = append(hookArgs, v)
		}

		out, err := a.RunManual(cmd.Context(), args[0], event, hookArgs...)
		if err != nil {
			return err
		}
		return printOutcome(cmd, out)
	},
}

var pluginTriggerCmd = &cobra.Command{
	Use:   "trigger <trigger>",
	Short: "Broadcast a trigger to its observers",
	Long: `Broadcast a lifecycle or interrupting trigger, by id or hook name.
on::subscribe and on::tray::update run their observer chain over the given
input and print the result.
Examples:
  gfcore plugin trigger on::startup
  gfcore plugin trigger OnShutdown
  gfcore plugin trigger on::subscribe --proxies proxies.yaml
  gfcore plugin trigger on::subscribe --subscription 7c1e0d --write
  gfcore plugin trigger on::tray::update --tray tray.yaml --menus menus.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, ok := types.ParseTrigger(args[0])
		if !ok {
			return fmt.Errorf("%w: %s", apperrors.ErrInvalidTrigger, args[0])
		}
		a, err := common.GetApp(cmd.Context())
		if err != nil {
			return err
		}
		switch t {
		case types.OnSubscribe:
			return runSubscribeChain(cmd, a)
		case types.OnTrayUpdate:
			return runTrayChain(cmd, a)
		}
		outcomes, err := a.Trigger(cmd.Context(), t)
		for _, o := range outcomes {
			if perr := printOutcome(cmd, o); perr != nil {
				return perr
			}
		}
		if len(outcomes) == 0 && err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "No plugin observes %s\n", t)
		}
		return err
	},
}

func runSubscribeChain(cmd *cobra.Command, a *app.App) error {
	flags := cmd.Flags()
	id, _ := flags.GetString("subscription")
	write, _ := flags.GetBool("write")

	var proxies []any
	if file, _ := flags.GetString("proxies"); file != "" {
		doc, err := readDocument(file)
		if err != nil {
			return err
		}
		if m, ok := doc.(map[string]any); ok {
			doc = m["proxies"]
		}
		list, ok := doc.([]any)
		if !ok {
			return apperrors.NewConfigError("proxies", file)
		}
		proxies = list
	} else if id == "" {
		return apperrors.NewConfigError("proxies", "")
	}

	out, err := a.Subscribe(cmd.Context(), id, proxies, write)
	if err != nil {
		return err
	}
	return printDocument(cmd, map[string]any{"proxies": out})
}

func runTrayChain(cmd *cobra.Command, a *app.App) error {
	var tray any = map[string]any{}
	if file, _ := cmd.Flags().GetString("tray"); file != "" {
		doc, err := readDocument(file)
		if err != nil {
			return err
		}
		tray = doc
	}
	menus := []any{}
	if file, _ := cmd.Flags().GetString("menus"); file != "" {
		doc, err := readDocument(file)
		if err != nil {
			return err
		}
		list, ok := doc.([]any)
		if !ok {
			return apperrors.NewConfigError("menus", file)
		}
		menus = list
	}

	tray, menus, err := a.Runtime.OnTrayUpdate(cmd.Context(), tray, menus)
	if err != nil {
		return err
	}
	return printDocument(cmd, map[string]any{"tray": tray, "menus": menus})
}

// readDocument decodes a YAML or JSON file into plain maps and lists.
// readDocument 将 YAML 或 JSON 文件解码为普通的映射与列表。
func readDocument(path string) (any, error) {
	data, err := os.ReadFile(path) // #nosec G304 // path comes from the command line
	if err != nil {
		return nil, apperrors.NewFileError(path, err)
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.NewConfigError(path, err)
	}
	return doc, nil
}

func printDocument(cmd *cobra.Command, v any) error {
	if common.JSONOutput() {
		return common.PrintJSON(cmd, v)
	}
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

var pluginReloadCmd = &cobra.Command{
	Use:   "reload <id>",
	Short: "Re-read or re-download a plugin's source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := common.GetApp(cmd.Context())
		if err != nil {
			return err
		}
		p, ok := a.Plugins.Get(args[0])
		if !ok {
			return apperrors.NewNotFoundError(args[0])
		}
		if err := a.Reconciler.Refresh(cmd.Context(), p); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Reloaded %s\n", p.Name)
		return nil
	},
}

func printOutcome(cmd *cobra.Command, o executor.Outcome) error {
	if common.JSONOutput() {
		doc := map[string]any{"id": o.ID, "name": o.Name, "result": o.Result.Value}
		if o.Err != nil {
			doc["error"] = o.Err.Error()
		}
		return common.PrintJSON(cmd, doc)
	}
	switch {
	case o.Err != nil:
		fmt.Fprintf(cmd.OutOrStdout(), "❌ %v\n", o.Err)
	case o.Result.Kind == types.ResultExitCode:
		fmt.Fprintf(cmd.OutOrStdout(), "✅ %s exited with %d\n", o.Name, o.Result.ExitCode)
	case o.Result.Kind == types.ResultValue:
		fmt.Fprintf(cmd.OutOrStdout(), "✅ %s returned %v\n", o.Name, o.Result.Value)
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "✅ %s finished\n", o.Name)
	}
	return nil
}

// applyPluginFlags copies the record flags that were set onto p.
func applyPluginFlags(cmd *cobra.Command, p *types.Plugin) error {
	flags := cmd.Flags()
	str := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	str("id", &p.ID)
	str("name", &p.Name)
	str("version", &p.Version)
	str("url", &p.URL)
	str("path", &p.Path)
	str("description", &p.Description)
	if flags.Changed("type") {
		v, _ := flags.GetString("type")
		switch strings.ToLower(v) {
		case "file":
			p.Type = types.SourceFile
		case "http":
			p.Type = types.SourceHTTP
		default:
			return apperrors.NewConfigError("type", v)
		}
	}
	if flags.Changed("trigger") {
		names, _ := flags.GetStringSlice("trigger")
		p.Triggers = p.Triggers[:0]
		for _, name := range names {
			t, ok := types.ParseTrigger(name)
			if !ok {
				return fmt.Errorf("%w: %s", apperrors.ErrInvalidTrigger, name)
			}
			p.Triggers = append(p.Triggers, t)
		}
	}
	return nil
}

// parseAssignment splits key=value and decodes value as a YAML scalar or document.
func parseAssignment(s string) (string, any, error) {
	key, raw, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return "", nil, fmt.Errorf("expected key=value, got %q", s)
	}
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return "", nil, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return strings.TrimSpace(key), v, nil
}

func init() {
	pluginListCmd.Flags().String("where", "", "Filter expression evaluated against each plugin")

	for _, c := range []*cobra.Command{pluginAddCmd, pluginEditCmd} {
		c.Flags().String("name", "", "Display name")
		c.Flags().String("version", "", "Version string")
		c.Flags().String("type", "", "Source type: File or Http")
		c.Flags().String("url", "", "Source URL for Http plugins")
		c.Flags().String("path", "", "Local source path, e.g. data/plugins/tag.js")
		c.Flags().String("description", "", "Description")
		c.Flags().StringSlice("trigger", nil, "Trigger id or hook name (repeatable)")
	}
	pluginAddCmd.Flags().String("id", "", "Plugin id (generated when empty)")
	pluginAddCmd.Flags().String("from-hub", "", "Install the Plugin-Hub entry with this id")
	pluginEditCmd.Flags().Bool("enable", false, "Enable the plugin")
	pluginEditCmd.Flags().Bool("disable", false, "Disable the plugin")
	pluginEditCmd.Flags().StringArray("set", nil, "Store a setting as key=value (repeatable)")
	pluginEditCmd.Flags().Bool("reset-settings", false, "Remove stored settings")
	pluginRunCmd.Flags().StringArray("arg", nil, "Handler argument as YAML (repeatable)")
	pluginTriggerCmd.Flags().String("proxies", "", "on::subscribe: YAML file with a proxy list or a proxies key")
	pluginTriggerCmd.Flags().String("subscription", "", "on::subscribe: id of the stored subscription passed to the hooks")
	pluginTriggerCmd.Flags().Bool("write", false, "on::subscribe: replace the subscription's cached proxies with the result")
	pluginTriggerCmd.Flags().String("tray", "", "on::tray::update: YAML file with the tray content")
	pluginTriggerCmd.Flags().String("menus", "", "on::tray::update: YAML file with the menu list")

	pluginCmd.AddCommand(pluginListCmd, pluginAddCmd, pluginRemoveCmd, pluginEditCmd,
		pluginUpdateCmd, pluginRunCmd, pluginTriggerCmd, pluginReloadCmd)
}
