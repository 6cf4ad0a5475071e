package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/livp123/gfcore/cmd/gfcore/commands/common"
	"github.com/livp123/gfcore/internal/config"
	"github.com/livp123/gfcore/internal/runtime"
	"github.com/livp123/gfcore/internal/utils/logger"
)

var RootCmd = &cobra.Command{
	Use:   "gfcore",
	Short: "Plugin and config manager for a mihomo based proxy client",
	// Short: 面向 mihomo 代理客户端的插件与配置管理器
	Long: `gfcore manages proxy-client plugins and compiles profiles into the
core configuration file. It installs, updates and runs hook plugins and
renders rules, groups, DNS and rule providers for the proxy core.
gfcore 管理代理客户端插件并将配置编译为内核配置文件。
它负责安装、更新与运行钩子插件，并为代理内核生成规则、策略组、DNS 与规则 provider。`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := runtime.ValidateOutput(); err != nil {
			return err
		}

		// Load settings to get logging config; fall back to console only
		// 加载设置以获取日志配置；失败时仅输出到控制台
		cfg, err := config.LoadAppConfig(runtime.ResolveConfigPath())
		if err != nil {
			logger.Init(logger.LoggingConfig{Level: "info"})
		} else {
			logger.Init(cfg.Logging.Resolve(cfg.RootDir))
		}

		// Inject logger into context
		// 将 Logger 注入 Context
		cmd.SetContext(logger.WithContext(cmd.Context(), logger.Get(nil)))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if a, ok := common.Loaded(); ok {
			_ = a.FlushMetrics(cmd.Context())
		}
		_ = logger.Sync()
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&runtime.ConfigPath, "config", "c", "", fmt.Sprintf("Path to settings file (default: %s)", config.DefaultConfigPath))
	RootCmd.PersistentFlags().BoolVarP(&runtime.AssumeYes, "yes", "y", false, "Answer yes to every confirmation prompt")
	RootCmd.PersistentFlags().StringVarP(&runtime.Output, "output", "o", runtime.OutputText, "Output format: text or json")

	RootCmd.AddCommand(generateCmd)
	RootCmd.AddCommand(pluginCmd)
	RootCmd.AddCommand(hubCmd)
	RootCmd.AddCommand(watchCmd)
	RootCmd.AddCommand(exportCmd)
	RootCmd.AddCommand(importCmd)
	RootCmd.AddCommand(logsCmd)
	RootCmd.AddCommand(versionCmd)

	RootCmd.CompletionOptions.DisableDescriptions = true
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
