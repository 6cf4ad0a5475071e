package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/livp123/gfcore/internal/plugins/types"
	"github.com/livp123/gfcore/internal/utils/fileutil"
	"github.com/livp123/gfcore/internal/utils/logger"
	apperrors "github.com/livp123/gfcore/pkg/errors"
)

// AppConfig is the application settings document.
// AppConfig 是应用设置文档。
type AppConfig struct {
	// RootDir is where store paths such as data/plugins.yaml resolve.
	// RootDir 是 data/plugins.yaml 等存储路径的解析根目录。
	RootDir string               `yaml:"root_dir"`
	Logging logger.LoggingConfig `yaml:"logging"`
	Plugins PluginsConfig        `yaml:"plugins"`
	Stores  StoresConfig         `yaml:"stores"`
	Kernel  KernelConfig         `yaml:"kernel"`
	Metrics MetricsConfig        `yaml:"metrics"`
	// PluginSettings holds user overrides of plugin configuration, keyed by plugin id.
	// PluginSettings 保存插件配置的用户覆盖值，以插件 id 为键。
	PluginSettings map[string]map[string]any `yaml:"plugin_settings"`
}

// PluginsConfig locates the plugin list and the hub.
// PluginsConfig 定位插件列表与插件仓库。
type PluginsConfig struct {
	File         string   `yaml:"file"`
	HubFile      string   `yaml:"hub_file"`
	HubURLs      []string `yaml:"hub_urls"`
	FetchTimeout string   `yaml:"fetch_timeout"`
	UserAgent    string   `yaml:"user_agent"`
	// Preinstalled is installed when the plugin list is empty. An empty list
	// turns the first-run install off.
	// Preinstalled 在插件列表为空时安装。列表为空即关闭首次运行安装。
	Preinstalled []types.Preinstalled `yaml:"preinstalled"`
}

// StoresConfig locates the profile, subscription and ruleset stores.
// StoresConfig 定位配置、订阅与规则集存储。
type StoresConfig struct {
	Profiles   string `yaml:"profiles"`
	Subscribes string `yaml:"subscribes"`
	Rulesets   string `yaml:"rulesets"`
}

// KernelConfig selects the profile to compile and where the result goes.
// KernelConfig 选择要编译的配置以及输出位置。
type KernelConfig struct {
	Profile    string `yaml:"profile"`
	ConfigPath string `yaml:"config_path"`
}

// MetricsConfig controls where metrics go after each command: a textfile for
// node_exporter and optionally a Pushgateway.
// MetricsConfig 控制每条命令执行后指标的去向：供 node_exporter 读取的文本文件，以及可选的 Pushgateway。
type MetricsConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Textfile    string `yaml:"textfile"`
	PushGateway string `yaml:"push_gateway"`
}

// DefaultAppConfig returns settings with every default filled in.
// DefaultAppConfig 返回填充了全部默认值的设置。
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		RootDir: ".",
		Logging: logger.LoggingConfig{
			Enabled:    false,
			Level:      "info",
			Format:     logger.FormatConsole,
			Path:       AppLogFilePath,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
		},
		Plugins: PluginsConfig{
			File:         PluginsFilePath,
			HubFile:      PluginHubFilePath,
			HubURLs:      append([]string(nil), DefaultHubURLs...),
			FetchTimeout: "30s",
			UserAgent:    AppTitle,
			Preinstalled: DefaultPreinstalled(),
		},
		Stores: StoresConfig{
			Profiles:   ProfilesFilePath,
			Subscribes: SubscribesFilePath,
			Rulesets:   RulesetsFilePath,
		},
		Kernel: KernelConfig{
			ConfigPath: CoreConfigFilePath,
		},
		PluginSettings: map[string]map[string]any{},
	}
}

// LoadAppConfig reads settings from path over the defaults. A missing file yields the defaults.
// LoadAppConfig 在默认值之上读取 path 中的设置。文件不存在时返回默认值。
func LoadAppConfig(path string) (*AppConfig, error) {
	cfg := DefaultAppConfig()

	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 // path is sanitized with filepath.Clean
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, apperrors.NewConfigError(path, err)
	}
	if cfg.PluginSettings == nil {
		cfg.PluginSettings = map[string]map[string]any{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveAppConfig writes settings to path atomically.
// SaveAppConfig 以原子方式将设置写入 path。
func SaveAppConfig(path string, cfg *AppConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return fileutil.AtomicWriteFile(path, data, 0600)
}

// Validate checks field values that would otherwise fail late.
// Validate 检查否则会在之后才失败的字段值。
func (c *AppConfig) Validate() error {
	if c.Plugins.File == "" {
		return apperrors.NewConfigError("plugins.file", "")
	}
	if _, err := c.FetchTimeout(); err != nil {
		return apperrors.NewConfigError("plugins.fetch_timeout", c.Plugins.FetchTimeout)
	}
	for _, item := range c.Plugins.Preinstalled {
		if err := types.Validate(&item.Plugin); err != nil {
			return apperrors.NewConfigError("plugins.preinstalled", item.Plugin.ID)
		}
	}
	switch c.Logging.Format {
	case "", logger.FormatConsole, logger.FormatJSON:
	default:
		return apperrors.NewConfigError("logging.format", c.Logging.Format)
	}
	if c.Metrics.Enabled && c.Metrics.Textfile == "" && c.Metrics.PushGateway == "" {
		return apperrors.NewConfigError("metrics.textfile", "")
	}
	return nil
}

// FetchTimeout parses plugins.fetch_timeout; empty means no override.
// FetchTimeout 解析 plugins.fetch_timeout；为空表示不覆盖。
func (c *AppConfig) FetchTimeout() (time.Duration, error) {
	if c.Plugins.FetchTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Plugins.FetchTimeout)
	if err != nil {
		return 0, fmt.Errorf("parse fetch timeout: %w", err)
	}
	return d, nil
}
