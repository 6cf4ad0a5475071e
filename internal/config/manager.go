package config

import (
	"sync"

	"github.com/livp123/gfcore/internal/plugins/types"
	"github.com/livp123/gfcore/internal/utils/maputil"
)

// ConfigManager handles all configuration-related operations in a centralized manner
// ConfigManager 以集中方式处理所有配置相关操作
type ConfigManager struct {
	configPath string
	mutex      sync.RWMutex
	config     *AppConfig
}

// NewConfigManager creates a new configuration manager instance
// NewConfigManager 创建新的配置管理器实例
func NewConfigManager(configPath string) *ConfigManager {
	return &ConfigManager{configPath: configPath}
}

// LoadConfig loads the configuration from the specified path
// LoadConfig 从指定路径加载配置
func (cm *ConfigManager) LoadConfig() error {
	cfg, err := LoadAppConfig(cm.configPath)
	if err != nil {
		return err
	}

	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	cm.config = cfg
	return nil
}

// SaveConfig saves the current configuration to the specified path
// SaveConfig 将当前配置保存到指定路径
func (cm *ConfigManager) SaveConfig() error {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return cm.save()
}

func (cm *ConfigManager) save() error {
	if cm.config == nil {
		return nil
	}
	return SaveAppConfig(cm.configPath, cm.config)
}

// GetConfig returns a copy of the current configuration
// GetConfig 返回当前配置的副本
func (cm *ConfigManager) GetConfig() *AppConfig {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	if cm.config == nil {
		return nil
	}
	cfgCopy := *cm.config
	cfgCopy.Plugins.HubURLs = append([]string(nil), cm.config.Plugins.HubURLs...)
	cfgCopy.Plugins.Preinstalled = make([]types.Preinstalled, len(cm.config.Plugins.Preinstalled))
	for i, item := range cm.config.Plugins.Preinstalled {
		cfgCopy.Plugins.Preinstalled[i] = types.Preinstalled{
			Plugin:       *item.Plugin.Clone(),
			Dependencies: append([]types.Dependency(nil), item.Dependencies...),
		}
	}
	cfgCopy.PluginSettings = make(map[string]map[string]any, len(cm.config.PluginSettings))
	for id, values := range cm.config.PluginSettings {
		cfgCopy.PluginSettings[id] = maputil.CloneMap(values)
	}
	return &cfgCopy
}

// UpdateConfig updates the current configuration
// UpdateConfig 更新当前配置
func (cm *ConfigManager) UpdateConfig(newConfig *AppConfig) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	cm.config = newConfig
}

// PluginSettings returns a copy of the stored overrides for a plugin.
// PluginSettings 返回插件已保存覆盖值的副本。
func (cm *ConfigManager) PluginSettings(id string) (map[string]any, bool) {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	if cm.config == nil {
		return nil, false
	}
	values, ok := cm.config.PluginSettings[id]
	if !ok {
		return nil, false
	}
	return maputil.CloneMap(values), true
}

// SetPluginSettings stores or, with nil, removes the overrides of a plugin and saves.
// SetPluginSettings 保存插件的覆盖值（nil 表示删除）并写盘。
func (cm *ConfigManager) SetPluginSettings(id string, values map[string]any) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if cm.config == nil {
		cm.config = DefaultAppConfig()
	}
	if cm.config.PluginSettings == nil {
		cm.config.PluginSettings = map[string]map[string]any{}
	}
	if values == nil {
		delete(cm.config.PluginSettings, id)
	} else {
		cm.config.PluginSettings[id] = maputil.CloneMap(values)
	}
	return cm.save()
}
