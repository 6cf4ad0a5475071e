package types

import (
	"strings"

	"github.com/livp123/gfcore/internal/utils/maputil"
)

// SourceType describes where a plugin's source text comes from.
// SourceType 描述插件源码的来源。
type SourceType string

const (
	SourceFile SourceType = "File"
	SourceHTTP SourceType = "Http"
)

// HubPrefix marks plugins published on the Plugin-Hub.
// HubPrefix 标记发布在插件仓库中的插件。
const HubPrefix = "plugin-"

// ConfigurationItem declares one user-tunable plugin setting and its default.
// ConfigurationItem 声明一项用户可调的插件设置及其默认值。
type ConfigurationItem struct {
	ID          string `yaml:"id,omitempty" json:"id,omitempty"`
	Title       string `yaml:"title,omitempty" json:"title,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Key         string `yaml:"key" json:"key"`
	Component   string `yaml:"component" json:"component"`
	Value       any    `yaml:"value" json:"value"`
	Options     []any  `yaml:"options,omitempty" json:"options,omitempty"`
}

// Plugin is one installed unit of hook code.
// Plugin 是一个已安装的钩子代码单元。
type Plugin struct {
	ID            string              `yaml:"id" json:"id"`
	Name          string              `yaml:"name" json:"name"`
	Version       string              `yaml:"version" json:"version"`
	Description   string              `yaml:"description,omitempty" json:"description,omitempty"`
	Tags          []string            `yaml:"tags,omitempty" json:"tags,omitempty"`
	Type          SourceType          `yaml:"type" json:"type"`
	URL           string              `yaml:"url,omitempty" json:"url,omitempty"`
	Path          string              `yaml:"path" json:"path"`
	Triggers      []Trigger           `yaml:"triggers" json:"triggers"`
	HasUI         bool                `yaml:"hasUI" json:"hasUI"`
	Menus         map[string]string   `yaml:"menus,omitempty" json:"menus,omitempty"`
	Context       map[string]any      `yaml:"context,omitempty" json:"context,omitempty"`
	Status        int                 `yaml:"status" json:"status"`
	Configuration []ConfigurationItem `yaml:"configuration" json:"configuration"`
	Disabled      bool                `yaml:"disabled" json:"disabled"`
	Install       bool                `yaml:"install" json:"install"`
	Installed     bool                `yaml:"installed" json:"installed"`

	// Runtime-only state, never persisted.
	// 仅运行时状态，不会持久化。
	Updating bool `yaml:"-" json:"-"`
	Loading  bool `yaml:"-" json:"-"`
	Running  bool `yaml:"-" json:"-"`
}

// FromHub reports whether the plugin id carries the hub namespace prefix.
// FromHub 报告插件 id 是否带有插件仓库命名空间前缀。
func (p *Plugin) FromHub() bool {
	return strings.HasPrefix(p.ID, HubPrefix)
}

// HasTrigger reports whether the plugin subscribes to t.
// HasTrigger 报告插件是否订阅了 t。
func (p *Plugin) HasTrigger(t Trigger) bool {
	for _, tr := range p.Triggers {
		if tr == t {
			return true
		}
	}
	return false
}

// NeedsInstall reports whether an external dependency is still missing.
// NeedsInstall 报告外部依赖是否仍未安装。
func (p *Plugin) NeedsInstall() bool {
	return p.Install && !p.Installed
}

// Defaults returns the declared configuration defaults keyed by setting key.
// Defaults 返回以设置键为索引的声明默认值。
func (p *Plugin) Defaults() map[string]any {
	out := make(map[string]any, len(p.Configuration))
	for _, item := range p.Configuration {
		out[item.Key] = maputil.Clone(item.Value)
	}
	return out
}

// Clone returns a deep copy of the plugin record.
// Clone 返回插件记录的深拷贝。
func (p *Plugin) Clone() *Plugin {
	if p == nil {
		return nil
	}
	c := *p
	c.Tags = append([]string(nil), p.Tags...)
	c.Triggers = append([]Trigger(nil), p.Triggers...)
	if p.Menus != nil {
		c.Menus = make(map[string]string, len(p.Menus))
		for k, v := range p.Menus {
			c.Menus[k] = v
		}
	}
	c.Context = maputil.CloneMap(p.Context)
	if p.Configuration != nil {
		c.Configuration = make([]ConfigurationItem, len(p.Configuration))
		for i, item := range p.Configuration {
			item.Value = maputil.Clone(item.Value)
			item.Options = append([]any(nil), item.Options...)
			c.Configuration[i] = item
		}
	}
	return &c
}
