// Package profile holds the compiler's inputs: profiles, subscriptions and
// rulesets, each kept in its own YAML store.
package profile

import (
	"github.com/livp123/gfcore/internal/utils/maputil"
)

// Rule types with special rendering.
// 需要特殊渲染的规则类型。
const (
	RuleMatch          = "MATCH"
	RuleRuleSet        = "RULE-SET"
	RuleLogic          = "LOGIC"
	RuleInsertionPoint = "InsertionPoint"
	RuleGeoIP          = "GEOIP"
	RuleIPCIDR         = "IP-CIDR"
	RuleIPCIDR6        = "IP-CIDR6"
	RuleScript         = "SCRIPT"
	RuleIPASN          = "IP-ASN"
)

// Proxy group types.
// 策略组类型。
const (
	GroupSelect      = "select"
	GroupURLTest     = "url-test"
	GroupFallback    = "fallback"
	GroupLoadBalance = "load-balance"
)

// BuiltIn is the pseudo subscription id of built-in outbounds in a group's proxy list.
// BuiltIn 是策略组节点列表中内置出站的伪订阅 id。
const BuiltIn = "Built-In"

// BuiltInOutbounds are the outbound ids the core defines itself.
// BuiltInOutbounds 是内核自身定义的出站 id。
var BuiltInOutbounds = []string{"DIRECT", "REJECT", "REJECT-DROP", "PASS", "COMPATIBLE"}

// Mixin priorities.
// 混入优先级。
const (
	PriorityMixin = "mixin"
	PriorityGUI   = "gui"
)

// GroupProxy references a proxy by name inside a subscription, a built-in
// outbound, or another group.
// GroupProxy 按名称引用订阅中的节点、内置出站或另一个策略组。
type GroupProxy struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	// Type is the id of the subscription the proxy comes from, or BuiltIn.
	// Type 为节点所属订阅的 id，或 BuiltIn。
	Type string `yaml:"type" json:"type"`
}

// ProxyGroup is one user-declared proxy group.
// ProxyGroup 是一个用户声明的策略组。
type ProxyGroup struct {
	ID            string       `yaml:"id" json:"id"`
	Name          string       `yaml:"name" json:"name"`
	Type          string       `yaml:"type" json:"type"`
	Proxies       []GroupProxy `yaml:"proxies" json:"proxies"`
	Use           []string     `yaml:"use" json:"use"`
	URL           string       `yaml:"url" json:"url"`
	Interval      int          `yaml:"interval" json:"interval"`
	Strategy      string       `yaml:"strategy" json:"strategy"`
	Tolerance     int          `yaml:"tolerance" json:"tolerance"`
	Lazy          bool         `yaml:"lazy" json:"lazy"`
	DisableUDP    bool         `yaml:"disable-udp" json:"disable-udp"`
	Filter        string       `yaml:"filter" json:"filter"`
	ExcludeFilter string       `yaml:"exclude-filter" json:"exclude-filter"`
	Hidden        bool         `yaml:"hidden" json:"hidden"`
	Icon          string       `yaml:"icon" json:"icon"`
}

// Rule is one user-declared routing rule.
// Rule 是一条用户声明的路由规则。
type Rule struct {
	ID              string `yaml:"id" json:"id"`
	Type            string `yaml:"type" json:"type"`
	Payload         string `yaml:"payload" json:"payload"`
	Proxy           string `yaml:"proxy" json:"proxy"`
	NoResolve       bool   `yaml:"no-resolve" json:"no-resolve"`
	RulesetType     string `yaml:"ruleset-type" json:"ruleset-type"`
	RulesetName     string `yaml:"ruleset-name" json:"ruleset-name"`
	RulesetBehavior string `yaml:"ruleset-behavior" json:"ruleset-behavior"`
	RulesetFormat   string `yaml:"ruleset-format" json:"ruleset-format"`
	RulesetProxy    string `yaml:"ruleset-proxy" json:"ruleset-proxy"`
	// RulesetInterval is a number or a numeric string.
	// RulesetInterval 为数字或数字字符串。
	RulesetInterval any  `yaml:"ruleset-interval" json:"ruleset-interval"`
	Enable          bool `yaml:"enable" json:"enable"`
}

// MixinConfig is a raw YAML override document and how it merges.
// MixinConfig 是原始 YAML 覆盖文档及其合并方式。
type MixinConfig struct {
	Priority string `yaml:"priority" json:"priority"`
	Config   string `yaml:"config" json:"config"`
}

// ScriptConfig holds the finalize script source.
// ScriptConfig 保存最终处理脚本源码。
type ScriptConfig struct {
	Code string `yaml:"code" json:"code"`
}

// Profile is the declarative template compiled into a core config.
// Profile 是被编译为内核配置的声明式模板。
type Profile struct {
	ID               string                    `yaml:"id" json:"id"`
	Name             string                    `yaml:"name" json:"name"`
	GeneralConfig    map[string]any            `yaml:"generalConfig" json:"generalConfig"`
	AdvancedConfig   map[string]any            `yaml:"advancedConfig" json:"advancedConfig"`
	TunConfig        map[string]any            `yaml:"tunConfig" json:"tunConfig"`
	DNSConfig        map[string]any            `yaml:"dnsConfig" json:"dnsConfig"`
	DNSRuleProviders map[string]map[string]any `yaml:"dnsRuleProviders,omitempty" json:"dnsRuleProviders,omitempty"`
	ProxyGroups      []ProxyGroup              `yaml:"proxyGroupsConfig" json:"proxyGroupsConfig"`
	Rules            []Rule                    `yaml:"rulesConfig" json:"rulesConfig"`
	SubRules         map[string]any            `yaml:"subRulesConfig,omitempty" json:"subRulesConfig,omitempty"`
	Mixin            MixinConfig               `yaml:"mixinConfig" json:"mixinConfig"`
	Script           ScriptConfig              `yaml:"scriptConfig" json:"scriptConfig"`
}

func (p *Profile) GetID() string { return p.ID }

// Clone returns a deep copy.
// Clone 返回深拷贝。
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	c.GeneralConfig = maputil.CloneMap(p.GeneralConfig)
	c.AdvancedConfig = maputil.CloneMap(p.AdvancedConfig)
	c.TunConfig = maputil.CloneMap(p.TunConfig)
	c.DNSConfig = maputil.CloneMap(p.DNSConfig)
	if p.DNSRuleProviders != nil {
		c.DNSRuleProviders = make(map[string]map[string]any, len(p.DNSRuleProviders))
		for k, v := range p.DNSRuleProviders {
			c.DNSRuleProviders[k] = maputil.CloneMap(v)
		}
	}
	if p.ProxyGroups != nil {
		c.ProxyGroups = make([]ProxyGroup, len(p.ProxyGroups))
		for i, g := range p.ProxyGroups {
			g.Proxies = append([]GroupProxy(nil), g.Proxies...)
			g.Use = append([]string(nil), g.Use...)
			c.ProxyGroups[i] = g
		}
	}
	if p.Rules != nil {
		c.Rules = make([]Rule, len(p.Rules))
		for i, r := range p.Rules {
			r.RulesetInterval = maputil.Clone(r.RulesetInterval)
			c.Rules[i] = r
		}
	}
	c.SubRules = maputil.CloneMap(p.SubRules)
	return &c
}

// Group returns the group with id.
// Group 返回指定 id 的策略组。
func (p *Profile) Group(id string) (ProxyGroup, bool) {
	for _, g := range p.ProxyGroups {
		if g.ID == id {
			return g, true
		}
	}
	return ProxyGroup{}, false
}

// Subscription is an externally fetched proxy list cached at Path.
// Subscription 是外部获取并缓存在 Path 的节点列表。
type Subscription struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Type        string   `yaml:"type,omitempty" json:"type,omitempty"`
	URL         string   `yaml:"url,omitempty" json:"url,omitempty"`
	Path        string   `yaml:"path" json:"path"`
	Disabled    bool     `yaml:"disabled" json:"disabled"`
	UseInternal bool     `yaml:"useInternal,omitempty" json:"useInternal,omitempty"`
	Rules       []string `yaml:"rules,omitempty" json:"rules,omitempty"`
}

func (s *Subscription) GetID() string { return s.ID }

func (s *Subscription) Clone() *Subscription {
	if s == nil {
		return nil
	}
	c := *s
	c.Rules = append([]string(nil), s.Rules...)
	return &c
}

// Ruleset source types.
// 规则集来源类型。
const (
	RulesetHTTP   = "Http"
	RulesetFile   = "File"
	RulesetManual = "Manual"
)

// Ruleset is a locally registered rule-set.
// Ruleset 是本地登记的规则集。
type Ruleset struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	Type     string `yaml:"type" json:"type"`
	Behavior string `yaml:"behavior" json:"behavior"`
	Format   string `yaml:"format" json:"format"`
	URL      string `yaml:"url,omitempty" json:"url,omitempty"`
	Path     string `yaml:"path" json:"path"`
	Disabled bool   `yaml:"disabled,omitempty" json:"disabled,omitempty"`
}

func (r *Ruleset) GetID() string { return r.ID }

func (r *Ruleset) Clone() *Ruleset {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
