// Package ruleprovider turns rule-set references into the rule-providers
// section of a core config.
package ruleprovider

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/livp123/gfcore/internal/profile"
	"github.com/livp123/gfcore/internal/utils/fileutil"
	"github.com/livp123/gfcore/internal/utils/maputil"
)

// DefaultInterval is the refresh interval in seconds of http providers.
// DefaultInterval 是 http 类型 provider 的刷新间隔（秒）。
const DefaultInterval = 86400

// Provider kinds.
// Provider 类型。
const (
	KindFile   = "file"
	KindHTTP   = "http"
	KindInline = "inline"
)

// LegacyPrefix introduces one or more comma separated rule-set names in DNS filters.
// LegacyPrefix 在 DNS 过滤项中引出一个或多个逗号分隔的规则集名称。
const LegacyPrefix = "rule-set:"

var modernRef = regexp.MustCompile(`(?i)^RULE-SET,([^,]+),(?:fake-ip|real-ip)$`)

// Provider describes one rule provider as the core expects it.
// Provider 按内核要求描述一个规则 provider。
type Provider struct {
	Type     string `yaml:"type"`
	Behavior string `yaml:"behavior,omitempty"`
	Format   string `yaml:"format,omitempty"`
	URL      string `yaml:"url,omitempty"`
	Path     string `yaml:"path,omitempty"`
	Proxy    string `yaml:"proxy,omitempty"`
	Interval int    `yaml:"interval,omitempty"`
	Payload  any    `yaml:"payload,omitempty"`
}

// Document renders the provider as a plain map.
// Document 将 provider 渲染为普通 map。
func (p Provider) Document() map[string]any {
	doc := map[string]any{"type": p.Type}
	set := func(k, v string) {
		if v != "" {
			doc[k] = v
		}
	}
	set("behavior", p.Behavior)
	set("format", p.Format)
	set("url", p.URL)
	set("path", p.Path)
	set("proxy", p.Proxy)
	if p.Interval != 0 {
		doc["interval"] = p.Interval
	}
	if p.Payload != nil {
		doc["payload"] = maputil.Clone(p.Payload)
	}
	return doc
}

// Rulesets looks up locally registered rulesets.
// Rulesets 查询本地登记的规则集。
type Rulesets interface {
	RulesetByID(id string) (*profile.Ruleset, bool)
	RulesetByName(name string) (*profile.Ruleset, bool)
}

// Resolver builds the provider map for a single compile. It is not reused.
// Resolver 为单次编译构建 provider 映射，不可复用。
type Resolver struct {
	rulesets   Rulesets
	mixin      map[string]any
	dns        map[string]map[string]any
	providers  map[string]any
	unresolved []string
	missing    map[string]bool
}

// New creates a resolver. mixin is the rule-providers block of the mixin
// document; dns holds the profile's DNS-only providers.
// New 创建解析器。mixin 为混入文档的 rule-providers 块；dns 为配置文件中仅供 DNS 使用的 provider。
func New(rulesets Rulesets, mixin map[string]any, dns map[string]map[string]any) *Resolver {
	return &Resolver{
		rulesets:  rulesets,
		mixin:     mixin,
		dns:       dns,
		providers: map[string]any{},
		missing:   map[string]bool{},
	}
}

// Resolve makes name available in the provider map. The first definition wins;
// then the mixin block, the DNS-only providers and the ruleset store (by id,
// then by name) are consulted in that order. It reports whether name resolved.
// Resolve 使 name 出现在 provider 映射中。先到者优先；随后依次查询混入块、仅 DNS 的 provider
// 以及规则集存储（先按 id 再按名称）。返回 name 是否解析成功。
func (r *Resolver) Resolve(name string) bool {
	if _, ok := r.providers[name]; ok {
		return true
	}
	if def, ok := r.mixin[name]; ok && def != nil {
		r.providers[name] = maputil.Clone(def)
		return true
	}
	if def, ok := r.dns[name]; ok && def != nil {
		r.providers[name] = fromDNS(def).Document()
		return true
	}

	rs, ok := r.rulesets.RulesetByID(name)
	if !ok {
		rs, ok = r.rulesets.RulesetByName(name)
	}
	if !ok {
		if !r.missing[name] {
			r.missing[name] = true
			r.unresolved = append(r.unresolved, name)
		}
		return false
	}
	if _, exists := r.providers[rs.Name]; !exists {
		r.providers[rs.Name] = fromRuleset(rs).Document()
	}
	return true
}

func fromDNS(def map[string]any) Provider {
	str := func(k string) string {
		s, _ := def[k].(string)
		return s
	}
	if str("type") == KindInline {
		return Provider{Type: KindInline, Behavior: str("behavior"), Payload: def["payload"]}
	}
	p := Provider{
		Type:     str("type"),
		URL:      str("url"),
		Behavior: str("behavior"),
		Format:   str("format"),
		Path:     str("path"),
		Interval: interval(def["interval"]),
	}
	if p.Type == "" {
		p.Type = KindHTTP
	}
	return p
}

func fromRuleset(rs *profile.Ruleset) Provider {
	if rs.Type == profile.RulesetHTTP {
		return Provider{
			Type:     KindHTTP,
			URL:      rs.URL,
			Behavior: rs.Behavior,
			Path:     fileutil.CoreRelativePath(rs.Path),
			Format:   rs.Format,
			Interval: DefaultInterval,
		}
	}
	return Provider{
		Type:     KindFile,
		Behavior: rs.Behavior,
		Path:     fileutil.CoreRelativePath(rs.Path),
		Format:   rs.Format,
	}
}

// AddRule registers the provider an enabled RULE-SET rule declares. File rules
// name a local ruleset; http and inline rules carry their own definition,
// keyed by the rule's ruleset name. groupName maps a group id to its name.
// AddRule 登记已启用 RULE-SET 规则声明的 provider。file 规则引用本地规则集；
// http 与 inline 规则自带定义，以规则的 ruleset-name 为键。groupName 将策略组 id 映射为名称。
func (r *Resolver) AddRule(rule profile.Rule, groupName func(id string) (string, bool)) {
	if rule.Type != profile.RuleRuleSet || !rule.Enable {
		return
	}
	switch rule.RulesetType {
	case KindFile:
		r.Resolve(rule.Payload)
	case KindHTTP:
		proxy := "DIRECT"
		if name, ok := groupName(rule.RulesetProxy); ok && name != "" {
			proxy = name
		}
		r.define(rule.RulesetName, Provider{
			Type:     KindHTTP,
			URL:      rule.Payload,
			Behavior: rule.RulesetBehavior,
			Format:   rule.RulesetFormat,
			Proxy:    proxy,
			Interval: interval(rule.RulesetInterval),
		})
	case KindInline:
		var payload any
		if err := yaml.Unmarshal([]byte(rule.Payload), &payload); err != nil {
			payload = nil
		}
		r.define(rule.RulesetName, Provider{
			Type:     KindInline,
			Behavior: rule.RulesetBehavior,
			Payload:  payload,
		})
	}
}

func (r *Resolver) define(name string, p Provider) {
	if _, ok := r.providers[name]; ok {
		return
	}
	r.providers[name] = p.Document()
}

// interval accepts a number or a numeric string and falls back to DefaultInterval.
func interval(v any) int {
	switch t := v.(type) {
	case int:
		if t != 0 {
			return t
		}
	case int64:
		if t != 0 {
			return int(t)
		}
	case float64:
		if t != 0 {
			return int(t)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil && n != 0 {
			return n
		}
	}
	return DefaultInterval
}

// AddDNS resolves every rule-set named by a DNS section's fake-ip-filter and
// nameserver-policy keys.
// AddDNS 解析 DNS 段 fake-ip-filter 与 nameserver-policy 键中引用的所有规则集。
func (r *Resolver) AddDNS(dns map[string]any) {
	for _, name := range References(dns) {
		r.Resolve(name)
	}
}

// References lists the rule-set names a DNS section refers to, fake-ip-filter
// entries first, then nameserver-policy keys in sorted order.
// References 列出 DNS 段引用的规则集名称：先 fake-ip-filter 条目，再按排序后的 nameserver-policy 键。
func References(dns map[string]any) []string {
	var names []string
	for _, entry := range maputil.Strings(dns["fake-ip-filter"]) {
		names = append(names, FilterReferences(entry)...)
	}

	policy, _ := maputil.Map(dns["nameserver-policy"])
	keys := make([]string, 0, len(policy))
	for k := range policy {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.HasPrefix(k, LegacyPrefix) {
			names = append(names, splitNames(strings.TrimPrefix(k, LegacyPrefix))...)
		}
	}
	return names
}

// FilterReferences parses one fake-ip-filter entry in either the legacy
// "rule-set:a,b" or the "RULE-SET,a,fake-ip" form.
// FilterReferences 解析单个 fake-ip-filter 条目，支持旧式 "rule-set:a,b" 与 "RULE-SET,a,fake-ip" 两种形式。
func FilterReferences(entry string) []string {
	if strings.HasPrefix(entry, LegacyPrefix) {
		return splitNames(strings.TrimPrefix(entry, LegacyPrefix))
	}
	if m := modernRef.FindStringSubmatch(entry); m != nil {
		return []string{strings.TrimSpace(m[1])}
	}
	return nil
}

func splitNames(s string) []string {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// Providers returns the resolved provider map.
// Providers 返回解析得到的 provider 映射。
func (r *Resolver) Providers() map[string]any {
	return r.providers
}

// Unresolved lists the referenced names that matched nothing, in first-seen order.
// Unresolved 按首次出现顺序列出未匹配任何定义的引用名称。
func (r *Resolver) Unresolved() []string {
	var out []string
	for _, name := range r.unresolved {
		if _, ok := r.providers[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}
