package compiler

import (
	"context"
	"regexp"
	"slices"

	"github.com/livp123/gfcore/internal/profile"
	"github.com/livp123/gfcore/internal/utils/fileutil"
	"github.com/livp123/gfcore/internal/utils/logger"
)

var subRulePayload = regexp.MustCompile(`(?i)^SUB-RULE,`)

var noResolveTypes = []string{
	profile.RuleGeoIP,
	profile.RuleIPCIDR,
	profile.RuleIPCIDR6,
	profile.RuleScript,
	profile.RuleRuleSet,
	profile.RuleIPASN,
}

// RenderRule renders one rule as the core's comma separated rule string.
// RenderRule 将一条规则渲染为内核使用的逗号分隔字符串。
func RenderRule(rule profile.Rule, rulesets *profile.Snapshot, groups []profile.ProxyGroup) string {
	s := rule.Type
	switch rule.Type {
	case profile.RuleMatch:
	case profile.RuleRuleSet:
		switch rule.RulesetType {
		case "file":
			if rs, ok := rulesets.RulesetByID(rule.Payload); ok {
				s += "," + rs.Name
			}
		case "http", "inline":
			s += "," + rule.RulesetName
		}
	case profile.RuleLogic:
		s = rule.Payload
	default:
		s += "," + rule.Payload
	}

	if rule.Type == profile.RuleLogic && subRulePayload.MatchString(rule.Payload) {
		// The proxy field of a SUB-RULE names a sub-rule, not a group.
		// SUB-RULE 的 proxy 字段是子规则名称，而非策略组。
		s += "," + rule.Proxy
	} else {
		proxy := rule.Proxy
		for _, g := range groups {
			if g.ID == rule.Proxy {
				proxy = g.Name
				break
			}
		}
		s += "," + proxy
	}

	if rule.NoResolve && slices.Contains(noResolveTypes, rule.Type) {
		s += ",no-resolve"
	}
	return s
}

// renderRules puts subscription-supplied rules first, then the profile's
// enabled rules.
func renderRules(snap *profile.Snapshot, p *profile.Profile) []any {
	var rules []any
	for _, sub := range snap.Subscriptions {
		if sub.Disabled || sub.UseInternal {
			continue
		}
		for _, r := range sub.Rules {
			rules = append(rules, r)
		}
	}
	for _, rule := range p.Rules {
		if rule.Type == profile.RuleInsertionPoint || !rule.Enable {
			continue
		}
		rules = append(rules, RenderRule(rule, snap, p.ProxyGroups))
	}
	if rules == nil {
		rules = []any{}
	}
	return rules
}

// RenderGroup emits the fields the core accepts for the group's type. Member
// references to built-in outbounds or other groups become names.
// RenderGroup 输出内核对该策略组类型接受的字段。对内置出站或其他策略组的引用转换为名称。
func RenderGroup(g profile.ProxyGroup, groups []profile.ProxyGroup) map[string]any {
	out := map[string]any{
		"name":           g.Name,
		"type":           g.Type,
		"filter":         g.Filter,
		"exclude-filter": g.ExcludeFilter,
		"hidden":         g.Hidden,
		"icon":           g.Icon,
	}
	if len(g.Use) > 0 {
		out["use"] = append([]string(nil), g.Use...)
	}
	if len(g.Proxies) > 0 {
		names := make([]any, len(g.Proxies))
		for i, ref := range g.Proxies {
			names[i] = memberName(ref, groups)
		}
		out["proxies"] = names
	}

	switch g.Type {
	case profile.GroupSelect:
		out["disable-udp"] = g.DisableUDP
	case profile.GroupURLTest:
		out["url"] = g.URL
		out["interval"] = g.Interval
		out["tolerance"] = g.Tolerance
		out["lazy"] = g.Lazy
		out["disable-udp"] = g.DisableUDP
	case profile.GroupFallback:
		out["url"] = g.URL
		out["interval"] = g.Interval
		out["lazy"] = g.Lazy
		out["disable-udp"] = g.DisableUDP
	case profile.GroupLoadBalance:
		out["url"] = g.URL
		out["interval"] = g.Interval
		out["lazy"] = g.Lazy
		out["disable-udp"] = g.DisableUDP
		out["strategy"] = g.Strategy
	}
	return out
}

func memberName(ref profile.GroupProxy, groups []profile.ProxyGroup) string {
	if slices.Contains(profile.BuiltInOutbounds, ref.ID) {
		return ref.Name
	}
	for _, g := range groups {
		if g.ID == ref.ID {
			return g.Name
		}
	}
	return ref.Name
}

// proxyProviders maps every subscription named in a group's use list to a file provider.
func proxyProviders(snap *profile.Snapshot, groups []profile.ProxyGroup) map[string]any {
	providers := map[string]any{}
	for _, g := range groups {
		for _, id := range g.Use {
			if _, done := providers[id]; done {
				continue
			}
			if sub, ok := snap.Subscription(id); ok {
				providers[sub.ID] = map[string]any{
					"type": "file",
					"path": fileutil.CoreRelativePath(sub.Path),
				}
			}
		}
	}
	return providers
}

// collectProxies selects the proxies groups name out of their subscriptions,
// keeping the first proxy of each name.
func (c *Compiler) collectProxies(ctx context.Context, snap *profile.Snapshot, groups []profile.ProxyGroup) []any {
	cache := map[string][]map[string]any{}
	for _, g := range groups {
		for _, ref := range g.Proxies {
			if ref.Type == profile.BuiltIn {
				continue
			}
			if _, done := cache[ref.Type]; done {
				continue
			}
			sub, ok := snap.Subscription(ref.Type)
			if !ok {
				continue
			}
			list, err := c.proxies.Proxies(sub)
			if err != nil {
				logger.Get(ctx).Warnf("[COMPILE] Cannot read proxies of %s: %v", sub.Name, err)
				list = nil
			}
			cache[ref.Type] = list
		}
	}

	out := []any{}
	seen := map[string]bool{}
	for _, g := range groups {
		for _, ref := range g.Proxies {
			for _, proxy := range cache[ref.Type] {
				name, _ := proxy["name"].(string)
				if name != ref.Name {
					continue
				}
				if !seen[name] {
					seen[name] = true
					out = append(out, proxy)
				}
				break
			}
		}
	}
	return out
}
