package compiler

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livp123/gfcore/internal/profile"
	apperrors "github.com/livp123/gfcore/pkg/errors"
	"github.com/livp123/gfcore/pkg/storage"
)

type fakeProxies map[string][]map[string]any

func (f fakeProxies) Proxies(sub *profile.Subscription) ([]map[string]any, error) {
	list, ok := f[sub.ID]
	if !ok {
		return nil, errors.New("no cache")
	}
	out := make([]map[string]any, len(list))
	for i, p := range list {
		cp := map[string]any{}
		for k, v := range p {
			cp[k] = v
		}
		out[i] = cp
	}
	return out, nil
}

// recordingHooks appends a marker in each hook and can fail on demand.
// recordingHooks 在每个钩子中追加标记，并可按需失败。
type recordingHooks struct {
	fail error
}

func (h *recordingHooks) OnGenerate(_ context.Context, config map[string]any, profile any) (map[string]any, error) {
	if h.fail != nil {
		return nil, h.fail
	}
	config["x-plugin"] = profile.(map[string]any)["name"]
	return config, nil
}

func (h *recordingHooks) OnBeforeCoreStart(_ context.Context, config map[string]any, _ any) (map[string]any, error) {
	config["x-before-start"] = true
	return config, nil
}

func testSnapshot() *profile.Snapshot {
	return &profile.Snapshot{
		Profile: &profile.Profile{
			ID:   "p1",
			Name: "Default",
			GeneralConfig: map[string]any{
				"mode":      "rule",
				"log-level": "warning",
				"geox-url":  map[string]any{"geoip": "https://geo/geoip.dat", "mmdb": "https://geo/country.mmdb"},
			},
			AdvancedConfig: map[string]any{"unified-delay": true},
			TunConfig: map[string]any{
				"enable":                false,
				"route-address":         []any{},
				"route-exclude-address": []any{"10.0.0.0/8"},
			},
			DNSConfig: map[string]any{
				"enable":                  true,
				"listen":                  "",
				"default-nameserver":      []any{},
				"nameserver":              []any{"https://dns.alidns.com/dns-query"},
				"direct-nameserver":       []any{},
				"proxy-server-nameserver": []any{"223.5.5.5"},
				"fallback":                []any{},
				"fallback-filter":         map[string]any{"geoip": true},
				"hosts":                   map[string]any{"router.lan": "192.168.1.1", "dual.lan": "10.0.0.1,10.0.0.2"},
				"nameserver-policy": map[string]any{
					"+.corp.com":    []any{"10.1.1.1"},
					"rule-set:cn":   "223.5.5.5,119.29.29.29",
					"+.example.org": "1.1.1.1",
				},
				"fake-ip-filter": []any{"rule-set:ads,trackers", "+.lan", "RULE-SET,cn,real-ip"},
			},
			ProxyGroups: []profile.ProxyGroup{
				{
					ID: "g1", Name: "Proxy", Type: profile.GroupSelect,
					Proxies: []profile.GroupProxy{
						{ID: "n1", Name: "hk-01", Type: "sub1"},
						{ID: "g2", Name: "auto-old-name", Type: profile.BuiltIn},
						{ID: "DIRECT", Name: "DIRECT", Type: profile.BuiltIn},
					},
					Use: []string{"sub1", "ghost"},
				},
				{
					ID: "g2", Name: "Auto", Type: profile.GroupURLTest, URL: "https://cp.cloudflare.com", Interval: 300, Tolerance: 50,
					Proxies: []profile.GroupProxy{
						{ID: "n1", Name: "hk-01", Type: "sub1"},
						{ID: "n2", Name: "us-01", Type: "sub1"},
						{ID: "n3", Name: "hk-01", Type: "sub2"},
					},
				},
			},
			Rules: []profile.Rule{
				{Type: "DOMAIN-SUFFIX", Payload: "google.com", Proxy: "g1", Enable: true},
				{Type: profile.RuleIPCIDR, Payload: "10.0.0.0/8", Proxy: "DIRECT", NoResolve: true, Enable: true},
				{Type: "DOMAIN", Payload: "a.com", Proxy: "g1", NoResolve: true, Enable: true},
				{Type: profile.RuleRuleSet, Payload: "rs-cn", RulesetType: "file", Proxy: "DIRECT", NoResolve: true, Enable: true},
				{Type: profile.RuleLogic, Payload: "AND,((NETWORK,UDP),(DST-PORT,443))", Proxy: "REJECT", Enable: true},
				{Type: profile.RuleLogic, Payload: "SUB-RULE,(NETWORK,TCP)", Proxy: "g1", Enable: true},
				{Type: profile.RuleInsertionPoint, Enable: true},
				{Type: "DOMAIN", Payload: "off.com", Proxy: "g1", Enable: false},
				{Type: profile.RuleMatch, Proxy: "g2", Enable: true},
			},
			SubRules: map[string]any{"g1": []any{"MATCH,DIRECT"}},
		},
		Subscriptions: []*profile.Subscription{
			{ID: "sub1", Name: "Sub 1", Path: "data/subscribes/sub1.yaml", Rules: []string{"DOMAIN,sub.rule,DIRECT"}},
			{ID: "sub2", Name: "Sub 2", Path: "data/subscribes/sub2.yaml", UseInternal: true, Rules: []string{"DOMAIN,hidden,DIRECT"}},
		},
		Rulesets: []*profile.Ruleset{
			{ID: "rs-cn", Name: "cn", Type: profile.RulesetHTTP, Behavior: "domain", Format: "mrs", URL: "https://r/cn.mrs", Path: "data/rulesets/cn.mrs"},
			{ID: "rs-ads", Name: "ads", Type: profile.RulesetFile, Behavior: "domain", Format: "yaml", Path: "data/rulesets/ads.yaml"},
		},
	}
}

func testProxies() fakeProxies {
	return fakeProxies{
		"sub1": {{"name": "hk-01", "type": "ss"}, {"name": "us-01", "type": "vmess"}, {"name": "jp-01", "type": "ss"}},
		"sub2": {{"name": "hk-01", "type": "trojan"}},
	}
}

// TestCompileStages tests the document produced by the base, DNS, provider, group and rule stages
// TestCompileStages 测试基础、DNS、provider、策略组与规则阶段生成的文档
func TestCompileStages(t *testing.T) {
	c := New(testProxies())
	res, err := c.Compile(context.Background(), testSnapshot())
	require.NoError(t, err)
	cfg := res.Config

	assert.Equal(t, "rule", cfg["mode"])
	assert.Equal(t, true, cfg["unified-delay"])
	assert.Equal(t, "", cfg["geox-url"].(map[string]any)["geoip"])

	tun := cfg["tun"].(map[string]any)
	assert.NotContains(t, tun, "route-address")
	assert.Equal(t, []any{"10.0.0.0/8"}, tun["route-exclude-address"])

	dns := cfg["dns"].(map[string]any)
	for _, k := range []string{"listen", "default-nameserver", "direct-nameserver", "fallback", "fallback-filter", "hosts"} {
		assert.NotContains(t, dns, k)
	}
	assert.Contains(t, dns, "nameserver")
	assert.Contains(t, dns, "proxy-server-nameserver")
	assert.Equal(t, map[string]any{"router.lan": "192.168.1.1", "dual.lan": []any{"10.0.0.1", "10.0.0.2"}}, cfg["hosts"])
	assert.Equal(t, map[string]any{
		"+.corp.com":    "10.1.1.1",
		"rule-set:cn":   []any{"223.5.5.5", "119.29.29.29"},
		"+.example.org": "1.1.1.1",
	}, dns["nameserver-policy"])
	assert.Equal(t, []any{"rule-set:ads", "rule-set:trackers", "+.lan", "RULE-SET,cn,real-ip"}, dns["fake-ip-filter"])

	assert.Equal(t, map[string]any{"sub1": map[string]any{"type": "file", "path": "../subscribes/sub1.yaml"}}, cfg["proxy-providers"])

	providers := cfg["rule-providers"].(map[string]any)
	assert.Len(t, providers, 2)
	assert.Equal(t, "http", providers["cn"].(map[string]any)["type"])
	assert.Equal(t, "../rulesets/cn.mrs", providers["cn"].(map[string]any)["path"])
	assert.Equal(t, "file", providers["ads"].(map[string]any)["type"])
	assert.Equal(t, []string{"trackers"}, res.Unresolved)

	assert.Equal(t, []any{
		map[string]any{"name": "hk-01", "type": "ss"},
		map[string]any{"name": "us-01", "type": "vmess"},
	}, cfg["proxies"])

	groups := cfg["proxy-groups"].([]any)
	require.Len(t, groups, 2)
	sel := groups[0].(map[string]any)
	assert.Equal(t, []any{"hk-01", "Auto", "DIRECT"}, sel["proxies"])
	assert.Equal(t, []string{"sub1", "ghost"}, sel["use"])
	assert.Contains(t, sel, "disable-udp")
	assert.NotContains(t, sel, "url")
	auto := groups[1].(map[string]any)
	assert.Equal(t, 50, auto["tolerance"])
	assert.NotContains(t, auto, "strategy")
	assert.NotContains(t, auto, "use")

	assert.Equal(t, []any{
		"DOMAIN,sub.rule,DIRECT",
		"DOMAIN-SUFFIX,google.com,Proxy",
		"IP-CIDR,10.0.0.0/8,DIRECT,no-resolve",
		"DOMAIN,a.com,Proxy",
		"RULE-SET,cn,DIRECT,no-resolve",
		"AND,((NETWORK,UDP),(DST-PORT,443)),REJECT",
		"SUB-RULE,(NETWORK,TCP),g1",
		"MATCH,Auto",
	}, cfg["rules"])
	assert.Equal(t, map[string]any{"g1": []any{"MATCH,DIRECT"}}, cfg["sub-rules"])
}

// TestCompileIsPure tests identical output for identical inputs and an untouched snapshot
// TestCompileIsPure 测试相同输入产生相同输出且快照不被修改
func TestCompileIsPure(t *testing.T) {
	snap := testSnapshot()
	before := snap.Profile.Clone()
	c := New(testProxies())

	first, err := c.Compile(context.Background(), snap)
	require.NoError(t, err)
	second, err := c.Compile(context.Background(), snap)
	require.NoError(t, err)

	assert.Equal(t, first.Config, second.Config)
	assert.Equal(t, before, snap.Profile)
}

// TestUnresolvedTrackersDropped tests that only the defined rule-set reaches the provider map
// TestUnresolvedTrackersDropped 测试只有已定义的规则集进入 provider 映射
func TestUnresolvedTrackersDropped(t *testing.T) {
	snap := &profile.Snapshot{
		Profile: &profile.Profile{
			ID:        "p",
			DNSConfig: map[string]any{"fake-ip-filter": []any{"rule-set:ads,trackers"}},
		},
		Rulesets: []*profile.Ruleset{{ID: "x", Name: "ads", Type: profile.RulesetFile, Path: "data/rulesets/ads.yaml"}},
	}
	res, err := New(fakeProxies{}).Compile(context.Background(), snap)
	require.NoError(t, err)

	providers := res.Config["rule-providers"].(map[string]any)
	assert.Len(t, providers, 1)
	assert.Contains(t, providers, "ads")
	assert.Equal(t, []string{"trackers"}, res.Unresolved)
}

// TestMixinProviderSurvives tests that a mixin rule-provider beats the store-generated one
// TestMixinProviderSurvives 测试混入的 rule-provider 优先于存储生成的定义
func TestMixinProviderSurvives(t *testing.T) {
	snap := &profile.Snapshot{
		Profile: &profile.Profile{
			ID: "p",
			Rules: []profile.Rule{
				{Type: profile.RuleRuleSet, Payload: "R1", RulesetType: "file", Proxy: "DIRECT", Enable: true},
			},
			Mixin: profile.MixinConfig{
				Priority: profile.PriorityGUI,
				Config:   "rule-providers:\n  R1:\n    type: http\n    url: https://mixin/r1.yaml\n    behavior: classical\n",
			},
		},
		Rulesets: []*profile.Ruleset{{ID: "R1", Name: "R1", Type: profile.RulesetFile, Behavior: "domain", Path: "data/rulesets/r1.yaml"}},
	}
	res, err := New(fakeProxies{}).Compile(context.Background(), snap)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"type": "http", "url": "https://mixin/r1.yaml", "behavior": "classical",
	}, res.Config["rule-providers"].(map[string]any)["R1"])
}

func TestMixinPriority(t *testing.T) {
	mixin := map[string]any{"mode": "global", "dns": map[string]any{"ipv6": true}, "extra": 1}

	config := map[string]any{"mode": "rule", "dns": map[string]any{"enable": true, "ipv6": false}}
	out := MergeMixin(config, mixin, profile.PriorityMixin)
	assert.Equal(t, "global", out["mode"])
	assert.Equal(t, map[string]any{"enable": true, "ipv6": true}, out["dns"])
	assert.Equal(t, 1, out["extra"])

	config = map[string]any{"mode": "rule", "dns": map[string]any{"enable": true, "ipv6": false}}
	out = MergeMixin(config, mixin, profile.PriorityGUI)
	assert.Equal(t, "rule", out["mode"])
	assert.Equal(t, map[string]any{"enable": true, "ipv6": false}, out["dns"])
	assert.Equal(t, 1, out["extra"])

	assert.Equal(t, map[string]any{"global": "keep"}, MergeMixin(map[string]any{"global": "keep"}, mixin, "other"))
}

func TestMixinDNSReferences(t *testing.T) {
	snap := &profile.Snapshot{
		Profile: &profile.Profile{
			ID: "p",
			Mixin: profile.MixinConfig{
				Priority: profile.PriorityMixin,
				Config:   "dns:\n  nameserver-policy:\n    'rule-set:ads': 1.1.1.1\n",
			},
		},
		Rulesets: []*profile.Ruleset{{ID: "a", Name: "ads", Type: profile.RulesetFile, Path: "data/rulesets/ads.yaml"}},
	}
	res, err := New(fakeProxies{}).Compile(context.Background(), snap)
	require.NoError(t, err)
	assert.Contains(t, res.Config["rule-providers"], "ads")
	assert.Equal(t, "1.1.1.1", res.Config["dns"].(map[string]any)["nameserver-policy"].(map[string]any)["rule-set:ads"])

	snap.Profile.Mixin.Config = "dns: [unclosed"
	_, err = New(fakeProxies{}).Compile(context.Background(), snap)
	assert.Error(t, err)
}

// TestFinalizeScript tests the profile script contract
// TestFinalizeScript 测试配置脚本契约
func TestFinalizeScript(t *testing.T) {
	snap := &profile.Snapshot{Profile: &profile.Profile{ID: "p", GeneralConfig: map[string]any{"mode": "rule"}}}
	c := New(fakeProxies{})
	ctx := context.Background()

	snap.Profile.Script.Code = `const onGenerate = async (config) => { config.mode = "direct"; return config }`
	res, err := c.Compile(ctx, snap)
	require.NoError(t, err)
	assert.Equal(t, "direct", res.Config["mode"])

	snap.Profile.Script.Code = `function onGenerate(config) { return "nope" }`
	_, err = c.Compile(ctx, snap)
	assert.ErrorIs(t, err, apperrors.ErrWrongResult)

	snap.Profile.Script.Code = `function other() {}`
	_, err = c.Compile(ctx, snap)
	assert.ErrorIs(t, err, apperrors.ErrHookNotDefined)

	snap.Profile.Script.Code = ""
	res, err = c.Compile(ctx, snap)
	require.NoError(t, err)
	assert.Equal(t, "rule", res.Config["mode"])
}

func TestPluginStage(t *testing.T) {
	snap := &profile.Snapshot{Profile: &profile.Profile{
		ID: "p", Name: "Default",
		Mixin: profile.MixinConfig{Priority: profile.PriorityMixin, Config: "x-plugin: overridden-by-mixin"},
	}}
	hooks := &recordingHooks{}
	c := New(fakeProxies{}, WithHooks(hooks))

	res, err := c.Compile(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, "overridden-by-mixin", res.Config["x-plugin"])

	snap.Profile.Mixin.Config = ""
	res, err = c.Compile(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, "Default", res.Config["x-plugin"])

	hooks.fail = errors.New("Plugin a : boom")
	_, err = c.Compile(context.Background(), snap)
	assert.EqualError(t, err, "Plugin a : boom")
}

// TestWriteFile tests the header, the before-start hook and the log level clamp
// TestWriteFile 测试文件头、启动前钩子与日志级别限制
func TestWriteFile(t *testing.T) {
	files := storage.NewDiskStore(t.TempDir())
	snap := testSnapshot()
	c := New(testProxies(), WithHooks(&recordingHooks{}))

	res, err := c.WriteFile(context.Background(), snap, files, "data/mihomo/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "info", res.Config["log-level"])
	assert.Equal(t, true, res.Config["x-before-start"])

	content, err := files.ReadFile("data/mihomo/config.yaml")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(content, Header))
	assert.Contains(t, content, "log-level: info")
	assert.Contains(t, content, "x-before-start: true")

	snap.Profile.GeneralConfig["log-level"] = "debug"
	res, err = c.WriteFile(context.Background(), snap, files, "data/mihomo/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "debug", res.Config["log-level"])
}

func TestRenderRule(t *testing.T) {
	snap := &profile.Snapshot{}
	groups := []profile.ProxyGroup{{ID: "g1", Name: "Proxy"}}

	cases := []struct {
		rule profile.Rule
		want string
	}{
		{profile.Rule{Type: profile.RuleMatch, Payload: "ignored", Proxy: "g1"}, "MATCH,Proxy"},
		{profile.Rule{Type: profile.RuleGeoIP, Payload: "CN", Proxy: "DIRECT", NoResolve: true}, "GEOIP,CN,DIRECT,no-resolve"},
		{profile.Rule{Type: profile.RuleRuleSet, RulesetType: "http", RulesetName: "remote", Proxy: "g1"}, "RULE-SET,remote,Proxy"},
		{profile.Rule{Type: profile.RuleRuleSet, RulesetType: "file", Payload: "missing", Proxy: "g1"}, "RULE-SET,Proxy"},
		{profile.Rule{Type: profile.RuleLogic, Payload: "sub-rule,(DOMAIN,x)", Proxy: "g1"}, "sub-rule,(DOMAIN,x),g1"},
		{profile.Rule{Type: profile.RuleIPASN, Payload: "13335", Proxy: "g1", NoResolve: true}, "IP-ASN,13335,Proxy,no-resolve"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, RenderRule(tc.rule, snap, groups))
	}
}
