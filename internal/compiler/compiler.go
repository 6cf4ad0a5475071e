// Package compiler turns a profile and its inputs into the config document
// consumed by the proxy core.
package compiler

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/livp123/gfcore/internal/compiler/ruleprovider"
	"github.com/livp123/gfcore/internal/metrics"
	"github.com/livp123/gfcore/internal/profile"
	"github.com/livp123/gfcore/internal/script"
	"github.com/livp123/gfcore/internal/utils/logger"
	"github.com/livp123/gfcore/internal/utils/maputil"
	apperrors "github.com/livp123/gfcore/pkg/errors"
)

// Hooks is the plugin pipeline the compiler calls into.
// Hooks 是编译器调用的插件流水线。
type Hooks interface {
	OnGenerate(ctx context.Context, config map[string]any, profile any) (map[string]any, error)
	OnBeforeCoreStart(ctx context.Context, config map[string]any, profile any) (map[string]any, error)
}

// FinalizeFunction is the function the profile script must define.
// FinalizeFunction 是配置脚本必须定义的函数。
const FinalizeFunction = "onGenerate"

// Result is a compiled config plus the rule-set names nothing defined.
// Result 是编译后的配置以及没有任何定义的规则集名称。
type Result struct {
	Config     map[string]any
	Unresolved []string
}

// Compiler runs the compile pipeline.
// Compiler 执行编译流水线。
type Compiler struct {
	hooks    Hooks
	proxies  profile.ProxySource
	finalize script.Engine
}

type Option func(*Compiler)

// WithHooks attaches the plugin pipeline. Without it the plugin stage is a no-op.
// WithHooks 绑定插件流水线。未绑定时插件阶段不做任何处理。
func WithHooks(h Hooks) Option {
	return func(c *Compiler) { c.hooks = h }
}

// WithFinalizeEngine replaces the engine that runs the profile script.
// WithFinalizeEngine 替换执行配置脚本的引擎。
func WithFinalizeEngine(e script.Engine) Option {
	return func(c *Compiler) { c.finalize = e }
}

// New creates a compiler reading subscription proxies from proxies.
// New 创建从 proxies 读取订阅节点的编译器。
func New(proxies profile.ProxySource, opts ...Option) *Compiler {
	c := &Compiler{proxies: proxies, finalize: script.NewJSEngine()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile runs every stage over a snapshot of the inputs. The snapshot is not
// modified.
// Compile 在输入快照上执行所有阶段，不修改快照。
func (c *Compiler) Compile(ctx context.Context, snap *profile.Snapshot) (res *Result, err error) {
	defer func() { metrics.CompileTotal.WithLabelValues(metrics.Outcome(err)).Inc() }()
	log := logger.Get(ctx)

	original := snap.Profile
	p := original.Clone()

	mixin, err := parseMixin(p.Mixin.Config)
	if err != nil {
		return nil, err
	}

	// Base merge and DNS normalization.
	// 基础合并与 DNS 规范化。
	config := baseConfig(p)
	dns := normalizeDNS(config)

	// Providers.
	// Provider 合成。
	config["proxy-providers"] = proxyProviders(snap, p.ProxyGroups)
	mixinProviders, _ := maputil.Map(mixin["rule-providers"])
	mixinDNS, _ := maputil.Map(mixin["dns"])
	resolver := ruleprovider.New(snap, mixinProviders, p.DNSRuleProviders)
	groupName := func(id string) (string, bool) {
		g, ok := p.Group(id)
		return g.Name, ok
	}
	for _, rule := range p.Rules {
		resolver.AddRule(rule, groupName)
	}
	resolver.AddDNS(dns)
	resolver.AddDNS(mixinDNS)
	config["rule-providers"] = resolver.Providers()
	unresolved := resolver.Unresolved()
	for _, name := range unresolved {
		log.Warnf("[COMPILE] Rule-set %q is referenced but not defined; dropped", name)
	}
	metrics.UnresolvedProvidersTotal.Add(float64(len(unresolved)))

	config["proxies"] = c.collectProxies(ctx, snap, p.ProxyGroups)

	// Groups and rules.
	// 策略组与规则。
	groups := make([]any, 0, len(p.ProxyGroups))
	for _, g := range p.ProxyGroups {
		groups = append(groups, RenderGroup(g, p.ProxyGroups))
	}
	config["proxy-groups"] = groups
	config["rules"] = renderRules(snap, p)
	if len(p.SubRules) > 0 {
		config["sub-rules"] = maputil.CloneMap(p.SubRules)
	}

	// Plugins.
	// 插件。
	if c.hooks != nil {
		doc, err := maputil.ToMap(original)
		if err != nil {
			return nil, err
		}
		if config, err = c.hooks.OnGenerate(ctx, config, doc); err != nil {
			return nil, err
		}
	}

	// Mixin.
	// 混入。
	config = MergeMixin(config, mixin, p.Mixin.Priority)

	// Finalize script.
	// 最终处理脚本。
	if config, err = c.runScript(ctx, p.Script.Code, config); err != nil {
		return nil, err
	}

	log.Debugf("[COMPILE] Compiled profile %s", p.Name)
	return &Result{Config: config, Unresolved: unresolved}, nil
}

func parseMixin(src string) (map[string]any, error) {
	out := map[string]any{}
	if src == "" {
		return out, nil
	}
	if err := yaml.Unmarshal([]byte(src), &out); err != nil {
		return nil, fmt.Errorf("parse mixin: %w", err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

// MergeMixin applies the override document. With priority "mixin" the
// override wins every conflict; with "gui" the generated config wins and the
// override only fills absent keys. Any other priority leaves config untouched.
// MergeMixin 应用覆盖文档。优先级为 "mixin" 时覆盖文档在所有冲突中胜出；为 "gui" 时生成的配置胜出，
// 覆盖文档仅补充缺失的键。其他优先级不修改配置。
func MergeMixin(config, mixin map[string]any, priority string) map[string]any {
	if len(mixin) == 0 {
		return config
	}
	switch priority {
	case profile.PriorityMixin:
		return maputil.DeepMerge(config, maputil.CloneMap(mixin))
	case profile.PriorityGUI:
		return maputil.DeepMerge(config, maputil.DeepMerge(maputil.CloneMap(mixin), config))
	}
	return config
}

// runScript calls the profile's onGenerate with the merged config. An empty
// script passes the config through.
func (c *Compiler) runScript(ctx context.Context, code string, config map[string]any) (map[string]any, error) {
	if code == "" {
		return config, nil
	}
	out, err := c.finalize.Invoke(ctx, script.Call{
		Name:     "profile script",
		Source:   code,
		Function: FinalizeFunction,
		Args:     []any{config},
	})
	if err != nil {
		return nil, err
	}
	result, ok := out.(map[string]any)
	if !ok {
		return nil, apperrors.ErrWrongResult
	}
	return result, nil
}
