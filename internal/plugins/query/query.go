// Package query filters plugin lists with boolean expressions such as
// `Disabled == false && HasTrigger("on::generate")`.
package query

import (
	"fmt"
	"slices"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/livp123/gfcore/internal/plugins/types"
)

// Env is what a filter expression sees for one plugin.
// Env 是过滤表达式针对单个插件可见的环境。
type Env struct {
	ID          string
	Name        string
	Version     string
	Type        string
	Path        string
	URL         string
	Status      int
	Disabled    bool
	HasUI       bool
	FromHub     bool
	Tags        []string
	Triggers    []string
	Deprecated  bool
	NewVersion  bool
	HasSettings bool
}

// HasTrigger reports whether the plugin observes t. Both the trigger name and
// its event name are accepted.
// HasTrigger 报告插件是否观察 t，支持触发器名称与事件名称。
func (e Env) HasTrigger(t string) bool {
	for _, name := range e.Triggers {
		if strings.EqualFold(name, t) || strings.EqualFold(types.Trigger(name).Event(), t) {
			return true
		}
	}
	return false
}

// HasTag reports whether the plugin carries tag.
// HasTag 报告插件是否带有 tag 标签。
func (e Env) HasTag(tag string) bool {
	return slices.Contains(e.Tags, tag)
}

// Catalogue answers the hub related fields of Env. It may be nil.
// Catalogue 提供 Env 中与插件仓库相关的字段，可以为 nil。
type Catalogue interface {
	IsDeprecated(p *types.Plugin) bool
	HasNewVersion(p *types.Plugin) bool
}

// NewEnv builds the expression environment for p.
// NewEnv 为 p 构建表达式环境。
func NewEnv(p *types.Plugin, hub Catalogue) Env {
	env := Env{
		ID:          p.ID,
		Name:        p.Name,
		Version:     p.Version,
		Type:        string(p.Type),
		Path:        p.Path,
		URL:         p.URL,
		Status:      p.Status,
		Disabled:    p.Disabled,
		HasUI:       p.HasUI,
		FromHub:     p.FromHub(),
		Tags:        append([]string(nil), p.Tags...),
		HasSettings: len(p.Configuration) > 0,
	}
	for _, t := range p.Triggers {
		env.Triggers = append(env.Triggers, string(t))
	}
	if hub != nil {
		env.Deprecated = hub.IsDeprecated(p)
		env.NewVersion = hub.HasNewVersion(p)
	}
	return env
}

// Filter is a compiled plugin predicate.
// Filter 是编译后的插件谓词。
type Filter struct {
	src     string
	program *vm.Program
}

// Compile parses a boolean expression over Env.
// Compile 解析基于 Env 的布尔表达式。
func Compile(src string) (*Filter, error) {
	program, err := expr.Compile(src, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", src, err)
	}
	return &Filter{src: src, program: program}, nil
}

// Match evaluates the filter against p.
// Match 针对 p 计算过滤表达式。
func (f *Filter) Match(p *types.Plugin, hub Catalogue) (bool, error) {
	out, err := expr.Run(f.program, NewEnv(p, hub))
	if err != nil {
		return false, fmt.Errorf("evaluate %q on %s: %w", f.src, p.ID, err)
	}
	return out.(bool), nil
}

// Select keeps the plugins the filter matches, in order. A nil filter keeps all.
// Select 按顺序保留过滤器匹配的插件。过滤器为 nil 时保留全部。
func Select(f *Filter, list []*types.Plugin, hub Catalogue) ([]*types.Plugin, error) {
	if f == nil {
		return list, nil
	}
	var out []*types.Plugin
	for _, p := range list {
		ok, err := f.Match(p, hub)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, p)
		}
	}
	return out, nil
}
