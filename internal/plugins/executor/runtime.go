// Package executor runs plugin hooks for one trigger at a time and applies the
// failure policy of the trigger's class.
package executor

import (
	"context"
	"errors"
	"time"

	"github.com/livp123/gfcore/internal/metrics"
	"github.com/livp123/gfcore/internal/plugins/registry"
	"github.com/livp123/gfcore/internal/plugins/types"
	"github.com/livp123/gfcore/internal/script"
	"github.com/livp123/gfcore/internal/utils/logger"
	"github.com/livp123/gfcore/internal/utils/maputil"
	apperrors "github.com/livp123/gfcore/pkg/errors"
)

// MetadataBinding is the global name under which hooks see their plugin metadata.
// MetadataBinding 是钩子访问插件元数据时使用的全局名称。
const MetadataBinding = "Plugin"

// PluginSource is the read-only view of installed plugins the runtime needs.
// PluginSource 是运行时所需的已安装插件只读视图。
type PluginSource interface {
	Get(id string) (*types.Plugin, bool)
	Source(id string) (registry.Entry, bool)
}

// ObserverSource lists subscribed plugin ids per trigger in dispatch order.
// ObserverSource 按分发顺序列出每个触发器的订阅插件 id。
type ObserverSource interface {
	Observers(t types.Trigger) []string
}

// SettingsReader returns stored user overrides for a plugin.
// SettingsReader 返回插件已保存的用户覆盖值。
type SettingsReader interface {
	PluginSettings(id string) (map[string]any, bool)
}

// StatusWriter persists a changed exit status.
// StatusWriter 持久化变化的退出状态。
type StatusWriter interface {
	SetStatus(ctx context.Context, id string, status int) error
}

// Outcome is the result of one observer's hook call during a broadcast.
// Outcome 是广播期间单个观察者钩子调用的结果。
type Outcome struct {
	ID     string
	Name   string
	Status int
	Result types.Result
	Err    error
}

// StatusChanged reports the new status when the hook returned an exit code
// different from the stored one.
// StatusChanged 在钩子返回的退出码与已保存值不同时报告新状态。
func (o Outcome) StatusChanged() (int, bool) {
	code, ok := o.Result.Status()
	if !ok || o.Err != nil || code == o.Status {
		return 0, false
	}
	return code, true
}

// Runtime invokes plugin hooks through a capability-restricted evaluator.
// Runtime 通过能力受限的求值器调用插件钩子。
type Runtime struct {
	plugins   PluginSource
	observers ObserverSource
	settings  SettingsReader
	engines   script.Selector
}

type Option func(*Runtime)

// WithSettings sets the store consulted for per-plugin user overrides.
// WithSettings 设置查询插件用户覆盖值的存储。
func WithSettings(s SettingsReader) Option {
	return func(r *Runtime) { r.settings = s }
}

// WithEngines replaces the default JavaScript/Lua engine selection.
// WithEngines 替换默认的 JavaScript/Lua 引擎选择。
func WithEngines(sel script.Selector) Option {
	return func(r *Runtime) { r.engines = sel }
}

// New creates a runtime over a plugin view and an observer table.
// New 基于插件视图与观察者表创建运行时。
func New(plugins PluginSource, observers ObserverSource, opts ...Option) *Runtime {
	r := &Runtime{
		plugins:   plugins,
		observers: observers,
		engines:   script.NewEngines(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Available reports whether a cached entry can take part in a broadcast.
// Available 报告缓存条目能否参与广播。
func Available(e registry.Entry, ok bool) bool {
	if !ok || e.Plugin == nil {
		return false
	}
	return !e.Plugin.Disabled && !e.Plugin.NeedsInstall()
}

// Metadata returns the document bound as the hook's plugin argument: the plugin
// fields, then declared defaults, then stored overrides. The result is a copy.
// Metadata 返回作为钩子插件参数绑定的文档：插件字段、声明的默认值、已保存的覆盖值依次叠加。结果为副本。
func (r *Runtime) Metadata(p *types.Plugin) map[string]any {
	meta, err := maputil.ToMap(p)
	if err != nil {
		meta = map[string]any{"id": p.ID, "name": p.Name}
	}
	for k, v := range p.Defaults() {
		meta[k] = v
	}
	if r.settings != nil {
		if overrides, ok := r.settings.PluginSettings(p.ID); ok {
			for k, v := range overrides {
				meta[k] = maputil.Clone(v)
			}
		}
	}
	return meta
}

// invoke runs one hook of the cached plugin with args and records metrics.
func (r *Runtime) invoke(ctx context.Context, t types.Trigger, e registry.Entry, event string, args []any) (any, error) {
	call := script.Call{
		Name:     e.Plugin.Path,
		Source:   e.Source,
		Function: event,
		Bindings: []script.Binding{{Name: MetadataBinding, Value: r.Metadata(e.Plugin)}},
		Args:     args,
	}

	start := time.Now()
	out, err := r.engines.ForPath(e.Plugin.Path).Invoke(ctx, call)
	metrics.HookDuration.WithLabelValues(string(t)).Observe(time.Since(start).Seconds())
	metrics.HookCallsTotal.WithLabelValues(string(t), metrics.Outcome(err)).Inc()
	return out, err
}

// Broadcast calls the hook of every available observer of a trigger that takes
// no arguments. Lifecycle triggers log a failing observer and continue;
// interrupting triggers stop at the first failure and return it. Statuses are
// not persisted here; see PersistStatus.
// Broadcast 调用无参数触发器所有可用观察者的钩子。生命周期触发器记录失败并继续；
// 中断型触发器在首次失败时停止并返回错误。此处不持久化状态，参见 PersistStatus。
func (r *Runtime) Broadcast(ctx context.Context, t types.Trigger) ([]Outcome, error) {
	if !t.Valid() || t.Class() == types.ClassPipeline {
		return nil, apperrors.ErrInvalidTrigger
	}
	log := logger.Get(ctx)

	var outcomes []Outcome
	for _, id := range r.observers.Observers(t) {
		e, ok := r.plugins.Source(id)
		if !Available(e, ok) {
			metrics.HookSkippedTotal.WithLabelValues(string(t)).Inc()
			log.Debugf("[PLUGIN] Skipping unavailable plugin %s on %s", id, t)
			continue
		}

		out, err := r.invoke(ctx, t, e, t.Event(), nil)
		o := Outcome{ID: id, Name: e.Plugin.Name, Status: e.Plugin.Status, Result: types.NewResult(out)}
		if err != nil {
			o.Err = apperrors.NewPluginError(e.Plugin.Name, err)
			if t.Class() == types.ClassInterrupting {
				return append(outcomes, o), o.Err
			}
			log.Errorf("%v", o.Err)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, nil
}

// Manual invokes event on a single plugin. Unlike a broadcast, a missing source
// or a disabled plugin is an error.
// Manual 在单个插件上调用 event。与广播不同，缺少源码或插件被禁用均视为错误。
func (r *Runtime) Manual(ctx context.Context, id, event string, args ...any) (Outcome, error) {
	p, ok := r.plugins.Get(id)
	if !ok {
		return Outcome{}, apperrors.NewNotFoundError(id)
	}
	e, ok := r.plugins.Source(id)
	if !ok {
		return Outcome{}, apperrors.NewMissingSourceError(p.Name)
	}
	if e.Plugin.Disabled {
		return Outcome{}, apperrors.NewDisabledError(p.Name)
	}
	if event == "" {
		event = types.OnManual.Event()
	}

	cloned := make([]any, len(args))
	for i, a := range args {
		cloned[i] = maputil.Clone(a)
	}

	// Metadata comes from the registry record; source from the cache.
	// 元数据取自注册表记录，源码取自缓存。
	e.Plugin = p
	out, err := r.invoke(ctx, types.OnManual, e, event, cloned)
	o := Outcome{ID: id, Name: p.Name, Status: p.Status, Result: types.NewResult(out)}
	if err != nil {
		o.Err = apperrors.NewPluginError(p.Name, err)
		return o, o.Err
	}
	return o, nil
}

// PersistStatus writes back every exit code that differs from the stored status.
// Failures are logged; the broadcast result stands.
// PersistStatus 写回所有与已保存状态不同的退出码。失败仅记录日志，不影响广播结果。
func PersistStatus(ctx context.Context, w StatusWriter, outcomes ...Outcome) {
	for _, o := range outcomes {
		code, changed := o.StatusChanged()
		if !changed {
			continue
		}
		if err := w.SetStatus(ctx, o.ID, code); err != nil {
			logger.Get(ctx).Warnf("[PLUGIN] Failed to save status of %s: %v", o.Name, err)
		}
	}
}

// IsWrongResult reports whether err is a result contract violation.
// IsWrongResult 报告 err 是否为返回值契约违规。
func IsWrongResult(err error) bool {
	return errors.Is(err, apperrors.ErrWrongResult)
}
