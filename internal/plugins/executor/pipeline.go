package executor

import (
	"context"

	"github.com/livp123/gfcore/internal/metrics"
	"github.com/livp123/gfcore/internal/plugins/types"
	"github.com/livp123/gfcore/internal/utils/logger"
	"github.com/livp123/gfcore/internal/utils/maputil"
	apperrors "github.com/livp123/gfcore/pkg/errors"
)

// step computes the arguments of the next hook from the current value.
type step struct {
	args  func(cur any) []any
	check func(out any) bool
}

// chain feeds each available observer the previous observer's output. The first
// failure or contract violation aborts the chain with the plugin's name attached.
func (r *Runtime) chain(ctx context.Context, t types.Trigger, input any, s step) (any, error) {
	cur := input
	for _, id := range r.observers.Observers(t) {
		e, ok := r.plugins.Source(id)
		if !Available(e, ok) {
			metrics.HookSkippedTotal.WithLabelValues(string(t)).Inc()
			logger.Get(ctx).Debugf("[PLUGIN] Skipping unavailable plugin %s on %s", id, t)
			continue
		}
		out, err := r.invoke(ctx, t, e, t.Event(), s.args(cur))
		if err != nil {
			return nil, apperrors.NewPluginError(e.Plugin.Name, err)
		}
		if !s.check(out) {
			return nil, apperrors.NewPluginError(e.Plugin.Name, apperrors.ErrWrongResult)
		}
		cur = out
	}
	return cur, nil
}

// OnSubscribe passes a subscription's proxy list through every observer. Each
// hook must return a list.
// OnSubscribe 将订阅的节点列表依次交给每个观察者处理。每个钩子必须返回列表。
func (r *Runtime) OnSubscribe(ctx context.Context, proxies []any, subscription any) ([]any, error) {
	sub := maputil.Clone(subscription)
	out, err := r.chain(ctx, types.OnSubscribe, proxies, step{
		args:  func(cur any) []any { return []any{cur, sub} },
		check: maputil.IsList,
	})
	if err != nil {
		return nil, err
	}
	list, _ := out.([]any)
	if list == nil && out != nil {
		list = []any{}
	}
	return list, nil
}

// OnGenerate passes the generated config through every observer together with
// a copy of the profile it came from.
// OnGenerate 将生成的配置与其来源配置文件的副本一起依次交给每个观察者。
func (r *Runtime) OnGenerate(ctx context.Context, config map[string]any, profile any) (map[string]any, error) {
	return r.configChain(ctx, types.OnGenerate, config, profile)
}

// OnBeforeCoreStart passes the config about to be written for the core through
// every observer.
// OnBeforeCoreStart 将即将写给内核的配置依次交给每个观察者。
func (r *Runtime) OnBeforeCoreStart(ctx context.Context, config map[string]any, profile any) (map[string]any, error) {
	return r.configChain(ctx, types.OnBeforeCoreStart, config, profile)
}

func (r *Runtime) configChain(ctx context.Context, t types.Trigger, config map[string]any, profile any) (map[string]any, error) {
	prof := maputil.Clone(profile)
	out, err := r.chain(ctx, t, config, step{
		args: func(cur any) []any { return []any{cur, prof} },
		check: func(out any) bool {
			_, ok := out.(map[string]any)
			return ok && maputil.Truthy(out)
		},
	})
	if err != nil {
		return nil, err
	}
	m, _ := out.(map[string]any)
	return m, nil
}

// OnTrayUpdate passes the tray content and menu list through every observer.
// Each hook returns an object carrying both.
// OnTrayUpdate 将托盘内容与菜单列表依次交给每个观察者。每个钩子返回同时包含两者的对象。
func (r *Runtime) OnTrayUpdate(ctx context.Context, tray any, menus []any) (any, []any, error) {
	out, err := r.chain(ctx, types.OnTrayUpdate, map[string]any{"tray": tray, "menus": menus}, step{
		args: func(cur any) []any {
			m := cur.(map[string]any)
			return []any{m["tray"], m["menus"]}
		},
		check: func(out any) bool {
			_, ok := out.(map[string]any)
			return ok
		},
	})
	if err != nil {
		return nil, nil, err
	}
	m := out.(map[string]any)
	list, _ := m["menus"].([]any)
	return m["tray"], list, nil
}
