package app

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/livp123/gfcore/internal/compiler"
	"github.com/livp123/gfcore/internal/metrics"
	"github.com/livp123/gfcore/internal/plugins/executor"
	"github.com/livp123/gfcore/internal/plugins/registry"
	"github.com/livp123/gfcore/internal/plugins/types"
	"github.com/livp123/gfcore/internal/profile"
	"github.com/livp123/gfcore/internal/utils/logger"
	"github.com/livp123/gfcore/internal/utils/maputil"
	apperrors "github.com/livp123/gfcore/pkg/errors"
	"github.com/livp123/gfcore/pkg/storage"
)

// ProfileID picks the profile to compile: the explicit id, else the configured
// kernel profile, else the first stored profile.
// ProfileID 选择要编译的配置：优先显式 id，其次配置的内核配置，最后为第一个已保存的配置。
func (a *App) ProfileID(id string) (string, error) {
	if id != "" {
		return id, nil
	}
	if id = a.Config.GetConfig().Kernel.Profile; id != "" {
		return id, nil
	}
	if list := a.Stores.Profiles.List(); len(list) > 0 {
		return list[0].ID, nil
	}
	return "", apperrors.ErrProfileNotFound
}

// Generate compiles a profile and writes the core config file.
// Generate 编译配置并写入内核配置文件。
func (a *App) Generate(ctx context.Context, profileID string) (*compiler.Result, error) {
	id, err := a.ProfileID(profileID)
	if err != nil {
		return nil, err
	}
	snap, err := a.Stores.Snapshot(id)
	if err != nil {
		return nil, err
	}
	path := a.Config.GetConfig().Kernel.ConfigPath
	res, err := a.Compiler.WriteFile(ctx, snap, a.Files, path)
	if err != nil {
		return nil, err
	}
	logger.Get(ctx).Infof("[GENERATE] Wrote %s from profile %s", a.Files.GetPath(path), snap.Profile.Name)
	return res, nil
}

// Trigger broadcasts a lifecycle or interrupting trigger and records every
// status the hooks returned.
// Trigger 广播生命周期或中断型触发器，并记录钩子返回的所有状态。
func (a *App) Trigger(ctx context.Context, t types.Trigger) ([]executor.Outcome, error) {
	outcomes, err := a.Runtime.Broadcast(ctx, t)
	executor.PersistStatus(ctx, a.Plugins, outcomes...)
	return outcomes, err
}

// RunManual invokes one plugin's handler and records the status it returned.
// RunManual 调用单个插件的处理函数并记录其返回的状态。
func (a *App) RunManual(ctx context.Context, id, event string, args ...any) (executor.Outcome, error) {
	out, err := a.Runtime.Manual(ctx, id, event, args...)
	if err == nil {
		executor.PersistStatus(ctx, a.Plugins, out)
	}
	return out, err
}

// Subscribe passes a proxy list through the on::subscribe observers together
// with the stored subscription subscriptionID, if given. Nil proxies are read
// from the subscription's cached file. With write the result replaces that file.
// Subscribe 将节点列表与已保存的订阅（若给出 subscriptionID）一起交给 on::subscribe 观察者处理。
// proxies 为 nil 时从订阅的缓存文件读取。write 为真时结果会替换该文件。
func (a *App) Subscribe(ctx context.Context, subscriptionID string, proxies []any, write bool) ([]any, error) {
	if write && subscriptionID == "" {
		return nil, apperrors.NewConfigError("subscription", "")
	}
	var sub *profile.Subscription
	doc := map[string]any{}
	if subscriptionID != "" {
		var ok bool
		if sub, ok = a.Stores.Subscriptions.Get(subscriptionID); !ok {
			return nil, apperrors.NewNotFoundError(subscriptionID)
		}
		var err error
		if doc, err = maputil.ToMap(sub); err != nil {
			return nil, err
		}
	}
	if proxies == nil && sub != nil {
		cached, err := profile.FileProxies{Files: a.Files}.Proxies(sub)
		if err != nil {
			return nil, apperrors.NewFileError(sub.Path, err)
		}
		proxies = make([]any, len(cached))
		for i, p := range cached {
			proxies[i] = p
		}
	}
	if proxies == nil {
		proxies = []any{}
	}

	out, err := a.Runtime.OnSubscribe(ctx, proxies, doc)
	if err != nil {
		return nil, err
	}
	if write {
		if err := storage.SaveYAML(a.Files, sub.Path, map[string]any{"proxies": out}); err != nil {
			return nil, apperrors.NewPersistenceError(sub.Path, err)
		}
		logger.Get(ctx).Infof("[SUBSCRIBE] Wrote %d proxies of %s", len(out), sub.Name)
	}
	return out, nil
}

// FlushMetrics exports the default registry to the configured textfile and
// Pushgateway. It is a no-op while metrics are disabled.
// FlushMetrics 将默认注册表导出到配置的文本文件与 Pushgateway。指标关闭时不做任何事。
func (a *App) FlushMetrics(ctx context.Context) error {
	return a.flushMetrics(ctx, prometheus.DefaultGatherer)
}

func (a *App) flushMetrics(ctx context.Context, g prometheus.Gatherer) error {
	cfg := a.Config.GetConfig().Metrics
	if !cfg.Enabled {
		return nil
	}
	a.updateGauges()

	var errs []error
	if cfg.Textfile != "" {
		if err := metrics.WriteTextfile(g, a.Files.GetPath(cfg.Textfile)); err != nil {
			errs = append(errs, err)
		}
	}
	if err := metrics.Push(g, cfg.PushGateway); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		logger.Get(ctx).Warnf("[METRICS] Export failed: %v", err)
		return err
	}
	return nil
}

func (a *App) updateGauges() {
	enabled, disabled := 0, 0
	for _, p := range a.Plugins.List() {
		if registry.Active(p) {
			enabled++
		} else {
			disabled++
		}
	}
	metrics.PluginsCount.WithLabelValues("enabled").Set(float64(enabled))
	metrics.PluginsCount.WithLabelValues("disabled").Set(float64(disabled))
}
