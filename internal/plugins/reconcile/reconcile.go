// Package reconcile brings an installed plugin in line with its published
// counterpart and refreshes its source text.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/livp123/gfcore/internal/plugins/registry"
	"github.com/livp123/gfcore/internal/plugins/types"
	"github.com/livp123/gfcore/internal/utils/logger"
	"github.com/livp123/gfcore/internal/utils/maputil"
	apperrors "github.com/livp123/gfcore/pkg/errors"
	"github.com/livp123/gfcore/pkg/storage"
)

// Catalogue looks up published plugins.
// Catalogue 查询已发布的插件。
type Catalogue interface {
	Find(id string) (*types.Plugin, bool)
}

// Store is the part of the registry the reconciler writes to. Replace changes
// the record in memory; the caller decides when to persist.
// Store 是协调器写入的注册表部分。Replace 仅修改内存中的记录，何时持久化由调用方决定。
type Store interface {
	Get(id string) (*types.Plugin, bool)
	Source(id string) (registry.Entry, bool)
	Replace(ctx context.Context, id string, np *types.Plugin) error
	Reload(ctx context.Context, p *types.Plugin, source string, reloadTriggers bool) error
	Evict(id string)
}

// Reconciler applies hub version changes and refreshes plugin sources.
// Reconciler 应用仓库版本变化并刷新插件源码。
type Reconciler struct {
	hub      Catalogue
	store    Store
	settings registry.SettingsStore
	files    storage.FileStore
	fetcher  storage.Fetcher
}

// New creates a reconciler.
// New 创建协调器。
func New(hub Catalogue, store Store, settings registry.SettingsStore, files storage.FileStore, fetcher storage.Fetcher) *Reconciler {
	return &Reconciler{hub: hub, store: store, settings: settings, files: files, fetcher: fetcher}
}

// Reconcile updates p from the hub when its id is namespaced, then refreshes
// its source. It reports whether the plugin record changed in memory.
// Reconcile 在插件 id 带命名空间前缀时依据仓库更新 p，然后刷新源码。返回内存中插件记录是否发生变化。
func (r *Reconciler) Reconcile(ctx context.Context, p *types.Plugin) (changed bool, err error) {
	if p.FromHub() {
		if p, changed, err = r.apply(ctx, p); err != nil {
			return false, err
		}
	}
	return changed, r.Refresh(ctx, p)
}

// Checkpoint captures the record, cached source and settings of id. The
// returned function puts all three back, rewriting the source file of Http
// plugins, and is meant to run when the change cannot be persisted.
// Checkpoint 记录 id 的插件记录、缓存源码与设置。返回的函数会将三者全部恢复（Http 插件会重写源码文件），
// 用于变更无法持久化时回滚。
func (r *Reconciler) Checkpoint(id string) func(ctx context.Context) error {
	prev, known := r.store.Get(id)
	entry, cached := r.store.Source(id)
	var settings map[string]any
	var hasSettings bool
	if r.settings != nil {
		settings, hasSettings = r.settings.PluginSettings(id)
	}

	return func(ctx context.Context) error {
		if !known {
			return nil
		}
		var errs []error
		if err := r.store.Replace(ctx, id, prev); err != nil {
			errs = append(errs, err)
		}
		if cached && entry.Source != "" {
			if prev.Type == types.SourceHTTP && prev.Path != "" {
				if err := r.files.WriteFile(prev.Path, entry.Source); err != nil {
					errs = append(errs, fmt.Errorf("write %s: %w", prev.Path, err))
				}
			}
			if err := r.store.Reload(ctx, prev, entry.Source, false); err != nil {
				errs = append(errs, err)
			}
		} else {
			r.store.Evict(id)
		}
		if hasSettings {
			if err := r.settings.SetPluginSettings(id, settings); err != nil {
				errs = append(errs, err)
			}
		}
		err := errors.Join(errs...)
		if err != nil {
			logger.Get(ctx).Errorf("[PLUGIN] Rollback of %s incomplete: %v", prev.Name, err)
		} else {
			logger.Get(ctx).Warnf("[PLUGIN] Rolled back %s to %s", prev.Name, prev.Version)
		}
		return err
	}
}

func (r *Reconciler) apply(ctx context.Context, p *types.Plugin) (*types.Plugin, bool, error) {
	log := logger.Get(ctx)

	candidate, ok := r.hub.Find(p.ID)
	if !ok {
		return nil, false, apperrors.ErrVersionLookup
	}

	change := Classify(p.Version, candidate.Version)
	switch change {
	case ChangeMajor:
		if err := r.store.Replace(ctx, p.ID, candidate.Clone()); err != nil {
			return nil, false, err
		}
		if err := r.migrateSettings(p.ID, candidate); err != nil {
			return nil, false, err
		}
	case ChangeMinor:
		next := p.Clone()
		next.Version = candidate.Version
		if err := r.store.Replace(ctx, p.ID, next); err != nil {
			return nil, false, err
		}
		candidate = next
	default:
		return p, false, nil
	}

	verb := "Updating"
	if Direction(p.Version, candidate.Version) < 0 {
		verb = "Downgrading"
	}
	log.Infof("[PLUGIN] %s %s %s -> %s (%s)", verb, p.Name, p.Version, candidate.Version, change)
	return candidate, true, nil
}

// migrateSettings rebuilds stored overrides against the new configuration. An
// old value survives only if its shape matches the new default's.
func (r *Reconciler) migrateSettings(id string, next *types.Plugin) error {
	if r.settings == nil {
		return nil
	}
	old, ok := r.settings.PluginSettings(id)
	if !ok {
		return nil
	}
	return r.settings.SetPluginSettings(id, Migrate(old, next.Configuration))
}

// Migrate maps every key of the new configuration to the old value when both
// values have the same kind, otherwise to the new default.
// Migrate 将新配置的每个键映射到旧值（两者类型相同时），否则映射到新默认值。
func Migrate(old map[string]any, configuration []types.ConfigurationItem) map[string]any {
	out := make(map[string]any, len(configuration))
	for _, item := range configuration {
		prev := old[item.Key]
		if maputil.Kind(prev) == maputil.Kind(item.Value) {
			out[item.Key] = maputil.Clone(prev)
		} else {
			out[item.Key] = maputil.Clone(item.Value)
		}
	}
	return out
}

// Refresh reloads the plugin source: File plugins re-read their path, Http
// plugins are fetched again and written to their path.
// Refresh 重新加载插件源码：File 类型重读本地路径，Http 类型重新下载并写入本地路径。
func (r *Reconciler) Refresh(ctx context.Context, p *types.Plugin) error {
	var source string
	switch p.Type {
	case types.SourceHTTP:
		body, err := r.fetcher.Get(ctx, p.URL)
		if err != nil {
			return err
		}
		if err := r.files.WriteFile(p.Path, body); err != nil {
			return fmt.Errorf("write %s: %w", p.Path, err)
		}
		source = body
	default:
		body, err := r.files.ReadFile(p.Path)
		if err != nil {
			logger.Get(ctx).Debugf("[PLUGIN] Source of %s unreadable: %v", p.Name, err)
		}
		source = body
	}

	if source == "" {
		logger.Get(ctx).Warnf("[PLUGIN] %s has an empty source", p.Name)
		return nil
	}
	return r.store.Reload(ctx, p, source, false)
}
