package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/livp123/gfcore/internal/plugins/dispatch"
	"github.com/livp123/gfcore/internal/plugins/types"
	"github.com/livp123/gfcore/internal/utils/fileutil"
	"github.com/livp123/gfcore/internal/utils/logger"
	apperrors "github.com/livp123/gfcore/pkg/errors"
	"github.com/livp123/gfcore/pkg/storage"
)

// SettingsStore holds per-plugin user overrides of configuration defaults.
// SettingsStore 保存每个插件对配置默认值的用户覆盖。
type SettingsStore interface {
	PluginSettings(id string) (map[string]any, bool)
	// SetPluginSettings stores values for id; nil removes the entry.
	// SetPluginSettings 为 id 保存值；nil 表示删除该条目。
	SetPluginSettings(id string, values map[string]any) error
}

// ConfirmFunc asks the user a yes/no question.
// ConfirmFunc 向用户提出是/否问题。
type ConfirmFunc func(ctx context.Context, message string) bool

// Registry owns the ordered plugin list, its persistence and the source cache,
// and keeps the dispatcher's observer lists in step with every mutation.
// Registry 持有有序插件列表、其持久化与源码缓存，并在每次变更时同步分发器的观察者列表。
type Registry struct {
	mu         sync.RWMutex
	plugins    []*types.Plugin
	files      storage.FileStore
	path       string
	cache      *Cache
	dispatcher *dispatch.Dispatcher
	settings   SettingsStore
	confirm    ConfirmFunc
}

type Option func(*Registry)

// WithSettings attaches the user override store consulted on delete.
// WithSettings 绑定删除插件时使用的用户设置存储。
func WithSettings(s SettingsStore) Option {
	return func(r *Registry) { r.settings = s }
}

// WithConfirm sets the prompt used before removing stored settings.
// WithConfirm 设置删除已保存设置前使用的确认提示。
func WithConfirm(fn ConfirmFunc) Option {
	return func(r *Registry) { r.confirm = fn }
}

// New creates a registry persisting to path through files.
// New 创建一个通过 files 持久化到 path 的注册表。
func New(files storage.FileStore, path string, d *dispatch.Dispatcher, opts ...Option) *Registry {
	r := &Registry{
		files:      files,
		path:       path,
		cache:      NewCache(),
		dispatcher: d,
		confirm:    func(context.Context, string) bool { return false },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Active reports whether a registered plugin takes part in trigger dispatch.
// Active 报告已注册插件是否参与触发器分发。
func Active(p *types.Plugin) bool {
	return p != nil && !p.Disabled
}

// Setup loads the plugin list, reads every source into the cache and rebuilds
// the observer lists. Unreadable sources are left out of the cache.
// Setup 加载插件列表，读取所有源码到缓存并重建观察者列表。无法读取的源码不进入缓存。
func (r *Registry) Setup(ctx context.Context) error {
	log := logger.Get(ctx)

	list, err := types.LoadPlugins(r.files, r.path)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.plugins = list
	for _, p := range list {
		source, err := r.files.ReadFile(p.Path)
		if err != nil || source == "" {
			log.Debugf("[PLUGIN] Source of %s not loaded: %v", p.Name, err)
			continue
		}
		r.cache.Put(p, source)
	}
	r.dispatcher.Reset(list, Active)
	log.Infof("[PLUGIN] Loaded %d plugins (%d with source)", len(list), r.cache.Len())
	return nil
}

// Add appends p, persists the list and registers its triggers. A failed save
// removes the appended entry again.
// Add 追加 p、持久化列表并注册其触发器。保存失败时移除刚追加的条目。
func (r *Registry) Add(ctx context.Context, p *types.Plugin) error {
	if err := types.Validate(p); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(p.ID) != -1 {
		return fmt.Errorf("%w: %s", apperrors.ErrDuplicatePlugin, p.ID)
	}

	p = p.Clone()
	r.plugins = append(r.plugins, p)
	if err := r.save(); err != nil {
		r.plugins = r.plugins[:len(r.plugins)-1]
		return err
	}
	r.updateTriggers(p, Active(p))
	logger.Get(ctx).Infof("[PLUGIN] Added %s (%s)", p.Name, p.ID)
	return nil
}

// Delete removes the plugin, persists and unregisters it. A failed save puts the
// plugin back at its original index. On success the managed source file is
// removed and the user is asked whether stored settings should go too.
// Delete 移除插件、持久化并注销。保存失败时将插件放回原位置。成功后删除托管源码文件，并询问是否删除已保存的设置。
func (r *Registry) Delete(ctx context.Context, id string) error {
	log := logger.Get(ctx)

	r.mu.Lock()
	idx := r.indexOf(id)
	if idx == -1 {
		r.mu.Unlock()
		return apperrors.NewNotFoundError(id)
	}
	p := r.plugins[idx]
	r.plugins = append(r.plugins[:idx:idx], r.plugins[idx+1:]...)
	if err := r.save(); err != nil {
		r.plugins = append(r.plugins[:idx:idx], append([]*types.Plugin{p}, r.plugins[idx:]...)...)
		r.mu.Unlock()
		return err
	}
	r.cache.Delete(id)
	r.updateTriggers(p, false)
	r.mu.Unlock()

	if fileutil.IsManagedPath(p.Path) {
		if err := r.files.RemoveFile(p.Path); err != nil {
			log.Warnf("[PLUGIN] Failed to remove %s: %v", p.Path, err)
		}
	}

	if r.settings != nil {
		if _, ok := r.settings.PluginSettings(id); ok {
			if r.confirm(ctx, fmt.Sprintf("Remove stored configuration of %s?", p.Name)) {
				if err := r.settings.SetPluginSettings(id, nil); err != nil {
					log.Warnf("[PLUGIN] Failed to remove settings of %s: %v", p.Name, err)
				}
			}
		}
	}
	log.Infof("[PLUGIN] Removed %s (%s)", p.Name, id)
	return nil
}

// Edit replaces the plugin at the same index, persists and re-registers its
// triggers. A failed save restores the previous record.
// Edit 在相同位置替换插件、持久化并重新注册触发器。保存失败时恢复原记录。
func (r *Registry) Edit(ctx context.Context, id string, np *types.Plugin) error {
	return r.replace(ctx, id, np, true)
}

// Replace swaps the record in memory only; callers persist later with Save.
// Replace 仅在内存中替换记录；调用方稍后通过 Save 持久化。
func (r *Registry) Replace(ctx context.Context, id string, np *types.Plugin) error {
	return r.replace(ctx, id, np, false)
}

func (r *Registry) replace(ctx context.Context, id string, np *types.Plugin, persist bool) error {
	if np != nil && np.ID != id {
		return apperrors.NewConfigError("id", np.ID)
	}
	if err := types.Validate(np); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx == -1 {
		return apperrors.NewNotFoundError(id)
	}
	np = np.Clone()
	old := r.plugins[idx]
	np.Updating, np.Loading, np.Running = old.Updating, old.Loading, old.Running
	r.plugins[idx] = np
	if persist {
		if err := r.save(); err != nil {
			r.plugins[idx] = old
			return err
		}
	}
	r.cache.SetPlugin(np)
	r.updateTriggers(np, Active(np))
	logger.Get(ctx).Debugf("[PLUGIN] Updated record of %s", np.Name)
	return nil
}

// SetStatus persists a new status for id when it differs from the stored one.
// SetStatus 当新状态与已保存状态不同时持久化该状态。
func (r *Registry) SetStatus(ctx context.Context, id string, status int) error {
	p, ok := r.Get(id)
	if !ok {
		return apperrors.NewNotFoundError(id)
	}
	if p.Status == status {
		return nil
	}
	p.Status = status
	return r.Edit(ctx, id, p)
}

// SetUpdating flags a plugin as having a refresh in flight.
// SetUpdating 标记插件正在刷新。
func (r *Registry) SetUpdating(id string, updating bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if idx := r.indexOf(id); idx != -1 {
		r.plugins[idx].Updating = updating
	}
}

// Reload replaces the cached source of p. An empty source is read from p.Path.
// Reload 替换 p 的缓存源码。source 为空时从 p.Path 读取。
func (r *Registry) Reload(ctx context.Context, p *types.Plugin, source string, reloadTriggers bool) error {
	if source == "" {
		var err error
		if source, err = r.files.ReadFile(p.Path); err != nil {
			return err
		}
	}
	r.cache.Put(p, source)
	if reloadTriggers {
		r.mu.Lock()
		r.updateTriggers(p, r.indexOf(p.ID) != -1 && Active(p))
		r.mu.Unlock()
	}
	logger.Get(ctx).Debugf("[PLUGIN] Reloaded source of %s", p.Name)
	return nil
}

// Evict drops the cached source of id so the plugin counts as unavailable
// until its source is loaded again.
// Evict 丢弃 id 的缓存源码，在重新加载源码前插件视为不可用。
func (r *Registry) Evict(id string) {
	r.cache.Delete(id)
}

// Save persists the current list.
// Save 持久化当前列表。
func (r *Registry) Save() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.save()
}

// ReplaceAll swaps the whole list, persists it and rebuilds cache and observers.
// ReplaceAll 替换整个列表、持久化并重建缓存与观察者列表。
func (r *Registry) ReplaceAll(ctx context.Context, list []*types.Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.plugins
	r.plugins = make([]*types.Plugin, 0, len(list))
	for _, p := range list {
		r.plugins = append(r.plugins, p.Clone())
	}
	if err := r.save(); err != nil {
		r.plugins = old
		return err
	}
	for _, p := range old {
		r.cache.Delete(p.ID)
	}
	for _, p := range r.plugins {
		if source, err := r.files.ReadFile(p.Path); err == nil && source != "" {
			r.cache.Put(p, source)
		}
	}
	r.dispatcher.Reset(r.plugins, Active)
	logger.Get(ctx).Infof("[PLUGIN] Replaced plugin list (%d plugins)", len(r.plugins))
	return nil
}

// Get returns a copy of the plugin with id.
// Get 返回指定 id 插件的副本。
func (r *Registry) Get(id string) (*types.Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if idx := r.indexOf(id); idx != -1 {
		return r.plugins[idx].Clone(), true
	}
	return nil, false
}

// List returns copies of all plugins in registry order.
// List 按注册表顺序返回所有插件的副本。
func (r *Registry) List() []*types.Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*types.Plugin, len(r.plugins))
	for i, p := range r.plugins {
		out[i] = p.Clone()
	}
	return out
}

// Source returns the cached entry for id.
// Source 返回 id 的缓存条目。
func (r *Registry) Source(id string) (Entry, bool) {
	return r.cache.Get(id)
}

func (r *Registry) Dispatcher() *dispatch.Dispatcher {
	return r.dispatcher
}

func (r *Registry) indexOf(id string) int {
	for i, p := range r.plugins {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (r *Registry) save() error {
	return types.SavePlugins(r.files, r.path, r.plugins)
}

func (r *Registry) updateTriggers(p *types.Plugin, active bool) {
	index := make(map[string]int, len(r.plugins))
	for i, v := range r.plugins {
		index[v.ID] = i
	}
	r.dispatcher.Update(p, active, index)
}
