// Package app wires the configuration, stores, plugin system and compiler
// into one object the CLI drives.
package app

import (
	"context"
	"fmt"

	"github.com/livp123/gfcore/internal/compiler"
	"github.com/livp123/gfcore/internal/config"
	"github.com/livp123/gfcore/internal/plugins/bootstrap"
	"github.com/livp123/gfcore/internal/plugins/dispatch"
	"github.com/livp123/gfcore/internal/plugins/executor"
	"github.com/livp123/gfcore/internal/plugins/hub"
	"github.com/livp123/gfcore/internal/plugins/reconcile"
	"github.com/livp123/gfcore/internal/plugins/registry"
	"github.com/livp123/gfcore/internal/plugins/updater"
	"github.com/livp123/gfcore/internal/plugins/watcher"
	"github.com/livp123/gfcore/internal/profile"
	"github.com/livp123/gfcore/internal/script"
	"github.com/livp123/gfcore/internal/transfer"
	"github.com/livp123/gfcore/internal/utils/logger"
	"github.com/livp123/gfcore/pkg/storage"
)

// App holds every long-lived component.
// App 持有所有长生命周期组件。
type App struct {
	Config     *config.ConfigManager
	Files      *storage.DiskStore
	Fetcher    storage.Fetcher
	Dispatcher *dispatch.Dispatcher
	Plugins    *registry.Registry
	Runtime    *executor.Runtime
	Hub        *hub.Hub
	Reconciler *reconcile.Reconciler
	Updater    *updater.Updater
	Stores     *profile.Stores
	Compiler   *compiler.Compiler
	Transfer   *transfer.Service
}

type options struct {
	confirm registry.ConfirmFunc
	fetcher storage.Fetcher
	engines script.Selector
}

type Option func(*options)

// WithConfirm sets the yes/no prompt used by destructive plugin operations.
// WithConfirm 设置破坏性插件操作使用的确认提示。
func WithConfirm(fn registry.ConfirmFunc) Option {
	return func(o *options) { o.confirm = fn }
}

// WithFetcher replaces the HTTP fetcher built from the plugin settings.
// WithFetcher 替换根据插件设置构建的 HTTP 获取器。
func WithFetcher(f storage.Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

// WithEngines replaces the script engine selector.
// WithEngines 替换脚本引擎选择器。
func WithEngines(sel script.Selector) Option {
	return func(o *options) { o.engines = sel }
}

// New loads the settings at configPath, builds every component and loads the
// stores from disk. An empty plugin list receives the preinstalled plugins.
// New 加载 configPath 处的设置，构建所有组件并从磁盘加载存储。空插件列表会装入预装插件。
func New(ctx context.Context, configPath string, opts ...Option) (*App, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	cm := config.NewConfigManager(configPath)
	if err := cm.LoadConfig(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg := cm.GetConfig()

	files := storage.NewDiskStore(cfg.RootDir)
	fetcher := o.fetcher
	if fetcher == nil {
		timeout, err := cfg.FetchTimeout()
		if err != nil {
			return nil, err
		}
		fetcher = storage.NewHTTPFetcher(timeout, cfg.Plugins.UserAgent)
	}

	regOpts := []registry.Option{registry.WithSettings(cm)}
	if o.confirm != nil {
		regOpts = append(regOpts, registry.WithConfirm(o.confirm))
	}
	d := dispatch.NewDispatcher()
	reg := registry.New(files, cfg.Plugins.File, d, regOpts...)

	rtOpts := []executor.Option{executor.WithSettings(cm)}
	if o.engines != nil {
		rtOpts = append(rtOpts, executor.WithEngines(o.engines))
	}
	rt := executor.New(reg, d, rtOpts...)

	h := hub.New(files, fetcher, cfg.Plugins.HubFile, cfg.Plugins.HubURLs)
	rec := reconcile.New(h, reg, cm, files, fetcher)
	stores := profile.NewStores(files, cfg.Stores.Profiles, cfg.Stores.Subscribes, cfg.Stores.Rulesets)

	a := &App{
		Config:     cm,
		Files:      files,
		Fetcher:    fetcher,
		Dispatcher: d,
		Plugins:    reg,
		Runtime:    rt,
		Hub:        h,
		Reconciler: rec,
		Updater:    updater.New(reg, rec),
		Stores:     stores,
		Compiler:   compiler.New(profile.FileProxies{Files: files}, compiler.WithHooks(rt)),
		Transfer:   transfer.New(stores, reg),
	}

	if err := reg.Setup(ctx); err != nil {
		return nil, err
	}
	if err := stores.Load(ctx); err != nil {
		return nil, err
	}
	if err := h.Load(ctx); err != nil {
		logger.Get(ctx).Warnf("[HUB] Cached plugin list unreadable: %v", err)
	}
	bootstrap.New(reg, h, a.Updater, files, fetcher).Seed(ctx, cfg.Plugins.Preinstalled)
	a.updateGauges()
	return a, nil
}

// NewWatcher creates a hot-reload watcher over the registry.
// NewWatcher 创建基于注册表的热重载监视器。
func (a *App) NewWatcher(opts ...watcher.Option) *watcher.Watcher {
	return watcher.New(a.Plugins, a.Files, opts...)
}
