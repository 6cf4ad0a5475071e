// Package watcher reloads the cached source of File plugins when their file
// changes on disk.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/livp123/gfcore/internal/plugins/types"
	"github.com/livp123/gfcore/internal/utils/logger"
)

// DefaultDebounce coalesces the burst of events an editor emits on save.
// DefaultDebounce 合并编辑器保存时产生的一串事件。
const DefaultDebounce = 500 * time.Millisecond

// Store is the registry surface the watcher needs.
// Store 是监视器所需的注册表接口。
type Store interface {
	List() []*types.Plugin
	Reload(ctx context.Context, p *types.Plugin, source string, reloadTriggers bool) error
}

// Resolver maps a plugin path to a path on disk.
// Resolver 将插件路径映射为磁盘路径。
type Resolver interface {
	GetPath(path string) string
}

// Watcher hot-reloads File plugin sources.
// Watcher 热重载 File 类型插件的源码。
type Watcher struct {
	store    Store
	resolver Resolver
	delay    time.Duration

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	ctx      context.Context
	cancel   context.CancelFunc
	debounce map[string]*time.Timer
	done     chan struct{}
	// reloaded is notified with the plugin id after each reload attempt.
	reloaded func(id string, err error)
}

type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
// WithDebounce 覆盖 DefaultDebounce。
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.delay = d }
}

// OnReload registers a callback run after each reload attempt.
// OnReload 注册每次重载尝试后运行的回调。
func OnReload(fn func(id string, err error)) Option {
	return func(w *Watcher) { w.reloaded = fn }
}

// New creates a watcher.
// New 创建监视器。
func New(store Store, resolver Resolver, opts ...Option) *Watcher {
	w := &Watcher{
		store:    store,
		resolver: resolver,
		delay:    DefaultDebounce,
		debounce: make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start watches the directories of every File plugin. Directories are watched
// rather than files so that editors replacing the file on save are still seen.
// Start 监视所有 File 类型插件所在目录。监视目录而非文件，以便捕获编辑器保存时替换文件的情况。
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	dirs := map[string]bool{}
	for _, p := range w.store.List() {
		if p.Type != types.SourceFile || p.Path == "" {
			continue
		}
		dirs[filepath.Dir(w.resolver.GetPath(p.Path))] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			logger.Get(ctx).Warnf("[WATCH] Cannot watch %s: %v", dir, err)
		}
	}

	w.mu.Lock()
	w.watcher = fw
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.mu.Unlock()

	logger.Get(ctx).Infof("[WATCH] Hot reload enabled for %d directories", len(dirs))
	go w.loop(fw)
	return nil
}

// Stop ends the watch and waits for the event loop to exit.
// Stop 结束监视并等待事件循环退出。
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	fw, done := w.watcher, w.done
	w.watcher = nil
	for path, t := range w.debounce {
		t.Stop()
		delete(w.debounce, path)
	}
	w.mu.Unlock()

	if fw != nil {
		fw.Close()
	}
	if done != nil {
		<-done
	}
}

func (w *Watcher) loop(fw *fsnotify.Watcher) {
	defer close(w.done)
	log := logger.Get(w.ctx)
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			log.Errorf("[WATCH] watcher error: %v", err)
		}
	}
}

// handle debounces write and create events per file.
func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	path := filepath.Clean(event.Name)

	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounce[path]; ok {
		t.Stop()
	}
	w.debounce[path] = time.AfterFunc(w.delay, func() {
		w.mu.Lock()
		delete(w.debounce, path)
		w.mu.Unlock()
		w.reload(path)
	})
}

// reload re-reads the source of every File plugin stored at path.
func (w *Watcher) reload(path string) {
	ctx := w.ctx
	if ctx.Err() != nil {
		return
	}
	log := logger.Get(ctx)
	for _, p := range w.store.List() {
		if p.Type != types.SourceFile || filepath.Clean(w.resolver.GetPath(p.Path)) != path {
			continue
		}
		err := w.store.Reload(ctx, p, "", false)
		if err != nil {
			log.Errorf("[WATCH] Failed to reload %s: %v", p.Name, err)
		} else {
			log.Infof("[WATCH] Reloaded %s", p.Name)
		}
		if w.reloaded != nil {
			w.reloaded(p.ID, err)
		}
	}
}
