// Package hub keeps the local copy of the Plugin-Hub index.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/livp123/gfcore/internal/plugins/types"
	"github.com/livp123/gfcore/internal/utils/logger"
	"github.com/livp123/gfcore/pkg/storage"
)

// Hub is the published plugin catalogue, cached on disk as a JSON array.
// Hub 是已发布插件目录，以 JSON 数组形式缓存在磁盘上。
type Hub struct {
	mu      sync.RWMutex
	files   storage.FileStore
	fetcher storage.Fetcher
	path    string
	urls    []string
	list    []*types.Plugin
}

// New creates a hub cached at path and refreshed from urls.
// New 创建缓存在 path、从 urls 刷新的插件仓库。
func New(files storage.FileStore, fetcher storage.Fetcher, path string, urls []string) *Hub {
	return &Hub{
		files:   files,
		fetcher: fetcher,
		path:    path,
		urls:    append([]string(nil), urls...),
	}
}

// Load reads the cached index. A missing cache leaves the hub empty.
// Load 读取缓存的索引。缓存不存在时仓库为空。
func (h *Hub) Load(ctx context.Context) error {
	if !h.files.Exists(h.path) {
		logger.Get(ctx).Debugf("[HUB] No cached index at %s", h.path)
		return nil
	}
	data, err := h.files.ReadFile(h.path)
	if err != nil {
		return err
	}
	var list []*types.Plugin
	if data != "" {
		if err := json.Unmarshal([]byte(data), &list); err != nil {
			return fmt.Errorf("parse %s: %w", h.path, err)
		}
	}

	h.mu.Lock()
	h.list = list
	h.mu.Unlock()
	return nil
}

// Refresh downloads every index URL, concatenates them in URL order and
// rewrites the cache. The hub is unchanged if any download fails.
// Refresh 下载全部索引地址，按地址顺序拼接并重写缓存。任一下载失败时仓库保持不变。
func (h *Hub) Refresh(ctx context.Context) error {
	parts := make([][]*types.Plugin, len(h.urls))
	g, gctx := errgroup.WithContext(ctx)
	for i, url := range h.urls {
		g.Go(func() error {
			body, err := h.fetcher.Get(gctx, url)
			if err != nil {
				return err
			}
			if err := json.Unmarshal([]byte(body), &parts[i]); err != nil {
				return fmt.Errorf("parse %s: %w", url, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var list []*types.Plugin
	for _, part := range parts {
		list = append(list, part...)
	}
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	if err := h.files.WriteFile(h.path, string(data)); err != nil {
		return err
	}

	h.mu.Lock()
	h.list = list
	h.mu.Unlock()
	logger.Get(ctx).Infof("[HUB] Refreshed plugin hub: %d plugins", len(list))
	return nil
}

// Find returns a copy of the hub entry with id.
// Find 返回指定 id 的仓库条目副本。
func (h *Hub) Find(id string) (*types.Plugin, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, p := range h.list {
		if p.ID == id {
			return p.Clone(), true
		}
	}
	return nil, false
}

// List returns copies of every hub entry.
// List 返回所有仓库条目的副本。
func (h *Hub) List() []*types.Plugin {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*types.Plugin, len(h.list))
	for i, p := range h.list {
		out[i] = p.Clone()
	}
	return out
}

// IsDeprecated reports a hub plugin that the hub no longer lists.
// IsDeprecated 报告仓库已不再列出的仓库插件。
func (h *Hub) IsDeprecated(p *types.Plugin) bool {
	if !p.FromHub() {
		return false
	}
	_, ok := h.Find(p.ID)
	return !ok
}

// HasNewVersion reports whether the hub publishes a different version of p.
// HasNewVersion 报告仓库是否发布了 p 的不同版本。
func (h *Hub) HasNewVersion(p *types.Plugin) bool {
	candidate, ok := h.Find(p.ID)
	if !ok {
		return false
	}
	return candidate.Version != p.Version
}
