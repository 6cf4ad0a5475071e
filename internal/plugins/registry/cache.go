package registry

import (
	"sync"

	"github.com/livp123/gfcore/internal/plugins/types"
)

// Entry pairs a plugin snapshot with its loaded source text.
// Entry 将插件快照与其已加载的源码配对。
type Entry struct {
	Plugin *types.Plugin
	Source string
}

// Cache holds loaded plugin sources keyed by plugin id.
// Cache 以插件 id 为键保存已加载的插件源码。
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]Entry)}
}

// Get returns a copy of the entry for id.
// Get 返回 id 对应条目的副本。
func (c *Cache) Get(id string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	if !ok {
		return Entry{}, false
	}
	return Entry{Plugin: e.Plugin.Clone(), Source: e.Source}, true
}

// Put replaces the entry for p wholesale.
// Put 整体替换 p 的条目。
func (c *Cache) Put(p *types.Plugin, source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[p.ID] = Entry{Plugin: p.Clone(), Source: source}
}

// SetPlugin refreshes the snapshot of a cached plugin, keeping its source.
// SetPlugin 刷新已缓存插件的快照，保留源码。
func (c *Cache) SetPlugin(p *types.Plugin) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[p.ID]; ok {
		e.Plugin = p.Clone()
		c.entries[p.ID] = e
	}
}

func (c *Cache) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
