package dispatch

import (
	"sort"
	"sync"

	"github.com/livp123/gfcore/internal/plugins/types"
)

// Dispatcher owns the per-trigger observer lists. Each list holds plugin ids
// ordered by the plugins' current position in the registry.
// Dispatcher 持有每个触发器的观察者列表，列表中的插件 id 按其在注册表中的当前位置排序。
type Dispatcher struct {
	mu        sync.RWMutex
	observers map[types.Trigger][]string
}

// NewDispatcher creates a dispatcher with an empty list for every trigger.
// NewDispatcher 创建每个触发器都为空列表的分发器。
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{observers: make(map[types.Trigger][]string, len(types.AllTriggers))}
	for _, t := range types.AllTriggers {
		d.observers[t] = nil
	}
	return d
}

// Update strips p.ID from every list, then, if active, inserts it into the
// lists of p's triggers and re-sorts each by index. index maps plugin id to
// registry position; ids missing from it sort last.
// Update 从所有列表中移除 p.ID；若 active，则插入其触发器对应的列表并按 index 重新排序。
func (d *Dispatcher) Update(p *types.Plugin, active bool, index map[string]int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for t, ids := range d.observers {
		d.observers[t] = remove(ids, p.ID)
	}
	if !active {
		return
	}
	seen := make(map[types.Trigger]bool, len(p.Triggers))
	for _, t := range p.Triggers {
		if !t.Valid() || seen[t] {
			continue
		}
		seen[t] = true
		ids := append(d.observers[t], p.ID)
		sort.SliceStable(ids, func(i, j int) bool {
			return position(index, ids[i]) < position(index, ids[j])
		})
		d.observers[t] = ids
	}
}

// Reset rebuilds every list from an ordered plugin slice.
// Reset 根据有序插件切片重建所有列表。
func (d *Dispatcher) Reset(plugins []*types.Plugin, active func(*types.Plugin) bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, t := range types.AllTriggers {
		d.observers[t] = nil
	}
	for _, p := range plugins {
		if !active(p) {
			continue
		}
		seen := make(map[types.Trigger]bool, len(p.Triggers))
		for _, t := range p.Triggers {
			if !t.Valid() || seen[t] {
				continue
			}
			seen[t] = true
			d.observers[t] = append(d.observers[t], p.ID)
		}
	}
}

// Observers returns a copy of the ordered observer list for t.
// Observers 返回 t 的有序观察者列表副本。
func (d *Dispatcher) Observers(t types.Trigger) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]string(nil), d.observers[t]...)
}

// Snapshot returns copies of all non-empty lists.
// Snapshot 返回所有非空列表的副本。
func (d *Dispatcher) Snapshot() map[types.Trigger][]string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(map[types.Trigger][]string)
	for t, ids := range d.observers {
		if len(ids) > 0 {
			out[t] = append([]string(nil), ids...)
		}
	}
	return out
}

func remove(ids []string, id string) []string {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func position(index map[string]int, id string) int {
	if i, ok := index[id]; ok {
		return i
	}
	return int(^uint(0) >> 1)
}
