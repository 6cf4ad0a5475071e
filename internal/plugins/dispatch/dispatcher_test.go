package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/livp123/gfcore/internal/plugins/types"
)

func plugin(id string, triggers ...types.Trigger) *types.Plugin {
	return &types.Plugin{ID: id, Name: id, Triggers: triggers}
}

// TestUpdateOrdersByRegistryIndex tests that order follows the registry, not subscription time
// TestUpdateOrdersByRegistryIndex 测试顺序遵循注册表而非订阅时间
func TestUpdateOrdersByRegistryIndex(t *testing.T) {
	d := NewDispatcher()
	index := map[string]int{"a": 0, "b": 1, "c": 2}

	d.Update(plugin("c", types.OnGenerate), true, index)
	d.Update(plugin("a", types.OnGenerate, types.OnReady), true, index)
	d.Update(plugin("b", types.OnGenerate), true, index)

	assert.Equal(t, []string{"a", "b", "c"}, d.Observers(types.OnGenerate))
	assert.Equal(t, []string{"a"}, d.Observers(types.OnReady))
	assert.Empty(t, d.Observers(types.OnStartup))
}

// TestUpdateReplacesSubscriptions tests that editing triggers moves the id between lists
// TestUpdateReplacesSubscriptions 测试编辑触发器会在列表间移动 id
func TestUpdateReplacesSubscriptions(t *testing.T) {
	d := NewDispatcher()
	index := map[string]int{"a": 0, "b": 1}

	d.Update(plugin("a", types.OnGenerate), true, index)
	d.Update(plugin("b", types.OnGenerate), true, index)
	d.Update(plugin("a", types.OnReady, types.OnReady), true, index)

	assert.Equal(t, []string{"b"}, d.Observers(types.OnGenerate))
	assert.Equal(t, []string{"a"}, d.Observers(types.OnReady))

	d.Update(plugin("a", types.OnReady), false, index)
	assert.Empty(t, d.Observers(types.OnReady))
	assert.Equal(t, map[types.Trigger][]string{types.OnGenerate: {"b"}}, d.Snapshot())
}

// TestUpdateResortsAfterReorder tests re-sorting by the current index
// TestUpdateResortsAfterReorder 测试按当前索引重新排序
func TestUpdateResortsAfterReorder(t *testing.T) {
	d := NewDispatcher()
	d.Update(plugin("a", types.OnGenerate), true, map[string]int{"a": 0, "b": 1})
	d.Update(plugin("b", types.OnGenerate), true, map[string]int{"a": 0, "b": 1})

	// Registry order changed to b, a
	// 注册表顺序变为 b, a
	d.Update(plugin("a", types.OnGenerate), true, map[string]int{"b": 0, "a": 1})
	assert.Equal(t, []string{"b", "a"}, d.Observers(types.OnGenerate))
}

func TestUpdateIgnoresUnknownTriggers(t *testing.T) {
	d := NewDispatcher()
	d.Update(plugin("a", "on::bogus", types.OnReady), true, map[string]int{"a": 0})
	assert.Equal(t, map[types.Trigger][]string{types.OnReady: {"a"}}, d.Snapshot())
}

func TestReset(t *testing.T) {
	d := NewDispatcher()
	d.Update(plugin("stale", types.OnReady), true, nil)

	list := []*types.Plugin{
		plugin("a", types.OnGenerate),
		{ID: "b", Triggers: []types.Trigger{types.OnGenerate, types.OnReady}, Disabled: true},
		plugin("c", types.OnGenerate, types.OnGenerate),
	}
	d.Reset(list, func(p *types.Plugin) bool { return !p.Disabled })

	assert.Equal(t, []string{"a", "c"}, d.Observers(types.OnGenerate))
	assert.Empty(t, d.Observers(types.OnReady))

	// Observers returns a copy
	// Observers 返回副本
	got := d.Observers(types.OnGenerate)
	got[0] = "x"
	assert.Equal(t, []string{"a", "c"}, d.Observers(types.OnGenerate))
}
