package maputil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestClone tests that nested values are not shared with the source
// TestClone 测试嵌套值不与源共享
func TestClone(t *testing.T) {
	src := map[string]any{
		"dns":   map[string]any{"nameserver": []any{"1.1.1.1"}},
		"rules": []any{"MATCH,DIRECT"},
	}
	dst := CloneMap(src)

	dst["dns"].(map[string]any)["nameserver"].([]any)[0] = "8.8.8.8"
	dst["rules"] = append(dst["rules"].([]any), "x")

	assert.Equal(t, "1.1.1.1", src["dns"].(map[string]any)["nameserver"].([]any)[0])
	assert.Len(t, src["rules"], 1)
	assert.Nil(t, CloneMap(nil))
}

// TestDeepMerge tests recursive assignment
// TestDeepMerge 测试递归赋值
func TestDeepMerge(t *testing.T) {
	dst := map[string]any{
		"mode": "rule",
		"dns":  map[string]any{"enable": true, "listen": ":53"},
		"list": []any{"a", "b"},
	}
	src := map[string]any{
		"mode": "global",
		"dns":  map[string]any{"listen": ":1053", "ipv6": false},
		"list": []any{"c"},
	}

	out := DeepMerge(dst, src)
	assert.Equal(t, "global", out["mode"])
	assert.Equal(t, map[string]any{"enable": true, "listen": ":1053", "ipv6": false}, out["dns"])
	assert.Equal(t, []any{"c"}, out["list"])

	// src values are copied, not aliased
	// src 的值被复制而非共享
	src["list"].([]any)[0] = "z"
	assert.Equal(t, []any{"c"}, out["list"])

	assert.Equal(t, map[string]any{"a": 1}, DeepMerge(nil, map[string]any{"a": 1}))
}

func TestKind(t *testing.T) {
	assert.Equal(t, "string", Kind("abc"))
	assert.Equal(t, "array", Kind([]any{"a"}))
	assert.Equal(t, "array", Kind([]string{"a"}))
	assert.Equal(t, "number", Kind(3))
	assert.Equal(t, "number", Kind(int64(3)))
	assert.Equal(t, "number", Kind(1.5))
	assert.Equal(t, "boolean", Kind(true))
	assert.Equal(t, "object", Kind(map[string]any{}))
	assert.Equal(t, "undefined", Kind(nil))
	assert.True(t, IsList([]any{}))
	assert.False(t, IsList("x"))
}

func TestTruthyAndEmpty(t *testing.T) {
	assert.False(t, Truthy(nil))
	assert.False(t, Truthy(""))
	assert.False(t, Truthy(int64(0)))
	assert.True(t, Truthy(map[string]any{}))

	assert.True(t, IsEmpty(nil))
	assert.True(t, IsEmpty(""))
	assert.True(t, IsEmpty([]any{}))
	assert.True(t, IsEmpty(false))
	assert.False(t, IsEmpty([]any{"x"}))
	assert.False(t, IsEmpty(":53"))
}

func TestToMap(t *testing.T) {
	type rec struct {
		ID   string   `yaml:"id"`
		Tags []string `yaml:"tags"`
	}
	m, err := ToMap(rec{ID: "a", Tags: []string{"x"}})
	require.NoError(t, err)
	assert.Equal(t, "a", m["id"])
	assert.Equal(t, []any{"x"}, m["tags"])
}

func TestStrings(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Strings([]any{"a", 1, "b"}))
	assert.Equal(t, []string{"a"}, Strings([]string{"a"}))
	assert.Nil(t, Strings("a"))
}
