package reconcile

import (
	"testing"

	"github.com/livp123/gfcore/internal/plugins/types"
)

// BenchmarkClassify benchmarks version change classification.
// BenchmarkClassify 基准测试版本变化分类。
func BenchmarkClassify(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Classify("v1.2.3", "v1.3.0")
		_ = Classify("v1.2.3", "v2.0.0")
	}
}

// BenchmarkMigrate benchmarks rebuilding stored settings against a new configuration.
// BenchmarkMigrate 基准测试依据新配置重建已保存的设置。
func BenchmarkMigrate(b *testing.B) {
	old := map[string]any{
		"token":   "abc",
		"list":    []any{"a", "b", "c"},
		"count":   3,
		"options": map[string]any{"retry": true},
	}
	cfg := []types.ConfigurationItem{
		{Key: "token", Value: ""},
		{Key: "list", Value: []any{}},
		{Key: "count", Value: "3"},
		{Key: "options", Value: map[string]any{}},
		{Key: "fresh", Value: false},
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Migrate(old, cfg)
	}
}
