package compiler

import (
	"context"
	"testing"
)

// BenchmarkCompile benchmarks compiling the test profile without plugins.
// BenchmarkCompile 基准测试在无插件时编译测试配置。
func BenchmarkCompile(b *testing.B) {
	c := New(testProxies())
	snap := testSnapshot()
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.Compile(ctx, snap); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkRenderRule benchmarks rendering the rules of the test profile.
// BenchmarkRenderRule 基准测试渲染测试配置中的规则。
func BenchmarkRenderRule(b *testing.B) {
	snap := testSnapshot()
	groups := snap.Profile.ProxyGroups
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, rule := range snap.Profile.Rules {
			_ = RenderRule(rule, snap, groups)
		}
	}
}
