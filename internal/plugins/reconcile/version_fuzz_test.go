package reconcile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// FuzzParse tests Parse and Classify with random version pairs
// FuzzParse 使用随机版本对测试 Parse 与 Classify
func FuzzParse(f *testing.F) {
	seedCorpus := [][2]string{
		{"v1.2.3", "v1.2.3"},
		{"v1.2.3", "v1.3.0"},
		{"v1.2.3", "v2.0.0"},
		{"1.2", "v1.2.0"},
		{"", "v1.0.0"},
		{"v1.2.3.4", "latest"},
		{"v...", "v"},
	}
	for _, seed := range seedCorpus {
		f.Add(seed[0], seed[1])
	}

	f.Fuzz(func(t *testing.T, installed, published string) {
		parts := Parse(installed)
		for _, part := range parts {
			assert.NotContains(t, part, ".")
		}
		trimmed := strings.TrimPrefix(installed, "v")
		if parts[0] != "" {
			assert.True(t, strings.HasPrefix(trimmed, parts[0]))
		}

		assert.Equal(t, ChangeNone, Classify(installed, installed))
		assert.Equal(t, Classify(installed, published), Classify(published, installed))
		assert.Equal(t, Direction(installed, published), -Direction(published, installed))
	})
}
