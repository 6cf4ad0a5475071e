package ruleprovider

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// FuzzFilterReferences tests FilterReferences with random fake-ip-filter entries
// FuzzFilterReferences 使用随机 fake-ip-filter 条目测试 FilterReferences
func FuzzFilterReferences(f *testing.F) {
	seedCorpus := []string{
		"rule-set:ads,trackers",
		"rule-set:",
		"rule-set: a , b ,",
		"RULE-SET,cn,real-ip",
		"rule-set,cn,fake-ip",
		"RULE-SET,,fake-ip",
		"RULE-SET,cn,direct",
		"+.lan",
		"",
	}
	for _, seed := range seedCorpus {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, entry string) {
		names := FilterReferences(entry)
		if strings.HasPrefix(entry, LegacyPrefix) {
			// One name per comma separated part, empty ones included.
			// 每个逗号分隔的部分对应一个名称，空名称也计入。
			assert.Len(t, names, strings.Count(entry, ",")+1)
		} else if len(names) > 0 {
			require.Len(t, names, 1)
			assert.NotContains(t, names[0], ",")
		}
		for _, name := range names {
			assert.Equal(t, strings.TrimSpace(name), name)
		}
	})
}
