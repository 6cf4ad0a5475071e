package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAtomicWriteFile tests that the target is replaced and no temp files remain
// TestAtomicWriteFile 测试目标文件被替换且不残留临时文件
func TestAtomicWriteFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.yaml")

	require.NoError(t, AtomicWriteFile(target, []byte("a: 1\n"), 0644))
	require.NoError(t, AtomicWriteFile(target, []byte("a: 2\n"), 0644))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "a: 2\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestIsManagedPath(t *testing.T) {
	assert.True(t, IsManagedPath("data/plugins/a.js"))
	assert.False(t, IsManagedPath("/opt/plugins/a.js"))
	assert.False(t, IsManagedPath("plugins/a.js"))
}

func TestCoreRelativePath(t *testing.T) {
	assert.Equal(t, "../subscribes/a.yaml", CoreRelativePath("data/subscribes/a.yaml"))
	assert.Equal(t, "/abs/a.yaml", CoreRelativePath("/abs/a.yaml"))
}
