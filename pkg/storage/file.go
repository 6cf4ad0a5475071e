package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/livp123/gfcore/internal/utils/fileutil"
)

// DiskStore implements FileStore on the local filesystem.
// DiskStore 在本地文件系统上实现 FileStore。
type DiskStore struct {
	mu   sync.RWMutex
	base string // relative paths resolve against base / 相对路径基于 base 解析
}

// NewDiskStore creates a store rooted at base.
// NewDiskStore 创建以 base 为根的存储。
func NewDiskStore(base string) *DiskStore {
	return &DiskStore{base: base}
}

// GetPath resolves a store path to a filesystem path.
// GetPath 将存储路径解析为文件系统路径。
func (s *DiskStore) GetPath(path string) string {
	if filepath.IsAbs(path) || s.base == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(s.base, filepath.Clean(path))
}

func (s *DiskStore) ReadFile(path string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	content, err := os.ReadFile(s.GetPath(path)) // #nosec G304 // path is cleaned by GetPath
	if err != nil {
		return "", err
	}
	return string(content), nil
}

func (s *DiskStore) WriteFile(path, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	full := s.GetPath(path)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return err
	}
	return fileutil.AtomicWriteFile(full, []byte(content), 0644)
}

func (s *DiskStore) RemoveFile(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.GetPath(path))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (s *DiskStore) Exists(path string) bool {
	_, err := os.Stat(s.GetPath(path))
	return err == nil
}

// LoadYAML decodes a YAML file into out. A missing file leaves out untouched and returns nil.
// LoadYAML 将 YAML 文件解码到 out。文件不存在时保持 out 不变并返回 nil。
func LoadYAML(fs FileStore, path string, out any) error {
	if !fs.Exists(path) {
		return nil
	}
	content, err := fs.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// SaveYAML encodes v and writes it to path.
// SaveYAML 编码 v 并写入 path。
func SaveYAML(fs FileStore, path string, v any) error {
	content, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return fs.WriteFile(path, string(content))
}
