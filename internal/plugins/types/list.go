package types

import (
	"fmt"

	apperrors "github.com/livp123/gfcore/pkg/errors"
	"github.com/livp123/gfcore/pkg/storage"
)

// LoadPlugins reads the ordered plugin list. A missing file yields an empty list.
// LoadPlugins 读取有序插件列表。文件不存在时返回空列表。
func LoadPlugins(fs storage.FileStore, path string) ([]*Plugin, error) {
	var list []*Plugin
	if err := storage.LoadYAML(fs, path, &list); err != nil {
		return nil, err
	}
	out := list[:0]
	for _, p := range list {
		if p != nil {
			out = append(out, p)
		}
	}
	return out, nil
}

// SavePlugins writes the plugin list; runtime-only fields are dropped by their yaml tags.
// SavePlugins 写入插件列表；仅运行时字段通过 yaml 标签被忽略。
func SavePlugins(fs storage.FileStore, path string, list []*Plugin) error {
	if list == nil {
		list = []*Plugin{}
	}
	if err := storage.SaveYAML(fs, path, list); err != nil {
		return apperrors.NewPersistenceError(path, err)
	}
	return nil
}

// Validate checks the record-level invariants of a plugin.
// Validate 检查插件记录级别的约束。
func Validate(p *Plugin) error {
	if p == nil || p.ID == "" {
		return apperrors.NewConfigError("id", "")
	}
	if p.Name == "" {
		return apperrors.NewConfigError("name", "")
	}
	if p.Type != SourceFile && p.Type != SourceHTTP {
		return apperrors.NewConfigError("type", p.Type)
	}
	if p.Type == SourceHTTP && p.URL == "" {
		return apperrors.NewConfigError("url", "")
	}
	if p.Path == "" {
		return apperrors.NewConfigError("path", "")
	}
	for _, t := range p.Triggers {
		if !t.Valid() {
			return fmt.Errorf("%w: %s", apperrors.ErrInvalidTrigger, t)
		}
	}
	return nil
}
