package compiler

import (
	"bytes"
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/livp123/gfcore/internal/profile"
	"github.com/livp123/gfcore/internal/utils/maputil"
	"github.com/livp123/gfcore/pkg/storage"
)

// Header is prepended to every generated core config.
// Header 会添加到每个生成的内核配置开头。
const Header = "# DO NOT EDIT - Generated by gfcore\n"

// Marshal renders a config document as YAML without line folding.
// Marshal 将配置文档渲染为不折行的 YAML。
func Marshal(config map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(config); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile compiles the snapshot, passes the result through the
// OnBeforeCoreStart hooks and writes it to path with the generated header.
// Only debug and info log levels survive; anything else becomes info.
// WriteFile 编译快照，将结果交给 OnBeforeCoreStart 钩子处理后连同生成头写入 path。
// 日志级别仅保留 debug 与 info，其余一律改为 info。
func (c *Compiler) WriteFile(ctx context.Context, snap *profile.Snapshot, files storage.FileStore, path string) (*Result, error) {
	res, err := c.Compile(ctx, snap)
	if err != nil {
		return nil, err
	}

	config := res.Config
	if c.hooks != nil {
		doc, err := maputil.ToMap(snap.Profile)
		if err != nil {
			return nil, err
		}
		if config, err = c.hooks.OnBeforeCoreStart(ctx, config, doc); err != nil {
			return nil, err
		}
	}

	if level, _ := config["log-level"].(string); level != "debug" && level != "info" {
		config["log-level"] = "info"
	}

	data, err := Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := files.WriteFile(path, Header+string(data)); err != nil {
		return nil, err
	}
	res.Config = config
	return res, nil
}
