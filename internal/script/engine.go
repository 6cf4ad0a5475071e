// Package script runs plugin hooks and the profile finalize script in embedded
// evaluators. Each call gets a fresh interpreter whose only globals are the
// bindings passed in, so hooks see no host state beyond what is handed to them.
package script

import (
	"context"
	"path/filepath"
	"strings"
)

// Binding is one named global made visible to the script.
// Binding 是对脚本可见的一个具名全局变量。
type Binding struct {
	Name  string
	Value any
}

// Call describes a single hook invocation.
// Call 描述一次钩子调用。
type Call struct {
	// Name labels the source in error messages.
	// Name 用于错误信息中标识源码。
	Name     string
	Source   string
	Function string
	Bindings []Binding
	Args     []any
}

// Engine evaluates Source, then calls Function with Args. Values crossing the
// boundary are plain documents (maps, slices, scalars) and are copied both ways.
// Engine 执行 Source 后以 Args 调用 Function。跨边界的值均为普通文档，双向复制。
type Engine interface {
	Name() string
	Invoke(ctx context.Context, call Call) (any, error)
}

// Selector picks the engine for a plugin source path.
// Selector 根据插件源码路径选择引擎。
type Selector interface {
	ForPath(path string) Engine
}

// Engines selects Lua for ".lua" sources and JavaScript for everything else.
// Engines 对 ".lua" 源码选择 Lua，其余选择 JavaScript。
type Engines struct {
	JS  Engine
	Lua Engine
}

// NewEngines returns the default engine set.
// NewEngines 返回默认引擎集合。
func NewEngines() *Engines {
	return &Engines{JS: NewJSEngine(), Lua: NewLuaEngine()}
}

func (e *Engines) ForPath(path string) Engine {
	if strings.EqualFold(filepath.Ext(path), ".lua") {
		return e.Lua
	}
	return e.JS
}

// isIdentifier guards hook names before they are evaluated as expressions.
// isIdentifier 在钩子名作为表达式求值前进行校验。
func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
