package script

import (
	"context"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	apperrors "github.com/livp123/gfcore/pkg/errors"
)

// LuaEngine evaluates Lua sources with gopher-lua in a reduced library set.
// LuaEngine 使用 gopher-lua 在精简库集合中执行 Lua 源码。
type LuaEngine struct{}

func NewLuaEngine() *LuaEngine {
	return &LuaEngine{}
}

func (e *LuaEngine) Name() string { return "lua" }

func (e *LuaEngine) Invoke(ctx context.Context, call Call) (result any, err error) {
	L := newSandboxedState()
	defer L.Close()
	if ctx != nil {
		L.SetContext(ctx)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()

	for _, b := range call.Bindings {
		L.SetGlobal(b.Name, toLua(L, b.Value))
	}

	if err := L.DoString(call.Source); err != nil {
		return nil, luaError(err)
	}

	fn := L.GetGlobal(call.Function)
	if fn.Type() != lua.LTFunction {
		return nil, apperrors.NewHookError(call.Function)
	}

	args := make([]lua.LValue, len(call.Args))
	for i, a := range call.Args {
		args[i] = toLua(L, a)
	}
	if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
		return nil, luaError(err)
	}
	ret := L.Get(-1)
	L.Pop(1)
	return fromLua(ret, map[*lua.LTable]bool{}), nil
}

// newSandboxedState opens base, table, string and math only, then removes the
// loaders that could reach the filesystem.
// newSandboxedState 仅打开 base、table、string、math 库，并移除可访问文件系统的加载函数。
func newSandboxedState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

func luaError(err error) error {
	if apiErr, ok := err.(*lua.ApiError); ok && apiErr.Object != nil {
		if s, ok := apiErr.Object.(lua.LString); ok {
			return fmt.Errorf("%s", string(s))
		}
	}
	return err
}

func toLua(L *lua.LState, v any) lua.LValue {
	switch t := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(t)
	case string:
		return lua.LString(t)
	case int:
		return lua.LNumber(t)
	case int32:
		return lua.LNumber(t)
	case int64:
		return lua.LNumber(t)
	case uint64:
		return lua.LNumber(t)
	case float32:
		return lua.LNumber(t)
	case float64:
		return lua.LNumber(t)
	case []string:
		tbl := L.NewTable()
		for _, s := range t {
			tbl.Append(lua.LString(s))
		}
		return tbl
	case []any:
		tbl := L.NewTable()
		for _, item := range t {
			tbl.Append(toLua(L, item))
		}
		return tbl
	case map[string]string:
		tbl := L.NewTable()
		for k, item := range t {
			tbl.RawSetString(k, lua.LString(item))
		}
		return tbl
	case map[string]any:
		tbl := L.NewTable()
		for k, item := range t {
			tbl.RawSetString(k, toLua(L, item))
		}
		return tbl
	default:
		return lua.LString(fmt.Sprint(t))
	}
}

// fromLua converts a Lua value into a document. Tables with keys 1..n become
// lists and the empty table becomes an empty list.
// fromLua 将 Lua 值转换为文档。键为 1..n 的表转为列表，空表转为空列表。
func fromLua(lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		defer delete(visited, v)
		return tableToGo(v, visited)
	default:
		return nil
	}
}

func tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) any {
	count := 0
	isArray := true
	t.ForEach(func(k, _ lua.LValue) {
		count++
		if n, ok := k.(lua.LNumber); !ok || float64(n) != float64(int(n)) || int(n) < 1 {
			isArray = false
		}
	})
	if isArray && t.MaxN() != count {
		isArray = false
	}
	if isArray {
		out := make([]any, count)
		for i := 1; i <= count; i++ {
			out[i-1] = fromLua(t.RawGetInt(i), visited)
		}
		return out
	}
	out := make(map[string]any, count)
	t.ForEach(func(k, val lua.LValue) {
		out[k.String()] = fromLua(val, visited)
	})
	return out
}
