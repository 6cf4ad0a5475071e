package script

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dop251/goja"

	apperrors "github.com/livp123/gfcore/pkg/errors"
)

// JSEngine evaluates JavaScript with goja. Hooks may be plain or async functions.
// JSEngine 使用 goja 执行 JavaScript。钩子可以是普通函数或 async 函数。
type JSEngine struct{}

func NewJSEngine() *JSEngine {
	return &JSEngine{}
}

func (e *JSEngine) Name() string { return "javascript" }

func (e *JSEngine) Invoke(ctx context.Context, call Call) (result any, err error) {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

	if ctx != nil {
		stop := context.AfterFunc(ctx, func() { vm.Interrupt(ctx.Err()) })
		defer stop()
	}

	parse, ok := goja.AssertFunction(vm.Get("JSON").ToObject(vm).Get("parse"))
	if !ok {
		return nil, errors.New("JSON.parse unavailable")
	}
	toJS := func(v any) (goja.Value, error) {
		if v == nil {
			return goja.Null(), nil
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return parse(goja.Undefined(), vm.ToValue(string(data)))
	}

	for _, b := range call.Bindings {
		v, err := toJS(b.Value)
		if err != nil {
			return nil, fmt.Errorf("bind %s: %w", b.Name, err)
		}
		if err := vm.Set(b.Name, v); err != nil {
			return nil, err
		}
	}

	if _, err := vm.RunScript(call.Name, call.Source); err != nil {
		return nil, jsError(err)
	}

	if !isIdentifier(call.Function) {
		return nil, apperrors.NewHookError(call.Function)
	}
	// Evaluating the bare identifier also resolves top-level let/const declarations.
	// 直接求值标识符，可以解析顶层 let/const 声明。
	fnVal, err := vm.RunString(call.Function)
	if err != nil {
		return nil, apperrors.NewHookError(call.Function)
	}
	fn, ok := goja.AssertFunction(fnVal)
	if !ok {
		return nil, apperrors.NewHookError(call.Function)
	}

	args := make([]goja.Value, len(call.Args))
	for i, a := range call.Args {
		if args[i], err = toJS(a); err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
	}

	ret, err := fn(goja.Undefined(), args...)
	if err != nil {
		return nil, jsError(err)
	}
	return settle(ret)
}

// settle unwraps a promise returned by an async hook. Pending jobs have already
// run by the time the call returns, so a pending promise never resolves.
// settle 解包 async 钩子返回的 Promise。调用返回时任务队列已执行完毕，仍处于 pending 的 Promise 不会再完成。
func settle(v goja.Value) (any, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil
	}
	if p, ok := v.Export().(*goja.Promise); ok {
		switch p.State() {
		case goja.PromiseStateFulfilled:
			return settle(p.Result())
		case goja.PromiseStateRejected:
			return nil, errors.New(valueMessage(p.Result()))
		default:
			return nil, errors.New("hook returned a promise that never settled")
		}
	}
	return v.Export(), nil
}

func jsError(err error) error {
	var ex *goja.Exception
	if errors.As(err, &ex) {
		return errors.New(valueMessage(ex.Value()))
	}
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if cause, ok := interrupted.Value().(error); ok {
			return cause
		}
	}
	return err
}

// valueMessage prefers the message property of thrown Error objects.
// valueMessage 优先使用抛出的 Error 对象的 message 属性。
func valueMessage(v goja.Value) string {
	if v == nil {
		return "undefined"
	}
	if obj, ok := v.(*goja.Object); ok {
		if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) {
			return msg.String()
		}
	}
	return v.String()
}
