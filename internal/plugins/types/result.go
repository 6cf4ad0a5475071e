package types

import "math"

// ResultKind tags what a hook call returned.
// ResultKind 标记钩子调用的返回类型。
type ResultKind int

const (
	ResultEmpty ResultKind = iota
	ResultExitCode
	ResultValue
)

// Result is the tagged outcome of one hook invocation. An integral number is an
// exit code; persisting it as the plugin status is up to the caller.
// Result 是一次钩子调用的标记结果。整数视为退出码；是否持久化为插件状态由调用方决定。
type Result struct {
	Kind     ResultKind
	Value    any
	ExitCode int
}

// NewResult classifies a raw value exported from a script engine.
// NewResult 对脚本引擎导出的原始值进行分类。
func NewResult(v any) Result {
	if v == nil {
		return Result{Kind: ResultEmpty}
	}
	if code, ok := asInt(v); ok {
		return Result{Kind: ResultExitCode, Value: v, ExitCode: code}
	}
	return Result{Kind: ResultValue, Value: v}
}

// Status returns the exit code when the hook returned one.
// Status 在钩子返回退出码时返回该值。
func (r Result) Status() (int, bool) {
	return r.ExitCode, r.Kind == ResultExitCode
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return int(n), true
		}
	}
	return 0, false
}
