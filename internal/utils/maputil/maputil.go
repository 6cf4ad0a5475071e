// Package maputil operates on untyped configuration documents: nested
// map[string]any / []any trees as produced by YAML decoding and script exports.
package maputil

import (
	"fmt"
	"reflect"

	"gopkg.in/yaml.v3"
)

// Clone returns a deep copy of a document value.
// Clone 返回文档值的深拷贝。
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneMap(t)
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = Clone(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Clone(val)
		}
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	case map[string]string:
		out := make(map[string]string, len(t))
		for k, val := range t {
			out[k] = val
		}
		return out
	default:
		return v
	}
}

// CloneMap returns a deep copy of m; nil stays nil.
// CloneMap 返回 m 的深拷贝；nil 保持为 nil。
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Clone(v)
	}
	return out
}

// DeepMerge assigns src into dst recursively and returns dst. Nested maps merge
// key by key; any other value in src replaces the one in dst.
// DeepMerge 将 src 递归赋值到 dst 并返回 dst。嵌套 map 逐键合并，其他值直接覆盖。
func DeepMerge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, sv := range src {
		if sm, ok := sv.(map[string]any); ok {
			if dm, ok := dst[k].(map[string]any); ok {
				DeepMerge(dm, sm)
				continue
			}
		}
		dst[k] = Clone(sv)
	}
	return dst
}

// Kind classifies a value the way the plugin settings migration compares shapes.
// Kind 按插件设置迁移比较形态的方式对值进行分类。
func Kind(v any) string {
	if v == nil {
		return "undefined"
	}
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return "number"
	case map[string]any, map[any]any:
		return "object"
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct, reflect.Pointer:
		return "object"
	}
	return "object"
}

// IsList reports whether v is a slice.
// IsList 报告 v 是否为切片。
func IsList(v any) bool {
	return Kind(v) == "array"
}

// Truthy mirrors script truthiness for hook results.
// Truthy 对钩子返回值采用脚本语言的真值语义。
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	}
	return true
}

// ToMap converts a YAML-tagged struct into a document map.
// ToMap 将带 YAML 标签的结构体转换为文档 map。
func ToMap(v any) (map[string]any, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Strings reads a list of strings from a document value, skipping non-string items.
// Strings 从文档值中读取字符串列表，跳过非字符串元素。
func Strings(v any) []string {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Map reads a nested map from a document value.
// Map 从文档值中读取嵌套 map。
func Map(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// IsEmpty reports whether a document value counts as absent: nil, false, empty string, or empty list/map.
// IsEmpty 报告文档值是否视为缺失：nil、false、空字符串或空列表/map。
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case bool:
		return !t
	case string:
		return t == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	}
	return false
}
