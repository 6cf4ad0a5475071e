package reconcile

import (
	"strings"

	"golang.org/x/mod/semver"
)

// Change classifies the difference between an installed and a published version.
// Change 对已安装版本与已发布版本之间的差异进行分类。
type Change int

const (
	ChangeNone Change = iota
	// ChangeMinor covers a MINOR or PATCH difference.
	// ChangeMinor 表示 MINOR 或 PATCH 的差异。
	ChangeMinor
	ChangeMajor
)

func (c Change) String() string {
	switch c {
	case ChangeMajor:
		return "major"
	case ChangeMinor:
		return "minor"
	}
	return "none"
}

// Parse splits "vMAJOR.MINOR.PATCH" into its three components. Missing
// components are empty strings.
// Parse 将 "vMAJOR.MINOR.PATCH" 拆分为三个部分。缺失的部分为空字符串。
func Parse(version string) [3]string {
	var out [3]string
	parts := strings.Split(strings.TrimPrefix(version, "v"), ".")
	for i := 0; i < len(parts) && i < len(out); i++ {
		out[i] = parts[i]
	}
	return out
}

// Classify compares two version strings component by component.
// Classify 逐个部分比较两个版本字符串。
func Classify(installed, published string) Change {
	now, next := Parse(installed), Parse(published)
	switch {
	case now[0] != next[0]:
		return ChangeMajor
	case now[1] != next[1] || now[2] != next[2]:
		return ChangeMinor
	}
	return ChangeNone
}

// Direction reports whether published is newer (1), older (-1) or not
// comparable or equal (0) under semantic version ordering.
// Direction 按语义化版本顺序报告 published 更新（1）、更旧（-1），或不可比较/相等（0）。
func Direction(installed, published string) int {
	if !semver.IsValid(installed) || !semver.IsValid(published) {
		return 0
	}
	return semver.Compare(published, installed)
}
