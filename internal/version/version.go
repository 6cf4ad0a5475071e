// Package version carries build metadata injected with -ldflags.
package version

import (
	"fmt"
	"runtime"
)

// Set at build time, e.g. -ldflags "-X github.com/livp123/gfcore/internal/version.Version=v1.2.0".
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// String renders the version line printed by the CLI.
// String 渲染 CLI 打印的版本行。
func String() string {
	return fmt.Sprintf("gfcore %s (commit %s, built %s, %s/%s)", Version, Commit, BuildDate, runtime.GOOS, runtime.GOARCH)
}
