// Package runtime holds the process-wide state set by global CLI flags.
package runtime

import (
	"fmt"
	"os"

	"github.com/livp123/gfcore/internal/config"
)

// ConfigPath stores the path to the settings file provided via CLI flags.
// ConfigPath 存储通过 CLI 标志提供的设置文件路径。
var ConfigPath string

// AssumeYes answers every confirmation prompt with yes.
// AssumeYes 对所有确认提示自动回答 yes。
var AssumeYes bool

// Output selects how commands print their results: "text" or "json".
// Output 选择命令输出结果的格式："text" 或 "json"。
var Output = OutputText

const (
	OutputText = "text"
	OutputJSON = "json"
)

// EnvConfigPath names the environment variable consulted when --config is not given.
const EnvConfigPath = "GFCORE_CONFIG"

// ResolveConfigPath returns ConfigPath, else $GFCORE_CONFIG, else the default settings path.
// ResolveConfigPath 依次返回 ConfigPath、$GFCORE_CONFIG 或默认设置路径。
func ResolveConfigPath() string {
	if ConfigPath != "" {
		return ConfigPath
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env
	}
	return config.DefaultConfigPath
}

// ValidateOutput rejects unknown output formats.
// ValidateOutput 拒绝未知的输出格式。
func ValidateOutput() error {
	switch Output {
	case OutputText, OutputJSON:
		return nil
	}
	return fmt.Errorf("unknown output format %q (want %s or %s)", Output, OutputText, OutputJSON)
}
