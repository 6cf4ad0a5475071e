package logger

import "path/filepath"

// Output encodings accepted in LoggingConfig.Format.
// LoggingConfig.Format 可选的输出编码。
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// LoggingConfig selects the level, the encoding and the optional rotated log file.
// LoggingConfig 选择日志级别、编码方式以及可选的轮转日志文件。
type LoggingConfig struct {
	Enabled    bool   `yaml:"enabled"`     // write to Path as well as stderr / 是否同时写入 Path
	Level      string `yaml:"level"`       // debug, info, warn, error
	Format     string `yaml:"format"`      // console or json / 控制台或 JSON
	Path       string `yaml:"path"`        // relative paths resolve against the workspace root / 相对路径基于工作区根目录
	MaxSize    int    `yaml:"max_size"`    // MB before rotation / 轮转前的大小（MB）
	MaxBackups int    `yaml:"max_backups"` // rotated files kept / 保留的旧文件数
	MaxAge     int    `yaml:"max_age"`     // days rotated files are kept / 旧文件保留天数
	Compress   bool   `yaml:"compress"`
}

// Resolve returns a copy whose Path is anchored at root.
// Resolve 返回 Path 以 root 为基准的副本。
func (c LoggingConfig) Resolve(root string) LoggingConfig {
	if c.Path != "" && !filepath.IsAbs(c.Path) && root != "" {
		c.Path = filepath.Join(root, c.Path)
	}
	return c
}
