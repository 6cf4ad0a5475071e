package types

// Dependency is an extra file a plugin needs next to its source.
// Dependency 是插件在源码之外需要的额外文件。
type Dependency struct {
	URL  string `yaml:"url" json:"url"`
	Path string `yaml:"path" json:"path"`
}

// Preinstalled is a plugin record seeded into an empty plugin list on first
// run. Once every dependency is downloaded the record is marked installed.
// Preinstalled 是首次运行时写入空插件列表的插件记录。所有依赖下载完成后记录会被标记为已安装。
type Preinstalled struct {
	Plugin       Plugin       `yaml:",inline" json:"plugin"`
	Dependencies []Dependency `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
}
