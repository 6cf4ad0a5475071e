package config

const (
	// DefaultConfigPath is the standard location of the application settings file.
	// DefaultConfigPath 是应用设置文件的标准位置。
	DefaultConfigPath = "data/user.yaml"

	// Store locations, relative to the root directory.
	// 存储位置，相对于根目录。
	PluginsFilePath    = "data/plugins.yaml"
	PluginHubFilePath  = "data/.cache/plugin-list.json"
	ProfilesFilePath   = "data/profiles.yaml"
	SubscribesFilePath = "data/subscribes.yaml"
	RulesetsFilePath   = "data/rulesets.yaml"
	CoreConfigFilePath = "data/mihomo/config.yaml"
	AppLogFilePath     = "data/logs/gfcore.log"

	// AppTitle is written into the header of generated core configs.
	// AppTitle 写入生成的内核配置文件头。
	AppTitle = "gfcore"
)

// DefaultHubURLs are the Plugin-Hub index files merged into the local hub list.
// DefaultHubURLs 是合并到本地插件仓库列表的索引文件。
var DefaultHubURLs = []string{
	"https://raw.githubusercontent.com/GUI-for-Cores/Plugin-Hub/main/plugins/generic.json",
	"https://raw.githubusercontent.com/GUI-for-Cores/Plugin-Hub/main/plugins/gfc.json",
}
