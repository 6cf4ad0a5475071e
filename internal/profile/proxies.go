package profile

import (
	"gopkg.in/yaml.v3"

	"github.com/livp123/gfcore/pkg/storage"
)

// ProxySource returns the proxy definitions cached for a subscription.
// ProxySource 返回订阅缓存的节点定义。
type ProxySource interface {
	Proxies(sub *Subscription) ([]map[string]any, error)
}

// FileProxies reads the "proxies" list of a subscription's cached YAML file.
// FileProxies 读取订阅缓存 YAML 文件中的 "proxies" 列表。
type FileProxies struct {
	Files storage.FileStore
}

func (f FileProxies) Proxies(sub *Subscription) ([]map[string]any, error) {
	content, err := f.Files.ReadFile(sub.Path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Proxies []map[string]any `yaml:"proxies"`
	}
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return nil, err
	}
	return doc.Proxies, nil
}
