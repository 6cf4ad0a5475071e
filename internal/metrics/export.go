package metrics

import (
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/prometheus/common/expfmt"
)

// WriteTextfile writes every gathered metric family to path in the text
// exposition format, for node_exporter's textfile collector.
// WriteTextfile 以文本格式将收集到的指标写入 path，供 node_exporter 的 textfile 收集器读取。
func WriteTextfile(g prometheus.Gatherer, path string) error {
	mfs, err := g.Gather()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	f, err := os.Create(filepath.Clean(tmp))
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(f, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			f.Close()
			os.Remove(tmp)
			return err
		}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	// Atomic rename
	return os.Rename(tmp, path)
}

// Push sends the gathered metrics to a Pushgateway under job "gfcore".
// Push 以作业名 "gfcore" 将指标推送到 Pushgateway。
func Push(g prometheus.Gatherer, addr string) error {
	if addr == "" {
		return nil
	}
	return push.New(addr, "gfcore").Gatherer(g).Push()
}
