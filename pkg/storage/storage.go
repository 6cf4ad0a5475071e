package storage

import "context"

// FileStore reads and writes text files addressed relative to the data root.
// FileStore 读写相对于数据根目录寻址的文本文件。
type FileStore interface {
	// ReadFile returns the file content as text.
	// ReadFile 以文本形式返回文件内容。
	ReadFile(path string) (string, error)
	// WriteFile creates parent directories and replaces the file content.
	// WriteFile 创建父目录并替换文件内容。
	WriteFile(path, content string) error
	// RemoveFile deletes the file; a missing file is not an error.
	// RemoveFile 删除文件；文件不存在不视为错误。
	RemoveFile(path string) error
	// Exists reports whether the file is present.
	// Exists 报告文件是否存在。
	Exists(path string) bool
}

// Fetcher downloads remote text resources such as plugin sources and hub lists.
// Fetcher 下载远程文本资源，例如插件源码与插件仓库列表。
type Fetcher interface {
	Get(ctx context.Context, url string) (string, error)
}
