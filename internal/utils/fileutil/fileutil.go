package fileutil

import (
	"os"
	"path/filepath"
	"strings"
)

// AtomicWriteFile writes data to a temporary file and then renames it to the target file.
// AtomicWriteFile 将数据写入临时文件，然后将其重命名为目标文件。
func AtomicWriteFile(filename string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filename)
	tmpFile, err := os.CreateTemp(dir, "atomic-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return err
	}
	if err := tmpFile.Chmod(perm); err != nil {
		tmpFile.Close()
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	return os.Rename(tmpFile.Name(), filename) // #nosec G703 // filename is validated by caller
}

// IsManagedPath reports whether path lives under the data directory and may be deleted by the app.
// IsManagedPath 报告 path 是否位于数据目录下，可以由程序删除。
func IsManagedPath(path string) bool {
	return strings.HasPrefix(filepath.ToSlash(path), "data")
}

// CoreRelativePath rewrites a data-dir path to be relative to the core's working directory.
// CoreRelativePath 将数据目录路径改写为相对于内核工作目录的路径。
func CoreRelativePath(path string) string {
	return strings.Replace(path, "data/", "../", 1)
}
