package logger

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/nxadm/tail"
)

// Tail prints the last n lines of the log file at path to w. With follow set it
// keeps printing appended lines, surviving rotation, until ctx is done.
// Tail 将 path 处日志文件的最后 n 行输出到 w。设置 follow 时持续输出新增行（支持日志轮转），直到 ctx 结束。
func Tail(ctx context.Context, path string, n int, follow bool, w io.Writer) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	last, err := lastLines(path, n)
	if err != nil {
		return err
	}
	for _, line := range last {
		fmt.Fprintln(w, line)
	}
	if !follow {
		return nil
	}

	t, err := tail.TailFile(path, tail.Config{
		Location:  &tail.SeekInfo{Offset: info.Size(), Whence: io.SeekStart},
		Follow:    true,
		ReOpen:    true,
		MustExist: true,
		Poll:      true,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return err
	}
	defer t.Cleanup()

	for {
		select {
		case <-ctx.Done():
			return t.Stop()
		case line, ok := <-t.Lines:
			if !ok {
				return t.Err()
			}
			if line.Err != nil {
				continue
			}
			fmt.Fprintln(w, line.Text)
		}
	}
}

// lastLines reads the file once, keeping a ring of the final n lines.
func lastLines(path string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	t, err := tail.TailFile(path, tail.Config{MustExist: true, Logger: tail.DiscardingLogger})
	if err != nil {
		return nil, err
	}
	defer t.Cleanup()

	ring := make([]string, 0, n)
	for line := range t.Lines {
		if line.Err != nil {
			continue
		}
		if len(ring) == n {
			ring = append(ring[:0], ring[1:]...)
		}
		ring = append(ring, line.Text)
	}
	return ring, nil
}
