package common

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/livp123/gfcore/internal/app"
	"github.com/livp123/gfcore/internal/runtime"
)

var (
	// MockApp allows tests to inject a prepared application
	// MockApp 允许测试注入预先构建的应用
	MockApp *app.App

	// Input is where confirmation answers are read from
	// Input 是读取确认回答的来源
	Input io.Reader = os.Stdin

	current *app.App
	mu      sync.Mutex
)

// GetApp returns the application built from the settings file, building it on first use.
// GetApp 返回根据设置文件构建的应用，首次使用时构建。
func GetApp(ctx context.Context) (*app.App, error) {
	if MockApp != nil {
		return MockApp, nil
	}
	mu.Lock()
	defer mu.Unlock()
	if current != nil {
		return current, nil
	}
	a, err := app.New(ctx, runtime.ResolveConfigPath(), app.WithConfirm(func(_ context.Context, msg string) bool {
		return AskConfirmation(msg)
	}))
	if err != nil {
		return nil, err
	}
	current = a
	return a, nil
}

// Loaded returns the application if a command already built it.
// Loaded 返回已由命令构建的应用。
func Loaded() (*app.App, bool) {
	if MockApp != nil {
		return MockApp, true
	}
	mu.Lock()
	defer mu.Unlock()
	return current, current != nil
}

// AskConfirmation prompts the user for confirmation.
// AskConfirmation 提示用户确认。
func AskConfirmation(prompt string) bool {
	if runtime.AssumeYes {
		return true
	}
	reader := bufio.NewReader(Input)
	fmt.Printf("%s [y/N]: ", prompt)
	response, err := reader.ReadString('\n')
	if err != nil && response == "" {
		return false
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}

// PrintJSON writes v as indented JSON to the command output.
// PrintJSON 将 v 以缩进 JSON 写入命令输出。
func PrintJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// JSONOutput reports whether --output json was requested.
// JSONOutput 报告是否请求了 --output json。
func JSONOutput() bool {
	return runtime.Output == runtime.OutputJSON
}
