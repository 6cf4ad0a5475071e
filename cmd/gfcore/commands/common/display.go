package common

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/livp123/gfcore/internal/plugins/query"
	"github.com/livp123/gfcore/internal/plugins/types"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	disabledStyle = cellStyle.Foreground(lipgloss.Color("8"))
	updateStyle   = cellStyle.Foreground(lipgloss.Color("3"))
)

// RenderTable draws rows under headers with a normal border.
// RenderTable 以普通边框绘制带表头的表格。
func RenderTable(headers []string, rows [][]string, style func(row int) lipgloss.Style) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if style != nil {
				return style(row)
			}
			return cellStyle
		})
	return t.String()
}

// ShowPlugins prints plugins with their hub state.
// ShowPlugins 打印插件及其仓库状态。
func ShowPlugins(w io.Writer, list []*types.Plugin, hub query.Catalogue) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No plugins installed.")
		return
	}
	rows := make([][]string, 0, len(list))
	envs := make([]query.Env, 0, len(list))
	for _, p := range list {
		env := query.NewEnv(p, hub)
		envs = append(envs, env)
		state := "enabled"
		switch {
		case p.Disabled:
			state = "disabled"
		case env.Deprecated:
			state = "deprecated"
		case env.NewVersion:
			state = "update available"
		}
		rows = append(rows, []string{p.ID, p.Name, p.Version, string(p.Type), fmt.Sprint(p.Status), state, strings.Join(env.Triggers, ",")})
	}
	fmt.Fprintln(w, RenderTable(
		[]string{"ID", "NAME", "VERSION", "TYPE", "STATUS", "STATE", "TRIGGERS"},
		rows,
		func(row int) lipgloss.Style {
			if row < 0 || row >= len(envs) {
				return cellStyle
			}
			switch {
			case envs[row].Disabled:
				return disabledStyle
			case envs[row].NewVersion || envs[row].Deprecated:
				return updateStyle
			}
			return cellStyle
		},
	))
	fmt.Fprintf(w, "Total plugins: %d\n", len(list))
}
