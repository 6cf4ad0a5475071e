package config

import "github.com/livp123/gfcore/internal/plugins/types"

// DefaultPreinstalled returns the plugins installed into an empty workspace.
// DefaultPreinstalled 返回安装到空工作区的插件。
func DefaultPreinstalled() []types.Preinstalled {
	return []types.Preinstalled{{
		Plugin: types.Plugin{
			ID:          "plugin-sync-configuration-gists",
			Name:        "Sync Configuration - Gists",
			Version:     "v1.0.2",
			Description: "Sync the application configuration through Gists.",
			Tags:        []string{"utility", "extension"},
			Type:        types.SourceHTTP,
			URL:         "https://raw.githubusercontent.com/GUI-for-Cores/Plugin-Hub/main/plugins/Generic/plugin-sync-configuration-gists.js",
			Path:        "data/plugins/plugin-sync-configuration-gists.js",
			Triggers:    []types.Trigger{types.OnManual, types.OnReady},
			Menus:       map[string]string{"Backup now": "Backup", "Sync to local": "Sync"},
			Context: map[string]any{
				"profiles":       map[string]any{},
				"subscriptions":  map[string]any{},
				"rulesets":       map[string]any{},
				"plugins":        map[string]any{},
				"scheduledtasks": map[string]any{},
			},
			Configuration: []types.ConfigurationItem{
				{ID: "ID_u3272842", Title: "TOKEN", Description: "Token with access to Gists", Key: "Authorization", Component: "Input", Value: ""},
				{ID: "ID_imjlb4rx", Title: "Secret", Description: "Key used to encrypt and decrypt", Key: "Secret", Component: "Input", Value: ""},
			},
			Install: true,
		},
		Dependencies: []types.Dependency{{
			URL:  "https://unpkg.com/crypto-js@latest/crypto-js.js",
			Path: "data/third/sync-gui-gists/crypto-js.js",
		}},
	}}
}
