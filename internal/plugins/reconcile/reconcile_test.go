package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livp123/gfcore/internal/plugins/dispatch"
	"github.com/livp123/gfcore/internal/plugins/registry"
	"github.com/livp123/gfcore/internal/plugins/types"
	apperrors "github.com/livp123/gfcore/pkg/errors"
	"github.com/livp123/gfcore/pkg/storage"
)

type catalogue map[string]*types.Plugin

func (c catalogue) Find(id string) (*types.Plugin, bool) {
	p, ok := c[id]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

type memSettings map[string]map[string]any

func (m memSettings) PluginSettings(id string) (map[string]any, bool) {
	v, ok := m[id]
	return v, ok
}

func (m memSettings) SetPluginSettings(id string, v map[string]any) error {
	if v == nil {
		delete(m, id)
		return nil
	}
	m[id] = v
	return nil
}

type fakeFetcher map[string]string

func (f fakeFetcher) Get(_ context.Context, url string) (string, error) {
	if body, ok := f[url]; ok {
		return body, nil
	}
	return "", errors.New("unreachable")
}

type env struct {
	reg      *registry.Registry
	files    *storage.DiskStore
	settings memSettings
	hub      catalogue
	r        *Reconciler
}

func newEnv(t *testing.T, fetcher fakeFetcher) *env {
	t.Helper()
	files := storage.NewDiskStore(t.TempDir())
	reg := registry.New(files, "data/plugins.yaml", dispatch.NewDispatcher())
	e := &env{reg: reg, files: files, settings: memSettings{}, hub: catalogue{}}
	e.r = New(e.hub, reg, e.settings, files, fetcher)
	return e
}

func hubPlugin(version string, config ...types.ConfigurationItem) *types.Plugin {
	return &types.Plugin{
		ID:            "plugin-x",
		Name:          "X",
		Version:       version,
		Type:          types.SourceHTTP,
		URL:           "https://hub/x.js",
		Path:          "data/plugins/plugin-x.js",
		Triggers:      []types.Trigger{types.OnManual},
		Configuration: config,
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, ChangeNone, Classify("v1.2.3", "v1.2.3"))
	assert.Equal(t, ChangeMinor, Classify("v1.2.3", "v1.3.0"))
	assert.Equal(t, ChangeMinor, Classify("v1.2.3", "v1.2.4"))
	assert.Equal(t, ChangeMajor, Classify("v1.2.3", "v2.0.0"))
	assert.Equal(t, ChangeMajor, Classify("", "v1.0.0"))
	assert.Equal(t, [3]string{"1", "2", ""}, Parse("v1.2"))

	assert.Equal(t, 1, Direction("v1.0.0", "v1.1.0"))
	assert.Equal(t, -1, Direction("v2.0.0", "v1.1.0"))
	assert.Equal(t, 0, Direction("latest", "v1.1.0"))
}

// TestMigrate tests that old values survive only when their shape matches
// TestMigrate 测试旧值仅在形态相同时保留
func TestMigrate(t *testing.T) {
	cfg := []types.ConfigurationItem{{Key: "token", Value: ""}}

	assert.Equal(t, map[string]any{"token": "abc"}, Migrate(map[string]any{"token": "abc"}, cfg))
	assert.Equal(t, map[string]any{"token": ""}, Migrate(map[string]any{"token": []any{"a"}}, cfg))

	cfg = []types.ConfigurationItem{
		{Key: "list", Value: []any{"x"}},
		{Key: "count", Value: 1},
		{Key: "fresh", Value: true},
	}
	got := Migrate(map[string]any{"list": []any{"a", "b"}, "count": 2.5, "gone": "x"}, cfg)
	assert.Equal(t, map[string]any{"list": []any{"a", "b"}, "count": 2.5, "fresh": true}, got)
}

// TestMajorUpdateReplacesAndMigrates tests the major-version path
// TestMajorUpdateReplacesAndMigrates 测试主版本更新路径
func TestMajorUpdateReplacesAndMigrates(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, fakeFetcher{"https://hub/x2.js": "function OnManual() {}"})

	installed := hubPlugin("v1.4.0", types.ConfigurationItem{Key: "token", Value: ""})
	installed.Status = 7
	require.NoError(t, e.reg.Add(ctx, installed))
	e.settings["plugin-x"] = map[string]any{"token": "abc", "mode": []any{"a"}}

	next := hubPlugin("v2.0.0",
		types.ConfigurationItem{Key: "token", Value: ""},
		types.ConfigurationItem{Key: "mode", Value: "fast"},
	)
	next.URL = "https://hub/x2.js"
	e.hub["plugin-x"] = next

	changed, err := e.r.Reconcile(ctx, installed)
	require.NoError(t, err)
	assert.True(t, changed)

	got, _ := e.reg.Get("plugin-x")
	assert.Equal(t, "v2.0.0", got.Version)
	assert.Equal(t, "https://hub/x2.js", got.URL)
	assert.Equal(t, 0, got.Status)
	assert.Equal(t, map[string]any{"token": "abc", "mode": "fast"}, e.settings["plugin-x"])

	entry, ok := e.reg.Source("plugin-x")
	require.True(t, ok)
	assert.Equal(t, "function OnManual() {}", entry.Source)
	written, err := e.files.ReadFile("data/plugins/plugin-x.js")
	require.NoError(t, err)
	assert.Equal(t, "function OnManual() {}", written)

	// Replace does not persist; the caller saves.
	// Replace 不会持久化，由调用方保存。
	list, err := types.LoadPlugins(e.files, "data/plugins.yaml")
	require.NoError(t, err)
	assert.Equal(t, "v1.4.0", list[0].Version)
}

func TestMinorUpdateBumpsVersionOnly(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, fakeFetcher{"https://hub/x.js": "src"})

	installed := hubPlugin("v1.4.0", types.ConfigurationItem{Key: "token", Value: ""})
	installed.Status = 7
	require.NoError(t, e.reg.Add(ctx, installed))
	e.settings["plugin-x"] = map[string]any{"token": []any{"keep"}}

	next := hubPlugin("v1.5.1", types.ConfigurationItem{Key: "other", Value: 1})
	e.hub["plugin-x"] = next

	changed, err := e.r.Reconcile(ctx, installed)
	require.NoError(t, err)
	assert.True(t, changed)

	got, _ := e.reg.Get("plugin-x")
	assert.Equal(t, "v1.5.1", got.Version)
	assert.Equal(t, 7, got.Status)
	assert.Equal(t, "token", got.Configuration[0].Key)
	assert.Equal(t, []any{"keep"}, e.settings["plugin-x"]["token"])
}

func TestReconcileHubMissing(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, fakeFetcher{})
	installed := hubPlugin("v1.0.0")
	require.NoError(t, e.reg.Add(ctx, installed))

	_, err := e.r.Reconcile(ctx, installed)
	assert.ErrorIs(t, err, apperrors.ErrVersionLookup)
	assert.EqualError(t, err, "Plugin not found. Please update the Plugin-Hub.")
}

// TestRefreshLocalPlugins tests source refresh without version comparison
// TestRefreshLocalPlugins 测试无版本比较的源码刷新
func TestRefreshLocalPlugins(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, fakeFetcher{})

	local := &types.Plugin{
		ID: "local-1", Name: "Local", Version: "v9.0.0", Type: types.SourceFile,
		Path: "data/plugins/local.js", Triggers: []types.Trigger{types.OnManual},
	}
	require.NoError(t, e.reg.Add(ctx, local))
	require.NoError(t, e.files.WriteFile(local.Path, "v1"))

	changed, err := e.r.Reconcile(ctx, local)
	require.NoError(t, err)
	assert.False(t, changed)
	entry, ok := e.reg.Source("local-1")
	require.True(t, ok)
	assert.Equal(t, "v1", entry.Source)

	require.NoError(t, e.files.RemoveFile(local.Path))
	_, err = e.r.Reconcile(ctx, local)
	assert.NoError(t, err)

	remote := &types.Plugin{
		ID: "remote-1", Name: "Remote", Type: types.SourceHTTP, URL: "https://down/r.js",
		Path: "data/plugins/r.js", Triggers: []types.Trigger{types.OnManual},
	}
	require.NoError(t, e.reg.Add(ctx, remote))
	_, err = e.r.Reconcile(ctx, remote)
	assert.Error(t, err)
}

// TestCheckpointRestoresUncachedPlugin tests that a plugin without source before
// the update loses the source it gained when rolled back
// TestCheckpointRestoresUncachedPlugin 测试更新前无源码的插件在回滚时会丢弃新获得的源码
func TestCheckpointRestoresUncachedPlugin(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, fakeFetcher{"https://hub/x.js": "new"})
	require.NoError(t, e.reg.Add(ctx, hubPlugin("v1.0.0")))
	e.hub["plugin-x"] = hubPlugin("v1.2.0")

	rollback := e.r.Checkpoint("plugin-x")
	p, _ := e.reg.Get("plugin-x")
	changed, err := e.r.Reconcile(ctx, p)
	require.NoError(t, err)
	require.True(t, changed)
	_, ok := e.reg.Source("plugin-x")
	require.True(t, ok)

	require.NoError(t, rollback(ctx))
	p, _ = e.reg.Get("plugin-x")
	assert.Equal(t, "v1.0.0", p.Version)
	_, ok = e.reg.Source("plugin-x")
	assert.False(t, ok)
	_, ok = e.settings.PluginSettings("plugin-x")
	assert.False(t, ok)

	assert.NoError(t, e.r.Checkpoint("ghost")(ctx))
}
