package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livp123/gfcore/internal/plugins/dispatch"
	"github.com/livp123/gfcore/internal/plugins/executor"
	"github.com/livp123/gfcore/internal/plugins/reconcile"
	"github.com/livp123/gfcore/internal/plugins/registry"
	"github.com/livp123/gfcore/internal/plugins/types"
	"github.com/livp123/gfcore/internal/plugins/updater"
	"github.com/livp123/gfcore/pkg/storage"
)

const (
	listPath  = "data/plugins.yaml"
	sourceURL = "https://hub/gists.js"
	depURL    = "https://cdn/crypto.js"
	depPath   = "data/third/gists/crypto.js"
)

type fetcher map[string]string

func (f fetcher) Get(_ context.Context, url string) (string, error) {
	if body, ok := f[url]; ok {
		return body, nil
	}
	return "", errors.New("unreachable")
}

type fakeHub struct {
	list      []*types.Plugin
	refreshes int
	err       error
}

func (h *fakeHub) List() []*types.Plugin { return h.list }

func (h *fakeHub) Find(string) (*types.Plugin, bool) { return nil, false }

func (h *fakeHub) Refresh(context.Context) error {
	h.refreshes++
	return h.err
}

type workspace struct {
	files  *storage.DiskStore
	reg    *registry.Registry
	hub    *fakeHub
	seeder *Seeder
}

func newWorkspace(t *testing.T, f fetcher, installed ...*types.Plugin) *workspace {
	t.Helper()
	files := storage.NewDiskStore(t.TempDir())
	require.NoError(t, types.SavePlugins(files, listPath, installed))
	reg := registry.New(files, listPath, dispatch.NewDispatcher())
	require.NoError(t, reg.Setup(context.Background()))

	hub := &fakeHub{err: errors.New("offline")}
	rec := reconcile.New(hub, reg, nil, files, f)
	return &workspace{
		files:  files,
		reg:    reg,
		hub:    hub,
		seeder: New(reg, hub, updater.New(reg, rec), files, f),
	}
}

func gists() types.Preinstalled {
	return types.Preinstalled{
		Plugin: types.Plugin{
			ID: "plugin-gists", Name: "Gists", Version: "v1.0.2", Type: types.SourceHTTP,
			URL: sourceURL, Path: "data/plugins/gists.js",
			Triggers: []types.Trigger{types.OnManual, types.OnReady},
			Install:  true,
		},
		Dependencies: []types.Dependency{{URL: depURL, Path: depPath}},
	}
}

// TestSeedEmptyWorkspace tests that the first run installs the plugin, its
// dependency and opens the install gate
// TestSeedEmptyWorkspace 测试首次运行会安装插件及其依赖并打开安装门槛
func TestSeedEmptyWorkspace(t *testing.T) {
	ctx := context.Background()
	w := newWorkspace(t, fetcher{sourceURL: "function onReady() {}", depURL: "var CryptoJS = {}"})

	assert.Equal(t, 1, w.seeder.Seed(ctx, []types.Preinstalled{gists()}))
	assert.Equal(t, 1, w.hub.refreshes)

	p, ok := w.reg.Get("plugin-gists")
	require.True(t, ok)
	assert.True(t, p.Installed)
	assert.Equal(t, []string{"plugin-gists"}, w.reg.Dispatcher().Observers(types.OnReady))

	entry, ok := w.reg.Source("plugin-gists")
	assert.True(t, executor.Available(entry, ok))
	assert.Equal(t, "function onReady() {}", entry.Source)

	dep, err := w.files.ReadFile(depPath)
	require.NoError(t, err)
	assert.Equal(t, "var CryptoJS = {}", dep)

	stored, err := types.LoadPlugins(w.files, listPath)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.True(t, stored[0].Installed)

	assert.Zero(t, w.seeder.Seed(ctx, []types.Preinstalled{gists()}))
	assert.Equal(t, 1, w.hub.refreshes)
}

func TestSeedKeepsGateClosedWithoutDependency(t *testing.T) {
	ctx := context.Background()
	w := newWorkspace(t, fetcher{sourceURL: "function onReady() {}"})
	w.hub.list = []*types.Plugin{{ID: "plugin-other"}}

	assert.Equal(t, 1, w.seeder.Seed(ctx, []types.Preinstalled{gists()}))
	assert.Zero(t, w.hub.refreshes)

	p, _ := w.reg.Get("plugin-gists")
	assert.True(t, p.NeedsInstall())
	entry, ok := w.reg.Source("plugin-gists")
	assert.False(t, executor.Available(entry, ok))
	_, err := w.files.ReadFile(depPath)
	assert.Error(t, err)
}

func TestSeedWithoutSource(t *testing.T) {
	ctx := context.Background()
	w := newWorkspace(t, fetcher{depURL: "var CryptoJS = {}"})

	assert.Equal(t, 1, w.seeder.Seed(ctx, []types.Preinstalled{gists()}))
	p, _ := w.reg.Get("plugin-gists")
	assert.False(t, p.Installed)
	_, ok := w.reg.Source("plugin-gists")
	assert.False(t, ok)

	broken := gists()
	broken.Plugin.ID = "plugin-broken"
	broken.Plugin.Type = "Ftp"
	w = newWorkspace(t, fetcher{})
	assert.Equal(t, 1, w.seeder.Seed(ctx, []types.Preinstalled{broken, gists()}))
	assert.Len(t, w.reg.List(), 1)
}

func TestSeedSkipsPopulatedWorkspace(t *testing.T) {
	w := newWorkspace(t, fetcher{}, &types.Plugin{
		ID: "local-1", Name: "Local", Type: types.SourceFile, Path: "data/plugins/l.js",
	})

	assert.Zero(t, w.seeder.Seed(context.Background(), []types.Preinstalled{gists()}))
	assert.Zero(t, w.hub.refreshes)
	assert.Len(t, w.reg.List(), 1)
	assert.Zero(t, newWorkspace(t, fetcher{}).seeder.Seed(context.Background(), nil))
}
