// Package bootstrap installs the preinstalled plugins into an empty workspace.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/livp123/gfcore/internal/plugins/registry"
	"github.com/livp123/gfcore/internal/plugins/types"
	"github.com/livp123/gfcore/internal/utils/logger"
	"github.com/livp123/gfcore/pkg/storage"
)

var errNoSource = errors.New("plugin source not downloaded")

// Store is the registry surface the seeder reads and marks installed records through.
// Store 是播种器读取记录并标记已安装时使用的注册表接口。
type Store interface {
	List() []*types.Plugin
	Source(id string) (registry.Entry, bool)
	Edit(ctx context.Context, id string, np *types.Plugin) error
}

// Catalogue is the local Plugin-Hub list.
// Catalogue 是本地插件仓库列表。
type Catalogue interface {
	List() []*types.Plugin
	Refresh(ctx context.Context) error
}

// Installer adds a plugin and fetches its source.
// Installer 添加插件并获取其源码。
type Installer interface {
	Install(ctx context.Context, p *types.Plugin) (*types.Plugin, error)
}

// Seeder installs preinstalled plugins on first run.
// Seeder 在首次运行时安装预装插件。
type Seeder struct {
	store     Store
	hub       Catalogue
	installer Installer
	files     storage.FileStore
	fetcher   storage.Fetcher
}

func New(store Store, hub Catalogue, installer Installer, files storage.FileStore, fetcher storage.Fetcher) *Seeder {
	return &Seeder{store: store, hub: hub, installer: installer, files: files, fetcher: fetcher}
}

// Seed installs list when the plugin list is empty and returns how many
// plugins were added. The hub list is downloaded first if it is missing.
// Failures are logged and never stop the remaining plugins.
// Seed 在插件列表为空时安装 list，并返回新增插件的数量。若插件仓库列表缺失会先下载。
// 失败只记录日志，不会中断其余插件。
func (s *Seeder) Seed(ctx context.Context, list []types.Preinstalled) int {
	if len(list) == 0 || len(s.store.List()) > 0 {
		return 0
	}
	log := logger.Get(ctx)
	log.Infof("[PLUGIN] Installing %d preinstalled plugins", len(list))

	if len(s.hub.List()) == 0 {
		if err := s.hub.Refresh(ctx); err != nil {
			log.Warnf("[HUB] Plugin-Hub list not downloaded: %v", err)
		}
	}

	added := 0
	for _, item := range list {
		p, err := s.installer.Install(ctx, &item.Plugin)
		if err != nil {
			log.Errorf("[PLUGIN] Preinstalling %s failed: %v", item.Plugin.Name, err)
			continue
		}
		added++
		if err := s.installDependencies(ctx, p, item.Dependencies); err != nil {
			log.Warnf("[PLUGIN] Dependencies of %s not installed, install them manually: %v", p.Name, err)
		}
	}
	return added
}

// installDependencies downloads deps of a plugin still waiting for its install
// step and marks it installed once every file is written.
func (s *Seeder) installDependencies(ctx context.Context, p *types.Plugin, deps []types.Dependency) error {
	if !p.NeedsInstall() || len(deps) == 0 {
		return nil
	}
	if _, ok := s.store.Source(p.ID); !ok {
		return errNoSource
	}
	for _, dep := range deps {
		body, err := s.fetcher.Get(ctx, dep.URL)
		if err != nil {
			return fmt.Errorf("download %s: %w", dep.URL, err)
		}
		if err := s.files.WriteFile(dep.Path, body); err != nil {
			return fmt.Errorf("write %s: %w", dep.Path, err)
		}
	}
	next := p.Clone()
	next.Installed = true
	if err := s.store.Edit(ctx, p.ID, next); err != nil {
		return err
	}
	logger.Get(ctx).Infof("[PLUGIN] Installed dependencies of %s", p.Name)
	return nil
}
