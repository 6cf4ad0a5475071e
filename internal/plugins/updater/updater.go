// Package updater refreshes plugins one at a time or as a bounded batch.
package updater

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/livp123/gfcore/internal/metrics"
	"github.com/livp123/gfcore/internal/plugins/types"
	"github.com/livp123/gfcore/internal/utils/logger"
	apperrors "github.com/livp123/gfcore/pkg/errors"
)

// Concurrency bounds the number of refreshes in flight during a batch.
// Concurrency 限制批量更新时同时进行的刷新数量。
const Concurrency = 5

// Store is the registry surface the updater needs.
// Store 是更新器所需的注册表接口。
type Store interface {
	Get(id string) (*types.Plugin, bool)
	List() []*types.Plugin
	Add(ctx context.Context, p *types.Plugin) error
	SetUpdating(id string, updating bool)
	Save() error
}

// Reconciler applies hub changes to one plugin and refreshes its source.
// Checkpoint returns a function restoring the plugin to its state at the time
// of the call.
// Reconciler 对单个插件应用仓库变化并刷新其源码。Checkpoint 返回一个函数，可将插件恢复到调用时的状态。
type Reconciler interface {
	Reconcile(ctx context.Context, p *types.Plugin) (bool, error)
	Refresh(ctx context.Context, p *types.Plugin) error
	Checkpoint(id string) func(ctx context.Context) error
}

// Result is the outcome of one plugin update within a batch.
// Result 是批量更新中单个插件的结果。
type Result struct {
	OK      bool   `json:"ok" yaml:"ok"`
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Message string `json:"message" yaml:"message"`
}

// Updater schedules plugin refreshes.
// Updater 调度插件刷新。
type Updater struct {
	store Store
	rec   Reconciler
	limit int
}

// New creates an updater with the default concurrency bound.
// New 创建使用默认并发上限的更新器。
func New(store Store, rec Reconciler) *Updater {
	return &Updater{store: store, rec: rec, limit: Concurrency}
}

func successMessage(name string) string {
	return fmt.Sprintf("Plugin [%s] updated successfully.", name)
}

func failureMessage(name string, err error) string {
	return fmt.Sprintf("Failed to update plugin [%s]. Reason: %v", name, err)
}

// Update refreshes a single enabled plugin and persists the list if its record
// changed. When either step fails the plugin is rolled back.
// Update 刷新单个已启用插件，记录变化时持久化列表。任一步骤失败时插件会被回滚。
func (u *Updater) Update(ctx context.Context, id string) (string, error) {
	p, ok := u.store.Get(id)
	if !ok {
		return "", apperrors.NewNotFoundError(id)
	}
	if p.Disabled {
		return "", apperrors.NewDisabledError(p.Name)
	}

	u.store.SetUpdating(id, true)
	defer u.store.SetUpdating(id, false)

	rollback := u.rec.Checkpoint(id)
	changed, err := u.rec.Reconcile(ctx, p)
	if err == nil && changed {
		err = u.store.Save()
	}
	metrics.PluginUpdatesTotal.WithLabelValues(metrics.Outcome(err)).Inc()
	if err != nil {
		_ = rollback(ctx)
		return "", err
	}
	return successMessage(p.Name), nil
}

// UpdateAll refreshes every enabled plugin with at most Concurrency in flight.
// Each plugin gets exactly one result, in registry order. The list is saved
// once at the end if any update succeeded. A failed plugin is rolled back at
// once; a failed save rolls back every plugin of the batch.
// UpdateAll 以最多 Concurrency 个并发刷新所有已启用插件。每个插件恰好对应一个结果，按注册表顺序排列。
// 只要有任一更新成功，最后统一保存一次列表。失败的插件立即回滚；保存失败时回滚整批插件。
func (u *Updater) UpdateAll(ctx context.Context) ([]Result, error) {
	log := logger.Get(ctx)

	var targets []*types.Plugin
	for _, p := range u.store.List() {
		if !p.Disabled {
			targets = append(targets, p)
		}
	}

	results := make([]Result, len(targets))
	rollbacks := make([]func(context.Context) error, len(targets))
	var needSave atomic.Bool

	var g errgroup.Group
	g.SetLimit(u.limit)
	for i, p := range targets {
		g.Go(func() error {
			u.store.SetUpdating(p.ID, true)
			defer u.store.SetUpdating(p.ID, false)

			res := Result{OK: true, ID: p.ID, Name: p.Name}
			rollback := u.rec.Checkpoint(p.ID)
			_, err := u.rec.Reconcile(ctx, p)
			metrics.PluginUpdatesTotal.WithLabelValues(metrics.Outcome(err)).Inc()
			if err != nil {
				_ = rollback(ctx)
				res.OK = false
				res.Message = failureMessage(p.Name, err)
				log.Warnf("[PLUGIN] %s", res.Message)
			} else {
				rollbacks[i] = rollback
				needSave.Store(true)
				res.Message = successMessage(p.Name)
				log.Infof("[PLUGIN] %s", res.Message)
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	if needSave.Load() {
		if err := u.store.Save(); err != nil {
			log.Errorf("[STORE] Saving updated plugins failed: %v", err)
			for i := len(targets) - 1; i >= 0; i-- {
				if rollbacks[i] == nil {
					continue
				}
				_ = rollbacks[i](ctx)
				results[i].OK = false
				results[i].Message = failureMessage(targets[i].Name, err)
			}
			return results, err
		}
	}
	return results, nil
}

// Install adds p to the registry and fetches its source as recorded, without
// consulting the hub. A plugin without an id gets a generated one. A failed
// source refresh does not undo the install.
// Install 将 p 加入注册表并按记录获取其源码，不查询仓库。没有 id 的插件会生成一个。源码刷新失败不会撤销安装。
func (u *Updater) Install(ctx context.Context, p *types.Plugin) (*types.Plugin, error) {
	p = p.Clone()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := u.store.Add(ctx, p); err != nil {
		return nil, err
	}
	if err := u.rec.Refresh(ctx, p); err != nil {
		logger.Get(ctx).Warnf("[PLUGIN] Installed %s without source: %v", p.Name, err)
	}
	if changed, ok := u.store.Get(p.ID); ok {
		p = changed
	}
	return p, nil
}
