// Package transfer exports every store into one JSON document and imports it
// back, either merging by id or replacing the stores wholesale.
package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/livp123/gfcore/internal/plugins/types"
	"github.com/livp123/gfcore/internal/profile"
	"github.com/livp123/gfcore/internal/utils/logger"
	apperrors "github.com/livp123/gfcore/pkg/errors"
)

// FormatVersion is written into every export.
// FormatVersion 写入每个导出文件。
const FormatVersion = "1.0.0"

// Document is the export file layout.
// Document 是导出文件的结构。
type Document struct {
	Version    string                  `json:"version"`
	ExportedAt string                  `json:"exportedAt"`
	Profiles   []*profile.Profile      `json:"profiles"`
	Subscribes []*profile.Subscription `json:"subscribes"`
	Rulesets   []*profile.Ruleset      `json:"rulesets"`
	Plugins    []*types.Plugin         `json:"plugins"`
}

// Plugins is the plugin store seen by import and export.
// Plugins 是导入导出所使用的插件存储。
type Plugins interface {
	List() []*types.Plugin
	ReplaceAll(ctx context.Context, list []*types.Plugin) error
}

// Options selects the sections to import and how they are applied.
// Options 选择要导入的部分及其应用方式。
type Options struct {
	Profiles   bool
	Subscribes bool
	Rulesets   bool
	Plugins    bool
	// Merge adds records whose id is missing; otherwise each section replaces its store.
	// Merge 仅追加 id 不存在的记录；否则每个部分整体替换对应存储。
	Merge bool
}

// AllSections imports everything in replace mode.
// AllSections 以替换模式导入全部内容。
func AllSections() Options {
	return Options{Profiles: true, Subscribes: true, Rulesets: true, Plugins: true}
}

// Summary counts the records each section contributed.
// Summary 统计每个部分导入的记录数。
type Summary struct {
	Profiles   int `json:"profiles"`
	Subscribes int `json:"subscribes"`
	Rulesets   int `json:"rulesets"`
	Plugins    int `json:"plugins"`
}

// Service moves the stores in and out of export documents.
// Service 负责在存储与导出文档之间转移数据。
type Service struct {
	stores  *profile.Stores
	plugins Plugins
	now     func() time.Time
}

func New(stores *profile.Stores, plugins Plugins) *Service {
	return &Service{stores: stores, plugins: plugins, now: time.Now}
}

// Export captures the current content of every store.
// Export 获取所有存储的当前内容。
func (s *Service) Export() *Document {
	return &Document{
		Version:    FormatVersion,
		ExportedAt: s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Profiles:   s.stores.Profiles.List(),
		Subscribes: s.stores.Subscriptions.List(),
		Rulesets:   s.stores.Rulesets.List(),
		Plugins:    s.plugins.List(),
	}
}

// Encode writes doc as indented JSON.
// Encode 将 doc 写为缩进的 JSON。
func Encode(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Decode reads and validates an export document.
// Decode 读取并校验导出文档。
func Decode(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if err := validate(data); err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrImportInvalid, err)
	}
	if doc.Version == "" || doc.ExportedAt == "" {
		return nil, apperrors.ErrImportInvalid
	}
	return &doc, nil
}

// Import applies doc to the stores selected by opts. A section absent from the
// document leaves its store untouched. Sections are applied in order and the
// first failure stops the import.
// Import 将 doc 应用到 opts 选中的存储。文档中缺失的部分不会修改对应存储。
// 各部分按顺序应用，第一次失败即停止导入。
func (s *Service) Import(ctx context.Context, doc *Document, opts Options) (Summary, error) {
	log := logger.Get(ctx)
	var sum Summary

	if doc == nil || doc.Version == "" || doc.ExportedAt == "" {
		return sum, apperrors.ErrImportInvalid
	}

	var err error
	if opts.Profiles && doc.Profiles != nil {
		if sum.Profiles, err = apply(s.stores.Profiles, doc.Profiles, opts.Merge); err != nil {
			return sum, err
		}
	}
	if opts.Subscribes && doc.Subscribes != nil {
		if sum.Subscribes, err = apply(s.stores.Subscriptions, doc.Subscribes, opts.Merge); err != nil {
			return sum, err
		}
	}
	if opts.Rulesets && doc.Rulesets != nil {
		if sum.Rulesets, err = apply(s.stores.Rulesets, doc.Rulesets, opts.Merge); err != nil {
			return sum, err
		}
	}
	if opts.Plugins && doc.Plugins != nil {
		if sum.Plugins, err = s.importPlugins(ctx, doc.Plugins, opts.Merge); err != nil {
			return sum, err
		}
	}

	log.Infof("[IMPORT] Imported %d profiles, %d subscribes, %d rulesets, %d plugins (merge=%v)",
		sum.Profiles, sum.Subscribes, sum.Rulesets, sum.Plugins, opts.Merge)
	return sum, nil
}

func apply[T profile.Record[T]](store *profile.Store[T], items []T, merge bool) (int, error) {
	if merge {
		return store.Merge(items)
	}
	if err := store.ReplaceAll(items); err != nil {
		return 0, err
	}
	return len(items), nil
}

// importPlugins goes through ReplaceAll in both modes so the source cache and
// the observer lists are rebuilt together with the list.
func (s *Service) importPlugins(ctx context.Context, list []*types.Plugin, merge bool) (int, error) {
	if !merge {
		for _, p := range list {
			if err := types.Validate(p); err != nil {
				return 0, fmt.Errorf("%w: %v", apperrors.ErrImportInvalid, err)
			}
		}
		if err := s.plugins.ReplaceAll(ctx, list); err != nil {
			return 0, err
		}
		return len(list), nil
	}

	current := s.plugins.List()
	seen := make(map[string]bool, len(current))
	for _, p := range current {
		seen[p.ID] = true
	}
	added := 0
	for _, p := range list {
		if p == nil || seen[p.ID] {
			continue
		}
		if err := types.Validate(p); err != nil {
			return 0, fmt.Errorf("%w: %v", apperrors.ErrImportInvalid, err)
		}
		seen[p.ID] = true
		current = append(current, p)
		added++
	}
	if added == 0 {
		return 0, nil
	}
	if err := s.plugins.ReplaceAll(ctx, current); err != nil {
		return 0, err
	}
	return added, nil
}
