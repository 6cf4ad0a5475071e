package profile

import (
	"context"
	"sync"

	"github.com/livp123/gfcore/internal/utils/logger"
	apperrors "github.com/livp123/gfcore/pkg/errors"
	"github.com/livp123/gfcore/pkg/storage"
)

// Record is a stored item with an id that can copy itself.
// Record 是带 id 且可自我复制的存储条目。
type Record[T any] interface {
	GetID() string
	Clone() T
}

// Store is an ordered list of records persisted as one YAML file. Readers
// always receive copies.
// Store 是以单个 YAML 文件持久化的有序记录列表。读取方始终获得副本。
type Store[T Record[T]] struct {
	mu    sync.RWMutex
	files storage.FileStore
	path  string
	items []T
}

// NewStore creates a store backed by path.
// NewStore 创建以 path 为后端的存储。
func NewStore[T Record[T]](files storage.FileStore, path string) *Store[T] {
	return &Store[T]{files: files, path: path}
}

// Load reads the file. A missing file yields an empty store.
// Load 读取文件。文件不存在时存储为空。
func (s *Store[T]) Load(ctx context.Context) error {
	var items []T
	if err := storage.LoadYAML(s.files, s.path, &items); err != nil {
		return err
	}
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	logger.Get(ctx).Debugf("[STORE] Loaded %d records from %s", len(items), s.path)
	return nil
}

// Save writes the current list.
// Save 写入当前列表。
func (s *Store[T]) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := storage.SaveYAML(s.files, s.path, s.items); err != nil {
		return apperrors.NewPersistenceError(s.path, err)
	}
	return nil
}

// List returns copies of all records in order.
// List 按顺序返回所有记录的副本。
func (s *Store[T]) List() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.items))
	for i, item := range s.items {
		out[i] = item.Clone()
	}
	return out
}

// Get returns a copy of the record with id.
// Get 返回指定 id 记录的副本。
func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.GetID() == id {
			return item.Clone(), true
		}
	}
	var zero T
	return zero, false
}

// ReplaceAll swaps the list and saves it. A failed save restores the old list.
// ReplaceAll 替换整个列表并保存。保存失败时恢复旧列表。
func (s *Store[T]) ReplaceAll(items []T) error {
	s.mu.Lock()
	old := s.items
	s.items = make([]T, len(items))
	for i, item := range items {
		s.items[i] = item.Clone()
	}
	s.mu.Unlock()

	if err := s.Save(); err != nil {
		s.mu.Lock()
		s.items = old
		s.mu.Unlock()
		return err
	}
	return nil
}

// Merge appends records whose id is not yet present and saves. It returns the
// number of records added.
// Merge 追加 id 尚不存在的记录并保存，返回新增数量。
func (s *Store[T]) Merge(items []T) (int, error) {
	s.mu.Lock()
	old := s.items
	seen := make(map[string]bool, len(s.items))
	for _, item := range s.items {
		seen[item.GetID()] = true
	}
	merged := append([]T(nil), s.items...)
	added := 0
	for _, item := range items {
		if seen[item.GetID()] {
			continue
		}
		seen[item.GetID()] = true
		merged = append(merged, item.Clone())
		added++
	}
	s.items = merged
	s.mu.Unlock()

	if err := s.Save(); err != nil {
		s.mu.Lock()
		s.items = old
		s.mu.Unlock()
		return 0, err
	}
	return added, nil
}

// Stores groups the three compiler input stores.
// Stores 汇集三个编译器输入存储。
type Stores struct {
	Profiles      *Store[*Profile]
	Subscriptions *Store[*Subscription]
	Rulesets      *Store[*Ruleset]
}

// NewStores creates the input stores at the given paths.
// NewStores 在指定路径创建输入存储。
func NewStores(files storage.FileStore, profiles, subscriptions, rulesets string) *Stores {
	return &Stores{
		Profiles:      NewStore[*Profile](files, profiles),
		Subscriptions: NewStore[*Subscription](files, subscriptions),
		Rulesets:      NewStore[*Ruleset](files, rulesets),
	}
}

// Load reads all three stores.
// Load 读取全部三个存储。
func (s *Stores) Load(ctx context.Context) error {
	if err := s.Profiles.Load(ctx); err != nil {
		return err
	}
	if err := s.Subscriptions.Load(ctx); err != nil {
		return err
	}
	return s.Rulesets.Load(ctx)
}

// Snapshot is an immutable view of the compiler inputs at one point in time.
// Snapshot 是某一时刻编译器输入的不可变视图。
type Snapshot struct {
	Profile       *Profile
	Subscriptions []*Subscription
	Rulesets      []*Ruleset
}

// Snapshot copies the profile with id together with all subscriptions and rulesets.
// Snapshot 复制指定 id 的配置以及所有订阅和规则集。
func (s *Stores) Snapshot(profileID string) (*Snapshot, error) {
	p, ok := s.Profiles.Get(profileID)
	if !ok {
		return nil, apperrors.ErrProfileNotFound
	}
	return &Snapshot{
		Profile:       p,
		Subscriptions: s.Subscriptions.List(),
		Rulesets:      s.Rulesets.List(),
	}, nil
}

// Subscription returns the subscription with id.
// Subscription 返回指定 id 的订阅。
func (s *Snapshot) Subscription(id string) (*Subscription, bool) {
	for _, sub := range s.Subscriptions {
		if sub.ID == id {
			return sub, true
		}
	}
	return nil, false
}

// RulesetByID returns the ruleset with id.
// RulesetByID 返回指定 id 的规则集。
func (s *Snapshot) RulesetByID(id string) (*Ruleset, bool) {
	for _, r := range s.Rulesets {
		if r.ID == id {
			return r, true
		}
	}
	return nil, false
}

// RulesetByName returns the ruleset with a display name.
// RulesetByName 返回指定显示名称的规则集。
func (s *Snapshot) RulesetByName(name string) (*Ruleset, bool) {
	for _, r := range s.Rulesets {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}
