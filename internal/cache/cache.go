package cache

import (
	"strings"
	"sync"
	"time"
)

// ========== 进程内共享查询缓存 ==========
// 各视图共享同一份按 key 组织的缓存，任何一处写入对其他订阅方立即可见
// key 约定: "<资源名>" 或 "<资源名>:<参数>"，如 "coloring-pages:2"

// DefaultFreshWindow 默认去重窗口
// 与前端数据层时期的 dedupingInterval(60s) 保持一致
const DefaultFreshWindow = 60 * time.Second

// entry 单个缓存条目
// 所有读写都在 mu 保护下进行，同 key 的写入天然按锁串行化
type entry struct {
	mu        sync.Mutex
	value     interface{}
	err       error
	valid     bool // value 是否曾成功填充
	fetchedAt time.Time
}

// Store 按 key 组织的共享缓存
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	fresh   time.Duration
}

// NewStore 创建使用默认去重窗口的缓存
func NewStore() *Store {
	return NewStoreWithWindow(DefaultFreshWindow)
}

// NewStoreWithWindow 创建指定去重窗口的缓存（测试用）
func NewStoreWithWindow(fresh time.Duration) *Store {
	return &Store{
		entries: make(map[string]*entry),
		fresh:   fresh,
	}
}

// entryFor 获取或创建 key 对应的条目
func (s *Store) entryFor(key string) *entry {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// 双重检查，避免并发首次访问创建出两个条目
	if e, ok := s.entries[key]; ok {
		return e
	}
	e = &entry{}
	s.entries[key] = e
	return e
}

// GetOrFetch 读穿缓存
// 新鲜期内直接命中；过期则调用 fetch 并回填
// 同 key 的并发请求在条目锁上排队，后到者直接命中前者刚拉取的结果（请求去重）
// fetch 失败时保留上一次成功值一并返回（stale-while-error），错误记入条目
func (s *Store) GetOrFetch(key string, fetch func() (interface{}, error)) (interface{}, error) {
	e := s.entryFor(key)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.valid && time.Since(e.fetchedAt) < s.fresh {
		return e.value, nil
	}

	value, err := fetch()
	if err != nil {
		e.err = err
		if e.valid {
			return e.value, err // 旧值仍然可展示
		}
		return nil, err
	}

	e.value = value
	e.err = nil
	e.valid = true
	e.fetchedAt = time.Now()
	return value, nil
}

// Mutate 同步重写缓存值，乐观更新的入口
// updater 收到当前值（可能为 nil），返回新值
// revalidate=false 时条目保持新鲜，不会触发重新拉取；
// revalidate=true 时条目立即过期，下次读取重新走 fetch
func (s *Store) Mutate(key string, updater func(old interface{}) interface{}, revalidate bool) {
	e := s.entryFor(key)
	e.mu.Lock()
	defer e.mu.Unlock()

	var old interface{}
	if e.valid {
		old = e.value
	}
	e.value = updater(old)
	e.valid = true
	e.err = nil
	if revalidate {
		e.fetchedAt = time.Time{}
	} else {
		e.fetchedAt = time.Now()
	}
}

// Peek 只读取当前缓存值，不触发拉取
func (s *Store) Peek(key string) (interface{}, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.valid {
		return nil, false
	}
	return e.value, true
}

// Err 读取 key 上最近一次失败的错误（无错误返回 nil）
func (s *Store) Err(key string) error {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Invalidate 使单个 key 过期，下次读取重新拉取
func (s *Store) Invalidate(key string) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return
	}

	e.mu.Lock()
	e.fetchedAt = time.Time{}
	e.mu.Unlock()
}

// InvalidatePrefix 使一组 key 过期（如某资源的全部分页）
func (s *Store) InvalidatePrefix(prefix string) {
	for _, key := range s.Keys() {
		if strings.HasPrefix(key, prefix) {
			s.Invalidate(key)
		}
	}
}

// Keys 返回当前所有缓存 key 的快照
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	return keys
}
