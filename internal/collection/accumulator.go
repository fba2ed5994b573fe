package collection

import (
	"sync"

	"github.com/samizak/ColorsAI/domain/entity"
)

// ========== 分页累积列表 ==========
// "加载更多"时把后续页合并进已有列表，而不是整页替换
// 合并规则：过滤掉与新页 ID 重复的旧条目，再整页追加 —— 保序去重
// 切换视图不清空已累积的内容，收藏视图在读取时按当前收藏集过滤

// Accumulator 单个视图的累积状态
type Accumulator struct {
	mu      sync.Mutex
	items   []entity.ColoringPage
	hasMore bool
}

// NewAccumulator 创建空的累积列表
func NewAccumulator() *Accumulator {
	return &Accumulator{hasMore: true}
}

// MergePage 合并一页新数据
// hasMore 由调用方按总数计算后传入：满页不代表后面还有
// （总数恰好是 pageSize 的整数倍时，按页满推断会多报一页）
func (a *Accumulator) MergePage(page []entity.ColoringPage, hasMore bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	incoming := make(map[uint]struct{}, len(page))
	for _, item := range page {
		incoming[item.ID] = struct{}{}
	}

	merged := make([]entity.ColoringPage, 0, len(a.items)+len(page))
	for _, item := range a.items {
		if _, dup := incoming[item.ID]; !dup {
			merged = append(merged, item)
		}
	}
	merged = append(merged, page...)

	a.items = merged
	a.hasMore = hasMore
}

// Items 返回累积列表的副本
func (a *Accumulator) Items() []entity.ColoringPage {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]entity.ColoringPage, len(a.items))
	copy(out, a.items)
	return out
}

// Filter 返回满足条件的条目副本（收藏视图在读取时过滤）
func (a *Accumulator) Filter(keep func(entity.ColoringPage) bool) []entity.ColoringPage {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]entity.ColoringPage, 0, len(a.items))
	for _, item := range a.items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// HasMore 最近一次合并时记录的"还有更多"状态
func (a *Accumulator) HasMore() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hasMore
}

// Len 当前累积条数
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.items)
}

// RemoveID 从累积列表中剔除指定 ID，返回是否剔除了条目
func (a *Accumulator) RemoveID(id uint) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	kept := a.items[:0]
	removed := false
	for _, item := range a.items {
		if item.ID == id {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	a.items = kept
	return removed
}

// Snapshot 导出当前状态，供删除失败时回滚
func (a *Accumulator) Snapshot() ([]entity.ColoringPage, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	items := make([]entity.ColoringPage, len(a.items))
	copy(items, a.items)
	return items, a.hasMore
}

// Restore 恢复到 Snapshot 导出的状态
func (a *Accumulator) Restore(items []entity.ColoringPage, hasMore bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items = items
	a.hasMore = hasMore
}
