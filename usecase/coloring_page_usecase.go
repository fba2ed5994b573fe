package usecase

import (
	"log"
	"strings"
	"sync"

	"github.com/samizak/ColorsAI/domain/entity"
	domainErrors "github.com/samizak/ColorsAI/domain/errors"
	"github.com/samizak/ColorsAI/domain/repository"
	"github.com/samizak/ColorsAI/internal/cache"
	"github.com/samizak/ColorsAI/internal/collection"
	"github.com/samizak/ColorsAI/internal/events"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

// defaultTransform 编辑器变换状态的初始值
const defaultTransform = `{"zoom":1,"rotation":0,"position":{"x":0,"y":0}}`

// defaultTitle 未命名涂色页的兜底标题
const defaultTitle = "Untitled Coloring Page"

// ColoringPageUseCase 涂色页业务逻辑层
// 所有列表读取都经过共享缓存（60s 去重窗口），写操作同步改写缓存
// 而不是等下一次拉取 —— 一个视图里的变更对其他视图立即可见
type ColoringPageUseCase struct {
	repo  repository.ColoringPageRepository
	store *cache.Store
	hub   *events.Hub

	mu    sync.Mutex
	feeds map[string]*collection.Accumulator // 视图级累积列表，切换视图不清空
}

// NewColoringPageUseCase 构造函数，依赖注入
func NewColoringPageUseCase(repo repository.ColoringPageRepository, store *cache.Store, hub *events.Hub) *ColoringPageUseCase {
	return &ColoringPageUseCase{
		repo:  repo,
		store: store,
		hub:   hub,
		feeds: make(map[string]*collection.Accumulator),
	}
}

// ListResult 列表查询结果
type ListResult struct {
	Items   []entity.ColoringPage
	HasMore bool
}

// feed 获取或创建视图的累积列表
func (uc *ColoringPageUseCase) feed(key string) *collection.Accumulator {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	acc, ok := uc.feeds[key]
	if !ok {
		acc = collection.NewAccumulator()
		uc.feeds[key] = acc
	}
	return acc
}

// fetchPageList 读穿缓存取一页数据
// 拉取失败但有旧值时降级返回旧值（stale-while-error）
func (uc *ColoringPageUseCase) fetchPageList(key string, fetch func() ([]entity.ColoringPage, error)) ([]entity.ColoringPage, error) {
	value, err := uc.store.GetOrFetch(key, func() (interface{}, error) {
		return fetch()
	})
	if err != nil {
		if value == nil {
			return nil, err
		}
		log.Printf("[Page] ⚠️ 拉取 %s 失败，返回缓存旧值: %v", key, err)
	}
	items, _ := value.([]entity.ColoringPage)
	return items, nil
}

// ListRecent 最新涂色页视图
// 取第 page 页并合并进累积列表，返回的是合并后的完整视图
// hasMore 按总数计算：总数恰好是 pageSize 的整数倍时，
// 满页不能当作"后面还有"的依据
func (uc *ColoringPageUseCase) ListRecent(page, pageSize int) (*ListResult, error) {
	items, err := uc.fetchPageList(pagesKey(page), func() ([]entity.ColoringPage, error) {
		return uc.repo.ListRecent(page, pageSize)
	})
	if err != nil {
		log.Printf("[Page] ❌ 获取最新涂色页失败: %v", err)
		return nil, err
	}

	total, err := uc.Count()
	if err != nil {
		log.Printf("[Page] ❌ 获取涂色页总数失败: %v", err)
		return nil, err
	}

	acc := uc.feed(feedKeyRecent)
	acc.MergePage(items, int64(page)*int64(pageSize) < total)
	return &ListResult{Items: acc.Items(), HasMore: acc.HasMore()}, nil
}

// ListCreated "我生成的"视图
func (uc *ColoringPageUseCase) ListCreated(userID string, page, pageSize int) (*ListResult, error) {
	items, err := uc.fetchPageList(userPagesKey(userID, page), func() ([]entity.ColoringPage, error) {
		return uc.repo.ListGenerated(userID, page, pageSize)
	})
	if err != nil {
		log.Printf("[Page] ❌ 获取用户生成涂色页失败: %v", err)
		return nil, err
	}

	total, err := uc.createdCount(userID)
	if err != nil {
		log.Printf("[Page] ❌ 获取用户生成涂色页数失败: %v", err)
		return nil, err
	}

	acc := uc.feed(createdFeedKey(userID))
	acc.MergePage(items, int64(page)*int64(pageSize) < total)
	return &ListResult{Items: acc.Items(), HasMore: acc.HasMore()}, nil
}

// createdCount 某用户 AI 生成的涂色页数（经缓存）
func (uc *ColoringPageUseCase) createdCount(userID string) (int64, error) {
	value, err := uc.store.GetOrFetch(createdCountKey(userID), func() (interface{}, error) {
		return uc.repo.CountGenerated(userID)
	})
	if err != nil && value == nil {
		return 0, err
	}
	count, _ := value.(int64)
	return count, nil
}

// ListGallery 画廊视图（全量）
func (uc *ColoringPageUseCase) ListGallery() ([]entity.ColoringPage, error) {
	return uc.fetchPageList(cacheKeyGallery, func() ([]entity.ColoringPage, error) {
		return uc.repo.ListAll()
	})
}

// ListFavorites 收藏视图
// 累积/画廊列表里可能残留已取消收藏的条目，所以按当前收藏集
// 在读取时过滤，而不是在拉取时过滤
func (uc *ColoringPageUseCase) ListFavorites(favoriteIDs []uint) ([]entity.ColoringPage, error) {
	all, err := uc.ListGallery()
	if err != nil {
		return nil, err
	}

	idSet := make(map[uint]struct{}, len(favoriteIDs))
	for _, id := range favoriteIDs {
		idSet[id] = struct{}{}
	}

	out := make([]entity.ColoringPage, 0, len(favoriteIDs))
	for _, page := range all {
		if _, ok := idSet[page.ID]; ok {
			out = append(out, page)
		}
	}
	return out, nil
}

// Count 涂色页总数（经缓存）
func (uc *ColoringPageUseCase) Count() (int64, error) {
	value, err := uc.store.GetOrFetch(cacheKeyCount, func() (interface{}, error) {
		return uc.repo.CountTotal()
	})
	if err != nil && value == nil {
		return 0, err
	}
	count, _ := value.(int64)
	return count, nil
}

// GetPage 获取单个涂色页
// 返回 nil 表示不存在，调用方需处理
func (uc *ColoringPageUseCase) GetPage(id uint) (*entity.ColoringPage, error) {
	return uc.repo.GetByID(id)
}

// CreatePage 创建涂色页（上传路径，is_ai_generated=false 由调用方指定）
func (uc *ColoringPageUseCase) CreatePage(userID, title, image string, aiGenerated bool) (*entity.ColoringPage, error) {
	if userID == "" {
		return nil, domainErrors.ErrAuthenticationRequired
	}
	if strings.TrimSpace(image) == "" {
		return nil, domainErrors.ErrEmptyImage
	}
	if strings.TrimSpace(title) == "" {
		title = defaultTitle
	}

	page := &entity.ColoringPage{
		Title:         title,
		Image:         image,
		UserID:        userID,
		IsAIGenerated: aiGenerated,
	}
	if err := uc.repo.Create(page); err != nil {
		log.Printf("[Page] ❌ 创建涂色页失败: %v", err)
		return nil, err
	}

	uc.invalidateLists(userID)
	uc.hub.Publish(userID, events.TypePageCreated, events.PagePayload{PageID: page.ID, Title: page.Title})
	return page, nil
}

// UpdatePage 更新标题与图片
func (uc *ColoringPageUseCase) UpdatePage(id uint, userID, title, image string) (*entity.ColoringPage, error) {
	current, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domainErrors.ErrPageNotFound
	}
	if current.UserID != userID {
		return nil, domainErrors.ErrForbidden
	}
	if strings.TrimSpace(image) == "" {
		return nil, domainErrors.ErrEmptyImage
	}
	if strings.TrimSpace(title) == "" {
		title = current.Title
	}

	page, err := uc.repo.Update(id, title, image)
	if err != nil {
		log.Printf("[Page] ❌ 更新涂色页 %d 失败: %v", id, err)
		return nil, err
	}

	uc.invalidateLists(userID)
	uc.hub.Publish(userID, events.TypePageUpdated, events.PagePayload{PageID: id, Title: page.Title})
	return page, nil
}

// PatchTransform 对编辑器变换状态应用 RFC 6902 补丁
// 返回应用后的完整变换 JSON
func (uc *ColoringPageUseCase) PatchTransform(id uint, userID string, patchBytes []byte) ([]byte, error) {
	current, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domainErrors.ErrPageNotFound
	}
	if current.UserID != userID {
		return nil, domainErrors.ErrForbidden
	}

	state := []byte(current.Transform)
	if len(state) == 0 {
		state = []byte(defaultTransform)
	}

	patch, err := jsonpatch.DecodePatch(patchBytes)
	if err != nil {
		return nil, err
	}
	next, err := patch.Apply(state)
	if err != nil {
		return nil, err
	}

	if err := uc.repo.UpdateTransform(id, next); err != nil {
		log.Printf("[Page] ❌ 更新变换状态失败: %v", err)
		return nil, err
	}

	uc.hub.Publish(userID, events.TypePageUpdated, events.PagePayload{PageID: id, Title: current.Title})
	return next, nil
}

// DeletePage 删除涂色页
// 乐观移除：先把 id 从所有缓存视图与累积列表中剔除，再落库；
// 落库失败时用快照恢复，本地视图不会与服务端状态漂移
func (uc *ColoringPageUseCase) DeletePage(id uint, userID string) error {
	page, err := uc.repo.GetByID(id)
	if err != nil {
		return err
	}
	if page == nil {
		return domainErrors.ErrPageNotFound
	}
	if page.UserID != userID {
		return domainErrors.ErrForbidden
	}

	cacheSnapshots := uc.removeFromCaches(page)
	feedSnapshots := uc.removeFromFeeds(id)

	if err := uc.repo.Delete(id); err != nil {
		log.Printf("[Page] ❌ 删除涂色页 %d 失败，回滚本地视图: %v", id, err)
		uc.restoreCaches(cacheSnapshots)
		uc.restoreFeeds(feedSnapshots)
		return err
	}

	uc.hub.Publish(userID, events.TypePageDeleted, events.PagePayload{PageID: id, Title: page.Title})
	log.Printf("[Page] 🗑️ 涂色页 %d 已删除", id)
	return nil
}

// ---------- 乐观移除的快照与回滚 ----------

type cacheSnapshot struct {
	key   string
	value interface{}
}

type feedSnapshot struct {
	items   []entity.ColoringPage
	hasMore bool
}

// removeFromCaches 从所有相关缓存 key 中剔除待删除的涂色页，返回改写前的快照
// 仓库事务会把所有用户指向该页的收藏一起删掉，
// 所以每个用户的收藏集和收藏数缓存都要一并对账，不只是删除者自己的
func (uc *ColoringPageUseCase) removeFromCaches(page *entity.ColoringPage) []cacheSnapshot {
	id := page.ID
	var snapshots []cacheSnapshot

	// 先读一遍各用户缓存的收藏集，记录谁的收藏集里有该页
	// 收藏数按这份记录决定减一还是回源（收藏集未填充时无从判断）
	favHad := make(map[string]bool)
	for _, key := range uc.store.Keys() {
		if !strings.HasPrefix(key, cacheKeyFavorites+":") {
			continue
		}
		user := strings.TrimPrefix(key, cacheKeyFavorites+":")
		value, ok := uc.store.Peek(key)
		if !ok {
			continue
		}
		favHad[user] = false
		ids, _ := value.([]uint)
		for _, fid := range ids {
			if fid == id {
				favHad[user] = true
				break
			}
		}
	}

	for _, key := range uc.store.Keys() {
		isPageList := strings.HasPrefix(key, cacheKeyPages+":") ||
			strings.HasPrefix(key, cacheKeyUserPages+":") ||
			key == cacheKeyGallery

		switch {
		case isPageList:
			old, ok := uc.store.Peek(key)
			if !ok {
				continue
			}
			snapshots = append(snapshots, cacheSnapshot{key: key, value: old})
			uc.store.Mutate(key, func(cur interface{}) interface{} {
				items, _ := cur.([]entity.ColoringPage)
				kept := make([]entity.ColoringPage, 0, len(items))
				for _, item := range items {
					if item.ID != id {
						kept = append(kept, item)
					}
				}
				return kept
			}, false)

		case strings.HasPrefix(key, cacheKeyFavorites+":"):
			old, ok := uc.store.Peek(key)
			if !ok {
				continue
			}
			snapshots = append(snapshots, cacheSnapshot{key: key, value: old})
			uc.store.Mutate(key, func(cur interface{}) interface{} {
				ids, _ := cur.([]uint)
				kept := make([]uint, 0, len(ids))
				for _, fid := range ids {
					if fid != id {
						kept = append(kept, fid)
					}
				}
				return kept
			}, false)

		case strings.HasPrefix(key, cacheKeyFavCount+":"):
			user := strings.TrimPrefix(key, cacheKeyFavCount+":")
			had, known := favHad[user]
			if !known {
				// 该用户的收藏集没在缓存里，判断不了收藏数该不该减，回源
				uc.store.Invalidate(key)
				continue
			}
			if !had {
				continue
			}
			old, ok := uc.store.Peek(key)
			if !ok {
				continue
			}
			snapshots = append(snapshots, cacheSnapshot{key: key, value: old})
			uc.store.Mutate(key, decrementCount, false)

		case key == cacheKeyCount:
			old, ok := uc.store.Peek(key)
			if !ok {
				continue
			}
			snapshots = append(snapshots, cacheSnapshot{key: key, value: old})
			uc.store.Mutate(key, decrementCount, false)

		case key == createdCountKey(page.UserID) && page.IsAIGenerated:
			old, ok := uc.store.Peek(key)
			if !ok {
				continue
			}
			snapshots = append(snapshots, cacheSnapshot{key: key, value: old})
			uc.store.Mutate(key, decrementCount, false)
		}
	}
	return snapshots
}

// decrementCount 计数类缓存条目减一，不降到负数
func decrementCount(cur interface{}) interface{} {
	count, _ := cur.(int64)
	if count > 0 {
		count--
	}
	return count
}

// restoreCaches 按快照恢复缓存
func (uc *ColoringPageUseCase) restoreCaches(snapshots []cacheSnapshot) {
	for _, snap := range snapshots {
		value := snap.value
		uc.store.Mutate(snap.key, func(interface{}) interface{} {
			return value
		}, false)
	}
}

// removeFromFeeds 从所有累积列表中剔除 id，返回改写前的快照
func (uc *ColoringPageUseCase) removeFromFeeds(id uint) map[string]feedSnapshot {
	uc.mu.Lock()
	feeds := make(map[string]*collection.Accumulator, len(uc.feeds))
	for key, acc := range uc.feeds {
		feeds[key] = acc
	}
	uc.mu.Unlock()

	snapshots := make(map[string]feedSnapshot, len(feeds))
	for key, acc := range feeds {
		items, hasMore := acc.Snapshot()
		snapshots[key] = feedSnapshot{items: items, hasMore: hasMore}
		acc.RemoveID(id)
	}
	return snapshots
}

// restoreFeeds 按快照恢复累积列表
func (uc *ColoringPageUseCase) restoreFeeds(snapshots map[string]feedSnapshot) {
	for key, snap := range snapshots {
		uc.feed(key).Restore(snap.items, snap.hasMore)
	}
}

// invalidateLists 写入后使列表类和计数类缓存过期，下次读取回源
func (uc *ColoringPageUseCase) invalidateLists(userID string) {
	uc.store.InvalidatePrefix(cacheKeyPages + ":")
	uc.store.InvalidatePrefix(cacheKeyUserPages + ":" + userID + ":")
	uc.store.Invalidate(cacheKeyGallery)
	uc.store.Invalidate(cacheKeyCount)
	uc.store.Invalidate(createdCountKey(userID))
}
