package usecase

import (
	"fmt"
	"log"
	"sync"

	domainErrors "github.com/samizak/ColorsAI/domain/errors"
	"github.com/samizak/ColorsAI/domain/repository"
	"github.com/samizak/ColorsAI/internal/cache"
	"github.com/samizak/ColorsAI/internal/events"
)

// FavoriteUseCase 收藏业务逻辑层
// 切换操作按 (user, page) 粒度串行化：同一控件上的连点不再被丢弃，
// 而是排队依次落库，缓存里的展示值始终收敛到服务端的最终状态
type FavoriteUseCase struct {
	repo  repository.FavoriteRepository
	store *cache.Store
	hub   *events.Hub

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFavoriteUseCase 构造函数，依赖注入
func NewFavoriteUseCase(repo repository.FavoriteRepository, store *cache.Store, hub *events.Hub) *FavoriteUseCase {
	return &FavoriteUseCase{
		repo:  repo,
		store: store,
		hub:   hub,
		locks: make(map[string]*sync.Mutex),
	}
}

// lockFor 获取 (user, page) 对应的串行化锁
func (uc *FavoriteUseCase) lockFor(userID string, pageID uint) *sync.Mutex {
	key := fmt.Sprintf("%s:%d", userID, pageID)
	uc.mu.Lock()
	defer uc.mu.Unlock()
	l, ok := uc.locks[key]
	if !ok {
		l = &sync.Mutex{}
		uc.locks[key] = l
	}
	return l
}

// ListIDs 某用户收藏的涂色页 ID 集合（经缓存）
func (uc *FavoriteUseCase) ListIDs(userID string) ([]uint, error) {
	if userID == "" {
		return nil, domainErrors.ErrAuthenticationRequired
	}

	value, err := uc.store.GetOrFetch(favoriteIDsKey(userID), func() (interface{}, error) {
		return uc.repo.ListIDs(userID)
	})
	if err != nil {
		if value == nil {
			log.Printf("[Favorite] ❌ 获取收藏列表失败: %v", err)
			return nil, err
		}
		log.Printf("[Favorite] ⚠️ 拉取收藏列表失败，返回缓存旧值: %v", err)
	}
	ids, _ := value.([]uint)
	return ids, nil
}

// Count 某用户的收藏数（经缓存）
func (uc *FavoriteUseCase) Count(userID string) (int64, error) {
	if userID == "" {
		return 0, domainErrors.ErrAuthenticationRequired
	}

	value, err := uc.store.GetOrFetch(favoriteCountKey(userID), func() (interface{}, error) {
		return uc.repo.Count(userID)
	})
	if err != nil && value == nil {
		return 0, err
	}
	count, _ := value.(int64)
	return count, nil
}

// Toggle 切换收藏状态，返回服务端确认后的状态
// 失败时不改写缓存，展示值保持切换前的状态；
// 成功时以数据库实际发生的变化为准改写缓存，不信任调用方的取反预测
func (uc *FavoriteUseCase) Toggle(userID string, pageID uint) (bool, error) {
	if userID == "" {
		return false, domainErrors.ErrAuthenticationRequired
	}

	l := uc.lockFor(userID, pageID)
	l.Lock()
	defer l.Unlock()

	favorited, err := uc.repo.Toggle(userID, pageID)
	if err != nil {
		log.Printf("[Favorite] ❌ 切换收藏失败 (user=%s page=%d): %v", userID, pageID, err)
		return false, err
	}

	// 同步改写缓存，不触发重新拉取
	// 只改写已填充的条目：对着空缓存做增量改写会凭空造出一份不完整的列表
	if _, ok := uc.store.Peek(favoriteIDsKey(userID)); ok {
		uc.store.Mutate(favoriteIDsKey(userID), func(old interface{}) interface{} {
			ids, _ := old.([]uint)
			kept := make([]uint, 0, len(ids)+1)
			for _, id := range ids {
				if id != pageID {
					kept = append(kept, id)
				}
			}
			if favorited {
				kept = append(kept, pageID)
			}
			return kept
		}, false)
	}

	if _, ok := uc.store.Peek(favoriteCountKey(userID)); ok {
		uc.store.Mutate(favoriteCountKey(userID), func(old interface{}) interface{} {
			count, _ := old.(int64)
			if favorited {
				return count + 1
			}
			if count > 0 {
				return count - 1
			}
			return count
		}, false)
	}

	uc.hub.Publish(userID, events.TypeFavoriteToggled, events.FavoritePayload{
		PageID:    pageID,
		Favorited: favorited,
	})
	return favorited, nil
}
