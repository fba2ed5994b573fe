package usecase

import (
	"errors"
	"testing"

	domainErrors "github.com/samizak/ColorsAI/domain/errors"
	"github.com/samizak/ColorsAI/internal/cache"
	"github.com/samizak/ColorsAI/internal/events"

	"github.com/stretchr/testify/assert"
)

func newFavoriteFixture() (*FavoriteUseCase, *MockFavoriteRepository, *cache.Store) {
	repo := new(MockFavoriteRepository)
	store := cache.NewStore()
	hub := events.NewHub()
	return NewFavoriteUseCase(repo, store, hub), repo, store
}

// TestFavorite_ListIDs 收藏列表经缓存读取，窗口内只查一次库
func TestFavorite_ListIDs(t *testing.T) {
	uc, repo, _ := newFavoriteFixture()
	repo.On("ListIDs", "user-1").Return([]uint{1, 3, 5}, nil).Once()

	ids, err := uc.ListIDs("user-1")
	assert.NoError(t, err)
	assert.Equal(t, []uint{1, 3, 5}, ids)

	// 第二次读取命中缓存，不再触达仓库
	ids, err = uc.ListIDs("user-1")
	assert.NoError(t, err)
	assert.Equal(t, []uint{1, 3, 5}, ids)

	repo.AssertExpectations(t)
}

// TestFavorite_ListIDs_RequiresAuth 未登录直接拒绝
func TestFavorite_ListIDs_RequiresAuth(t *testing.T) {
	uc, repo, _ := newFavoriteFixture()

	_, err := uc.ListIDs("")
	assert.ErrorIs(t, err, domainErrors.ErrAuthenticationRequired)
	repo.AssertNotCalled(t, "ListIDs")
}

// TestFavorite_Toggle_RequiresAuth 未登录不允许切换
func TestFavorite_Toggle_RequiresAuth(t *testing.T) {
	uc, repo, _ := newFavoriteFixture()

	_, err := uc.Toggle("", 1)
	assert.ErrorIs(t, err, domainErrors.ErrAuthenticationRequired)
	repo.AssertNotCalled(t, "Toggle")
}

// TestFavorite_Toggle_ServerStateWins 展示值以仓库返回的状态为准
// 即使调用方预期的是"取反"，缓存也要收敛到服务端结果
func TestFavorite_Toggle_ServerStateWins(t *testing.T) {
	uc, repo, store := newFavoriteFixture()

	// 预填充缓存：7 已在收藏集里
	repo.On("ListIDs", "user-1").Return([]uint{7}, nil).Once()
	repo.On("Count", "user-1").Return(int64(1), nil).Once()
	_, err := uc.ListIDs("user-1")
	assert.NoError(t, err)
	_, err = uc.Count("user-1")
	assert.NoError(t, err)

	// 仓库说切换后是"已收藏"（比如另一端刚取消过），缓存必须写成已收藏
	repo.On("Toggle", "user-1", uint(7)).Return(true, nil).Once()

	favorited, err := uc.Toggle("user-1", 7)
	assert.NoError(t, err)
	assert.True(t, favorited)

	value, ok := store.Peek(favoriteIDsKey("user-1"))
	assert.True(t, ok)
	assert.Contains(t, value.([]uint), uint(7))

	repo.AssertExpectations(t)
}

// TestFavorite_Toggle_DoubleClick 连续两次切换依次落库，最终回到初始状态
func TestFavorite_Toggle_DoubleClick(t *testing.T) {
	uc, repo, store := newFavoriteFixture()

	repo.On("ListIDs", "user-1").Return([]uint{}, nil).Once()
	repo.On("Count", "user-1").Return(int64(0), nil).Once()
	_, err := uc.ListIDs("user-1")
	assert.NoError(t, err)
	_, err = uc.Count("user-1")
	assert.NoError(t, err)

	repo.On("Toggle", "user-1", uint(4)).Return(true, nil).Once()
	repo.On("Toggle", "user-1", uint(4)).Return(false, nil).Once()

	favorited, err := uc.Toggle("user-1", 4)
	assert.NoError(t, err)
	assert.True(t, favorited)

	favorited, err = uc.Toggle("user-1", 4)
	assert.NoError(t, err)
	assert.False(t, favorited)

	ids, _ := store.Peek(favoriteIDsKey("user-1"))
	assert.NotContains(t, ids.([]uint), uint(4))
	count, _ := store.Peek(favoriteCountKey("user-1"))
	assert.Equal(t, int64(0), count.(int64))

	repo.AssertExpectations(t)
}

// TestFavorite_Toggle_FailureKeepsCache 落库失败时缓存保持原样
func TestFavorite_Toggle_FailureKeepsCache(t *testing.T) {
	uc, repo, store := newFavoriteFixture()

	repo.On("ListIDs", "user-1").Return([]uint{2}, nil).Once()
	_, err := uc.ListIDs("user-1")
	assert.NoError(t, err)

	repo.On("Toggle", "user-1", uint(9)).Return(false, errors.New("connection reset")).Once()

	_, err = uc.Toggle("user-1", 9)
	assert.Error(t, err)

	// 失败的切换不能在缓存里留下痕迹
	value, ok := store.Peek(favoriteIDsKey("user-1"))
	assert.True(t, ok)
	assert.Equal(t, []uint{2}, value.([]uint))

	repo.AssertExpectations(t)
}

// TestFavorite_Toggle_EmptyCacheUntouched 缓存未填充时切换不凭空造列表
func TestFavorite_Toggle_EmptyCacheUntouched(t *testing.T) {
	uc, repo, store := newFavoriteFixture()

	repo.On("Toggle", "user-1", uint(3)).Return(true, nil).Once()

	favorited, err := uc.Toggle("user-1", 3)
	assert.NoError(t, err)
	assert.True(t, favorited)

	// 没有预先拉取过，改写空缓存会造出一份只有一个元素的假列表
	_, ok := store.Peek(favoriteIDsKey("user-1"))
	assert.False(t, ok)

	// 下次读取回源，拿到完整列表
	repo.On("ListIDs", "user-1").Return([]uint{1, 2, 3}, nil).Once()
	ids, err := uc.ListIDs("user-1")
	assert.NoError(t, err)
	assert.Equal(t, []uint{1, 2, 3}, ids)

	repo.AssertExpectations(t)
}

// TestFavorite_Count 收藏数随切换同步增减
func TestFavorite_Count(t *testing.T) {
	uc, repo, _ := newFavoriteFixture()

	repo.On("Count", "user-1").Return(int64(2), nil).Once()

	count, err := uc.Count("user-1")
	assert.NoError(t, err)
	assert.Equal(t, int64(2), count)

	repo.On("Toggle", "user-1", uint(8)).Return(true, nil).Once()
	_, err = uc.Toggle("user-1", 8)
	assert.NoError(t, err)

	// 命中改写后的缓存，不再查库
	count, err = uc.Count("user-1")
	assert.NoError(t, err)
	assert.Equal(t, int64(3), count)

	repo.AssertExpectations(t)
}
