package usecase

import (
	"errors"
	"fmt"
	"testing"

	"github.com/samizak/ColorsAI/domain/entity"
	domainErrors "github.com/samizak/ColorsAI/domain/errors"
	"github.com/samizak/ColorsAI/internal/cache"
	"github.com/samizak/ColorsAI/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/datatypes"
)

func newPageFixture() (*ColoringPageUseCase, *MockColoringPageRepository, *cache.Store) {
	repo := new(MockColoringPageRepository)
	store := cache.NewStore()
	hub := events.NewHub()
	return NewColoringPageUseCase(repo, store, hub), repo, store
}

// pagesWithIDs 构造指定 id 的涂色页切片
func pagesWithIDs(ids ...uint) []entity.ColoringPage {
	out := make([]entity.ColoringPage, 0, len(ids))
	for _, id := range ids {
		out = append(out, entity.ColoringPage{
			ID:    id,
			Title: fmt.Sprintf("Page %d", id),
			Image: "data:image/png;base64,AAAA",
		})
	}
	return out
}

// rangePages 构造 id 为 [from, to] 的涂色页切片
func rangePages(from, to uint) []entity.ColoringPage {
	ids := make([]uint, 0, to-from+1)
	for id := from; id <= to; id++ {
		ids = append(ids, id)
	}
	return pagesWithIDs(ids...)
}

func pageIDs(items []entity.ColoringPage) []uint {
	out := make([]uint, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

// TestListRecent_Accumulates 翻页时后续页追加到累积视图末尾
func TestListRecent_Accumulates(t *testing.T) {
	uc, repo, _ := newPageFixture()

	repo.On("ListRecent", 1, 2).Return(pagesWithIDs(1, 2), nil).Once()
	repo.On("ListRecent", 2, 2).Return(pagesWithIDs(3, 4), nil).Once()
	repo.On("CountTotal").Return(int64(5), nil).Once()

	result, err := uc.ListRecent(1, 2)
	assert.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, pageIDs(result.Items))
	assert.True(t, result.HasMore)

	result, err = uc.ListRecent(2, 2)
	assert.NoError(t, err)
	assert.Equal(t, []uint{1, 2, 3, 4}, pageIDs(result.Items))
	assert.True(t, result.HasMore)

	repo.AssertExpectations(t)
}

// TestListRecent_HasMore hasMore 按总数计算：已取满总数后为 false
func TestListRecent_HasMore(t *testing.T) {
	uc, repo, _ := newPageFixture()

	repo.On("ListRecent", 1, 3).Return(pagesWithIDs(1, 2, 3), nil).Once()
	repo.On("ListRecent", 2, 3).Return(pagesWithIDs(4), nil).Once()
	repo.On("CountTotal").Return(int64(4), nil).Once()

	result, err := uc.ListRecent(1, 3)
	assert.NoError(t, err)
	assert.True(t, result.HasMore)

	result, err = uc.ListRecent(2, 3)
	assert.NoError(t, err)
	assert.False(t, result.HasMore)

	repo.AssertExpectations(t)
}

// TestListRecent_HasMoreExactTotal 总数恰好是 pageSize 的整数倍时
// 第一页取满也不能报"还有更多"—— 满页不等于后面还有
func TestListRecent_HasMoreExactTotal(t *testing.T) {
	testCases := []struct {
		name     string
		total    int64
		pageSize int
	}{
		{name: "12 records, pageSize 12", total: 12, pageSize: 12},
		{name: "13 records, pageSize 13", total: 13, pageSize: 13},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			uc, repo, _ := newPageFixture()

			repo.On("ListRecent", 1, tc.pageSize).Return(rangePages(1, uint(tc.total)), nil).Once()
			repo.On("CountTotal").Return(tc.total, nil).Once()

			result, err := uc.ListRecent(1, tc.pageSize)
			assert.NoError(t, err)
			assert.Len(t, result.Items, int(tc.total))
			assert.False(t, result.HasMore)

			repo.AssertExpectations(t)
		})
	}
}

// TestListRecent_CacheDedupe 窗口内重复取同一页，仓库只被查一次
func TestListRecent_CacheDedupe(t *testing.T) {
	uc, repo, _ := newPageFixture()

	repo.On("ListRecent", 1, 12).Return(pagesWithIDs(1, 2), nil).Once()
	repo.On("CountTotal").Return(int64(2), nil).Once()

	_, err := uc.ListRecent(1, 12)
	assert.NoError(t, err)
	result, err := uc.ListRecent(1, 12)
	assert.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, pageIDs(result.Items))

	repo.AssertExpectations(t)
}

// TestListCreated_IsolatedPerUser 各用户的累积视图互不串扰
func TestListCreated_IsolatedPerUser(t *testing.T) {
	uc, repo, _ := newPageFixture()

	repo.On("ListGenerated", "user-a", 1, 12).Return(pagesWithIDs(1), nil).Once()
	repo.On("ListGenerated", "user-b", 1, 12).Return(pagesWithIDs(2), nil).Once()
	repo.On("CountGenerated", "user-a").Return(int64(1), nil).Once()
	repo.On("CountGenerated", "user-b").Return(int64(1), nil).Once()

	resultA, err := uc.ListCreated("user-a", 1, 12)
	assert.NoError(t, err)
	resultB, err := uc.ListCreated("user-b", 1, 12)
	assert.NoError(t, err)

	assert.Equal(t, []uint{1}, pageIDs(resultA.Items))
	assert.Equal(t, []uint{2}, pageIDs(resultB.Items))
	assert.False(t, resultA.HasMore)
	assert.False(t, resultB.HasMore)

	repo.AssertExpectations(t)
}

// TestListCreated_HasMoreExactTotal "我生成的"视图同样按总数算 hasMore
func TestListCreated_HasMoreExactTotal(t *testing.T) {
	uc, repo, _ := newPageFixture()

	repo.On("ListGenerated", "user-a", 1, 12).Return(rangePages(1, 12), nil).Once()
	repo.On("CountGenerated", "user-a").Return(int64(12), nil).Once()

	result, err := uc.ListCreated("user-a", 1, 12)
	assert.NoError(t, err)
	assert.Len(t, result.Items, 12)
	assert.False(t, result.HasMore)

	repo.AssertExpectations(t)
}

// TestListFavorites_FiltersByIDSet 收藏视图按当前收藏集在读取时过滤
func TestListFavorites_FiltersByIDSet(t *testing.T) {
	uc, repo, _ := newPageFixture()

	repo.On("ListAll").Return(pagesWithIDs(1, 2, 3, 4), nil).Once()

	items, err := uc.ListFavorites([]uint{2, 4})
	assert.NoError(t, err)
	assert.Equal(t, []uint{2, 4}, pageIDs(items))

	// 空收藏集返回空列表，不查库第二次（命中缓存）
	items, err = uc.ListFavorites(nil)
	assert.NoError(t, err)
	assert.Empty(t, items)

	repo.AssertExpectations(t)
}

// TestCreatePage_Defaults 空标题落库为兜底标题，空图片拒绝
func TestCreatePage_Defaults(t *testing.T) {
	uc, repo, _ := newPageFixture()

	repo.On("Create", mock.MatchedBy(func(p *entity.ColoringPage) bool {
		return p.Title == defaultTitle && p.UserID == "user-1" && !p.IsAIGenerated
	})).Return(nil).Once()

	page, err := uc.CreatePage("user-1", "   ", "data:image/png;base64,AAAA", false)
	assert.NoError(t, err)
	assert.Equal(t, defaultTitle, page.Title)

	_, err = uc.CreatePage("user-1", "Ocean", "   ", false)
	assert.ErrorIs(t, err, domainErrors.ErrEmptyImage)

	_, err = uc.CreatePage("", "Ocean", "data:image/png;base64,AAAA", false)
	assert.ErrorIs(t, err, domainErrors.ErrAuthenticationRequired)

	repo.AssertExpectations(t)
}

// TestUpdatePage_OwnerOnly 非所有者不能改别人的涂色页
func TestUpdatePage_OwnerOnly(t *testing.T) {
	uc, repo, _ := newPageFixture()

	existing := &entity.ColoringPage{ID: 5, Title: "Forest", UserID: "user-a"}
	repo.On("GetByID", uint(5)).Return(existing, nil)

	_, err := uc.UpdatePage(5, "user-b", "Hacked", "data:image/png;base64,BBBB")
	assert.ErrorIs(t, err, domainErrors.ErrForbidden)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

// TestUpdatePage_NotFound 记录不存在返回 ErrPageNotFound
func TestUpdatePage_NotFound(t *testing.T) {
	uc, repo, _ := newPageFixture()

	repo.On("GetByID", uint(404)).Return(nil, nil).Once()

	_, err := uc.UpdatePage(404, "user-a", "Title", "data:image/png;base64,BBBB")
	assert.ErrorIs(t, err, domainErrors.ErrPageNotFound)
}

// TestPatchTransform_AppliesPatch RFC 6902 补丁作用在已有变换状态上
func TestPatchTransform_AppliesPatch(t *testing.T) {
	uc, repo, _ := newPageFixture()

	existing := &entity.ColoringPage{
		ID:        5,
		UserID:    "user-a",
		Transform: datatypes.JSON(`{"zoom":1,"rotation":0,"position":{"x":0,"y":0}}`),
	}
	repo.On("GetByID", uint(5)).Return(existing, nil).Once()
	repo.On("UpdateTransform", uint(5), mock.Anything).Return(nil).Once()

	next, err := uc.PatchTransform(5, "user-a", []byte(`[{"op":"replace","path":"/zoom","value":2}]`))
	assert.NoError(t, err)
	assert.JSONEq(t, `{"zoom":2,"rotation":0,"position":{"x":0,"y":0}}`, string(next))

	repo.AssertExpectations(t)
}

// TestPatchTransform_EmptyState 变换状态为空时从默认值出发
func TestPatchTransform_EmptyState(t *testing.T) {
	uc, repo, _ := newPageFixture()

	existing := &entity.ColoringPage{ID: 6, UserID: "user-a"}
	repo.On("GetByID", uint(6)).Return(existing, nil).Once()
	repo.On("UpdateTransform", uint(6), mock.Anything).Return(nil).Once()

	next, err := uc.PatchTransform(6, "user-a", []byte(`[{"op":"replace","path":"/rotation","value":90}]`))
	assert.NoError(t, err)
	assert.JSONEq(t, `{"zoom":1,"rotation":90,"position":{"x":0,"y":0}}`, string(next))

	repo.AssertExpectations(t)
}

// TestDeletePage_OptimisticRemoval 删除同步从缓存与累积视图中移除
func TestDeletePage_OptimisticRemoval(t *testing.T) {
	uc, repo, store := newPageFixture()

	repo.On("ListRecent", 1, 12).Return(pagesWithIDs(1, 2, 3), nil).Once()
	repo.On("CountTotal").Return(int64(3), nil).Once()
	_, err := uc.ListRecent(1, 12)
	assert.NoError(t, err)

	repo.On("GetByID", uint(2)).Return(&entity.ColoringPage{ID: 2, UserID: "user-a"}, nil).Once()
	repo.On("Delete", uint(2)).Return(nil).Once()

	err = uc.DeletePage(2, "user-a")
	assert.NoError(t, err)

	// 缓存与累积视图立即看不到 id=2，且不触发回源
	value, ok := store.Peek(pagesKey(1))
	assert.True(t, ok)
	assert.Equal(t, []uint{1, 3}, pageIDs(value.([]entity.ColoringPage)))

	result, err := uc.ListRecent(1, 12)
	assert.NoError(t, err)
	assert.NotContains(t, pageIDs(result.Items), uint(2))

	// 总数缓存同步减一
	count, err := uc.Count()
	assert.NoError(t, err)
	assert.Equal(t, int64(2), count)

	repo.AssertExpectations(t)
}

// TestDeletePage_ReconcilesFavoriteCaches 删除涂色页时对账所有用户的收藏缓存
// 仓库事务会清掉所有用户指向该页的收藏行，不只是删除者的
func TestDeletePage_ReconcilesFavoriteCaches(t *testing.T) {
	uc, repo, store := newPageFixture()

	// user-b 收藏过待删除的 2；user-d 没收藏过；user-c 只缓存了收藏数
	store.Mutate(favoriteIDsKey("user-b"), func(interface{}) interface{} { return []uint{2, 9} }, false)
	store.Mutate(favoriteCountKey("user-b"), func(interface{}) interface{} { return int64(2) }, false)
	store.Mutate(favoriteIDsKey("user-d"), func(interface{}) interface{} { return []uint{8} }, false)
	store.Mutate(favoriteCountKey("user-d"), func(interface{}) interface{} { return int64(1) }, false)
	store.Mutate(favoriteCountKey("user-c"), func(interface{}) interface{} { return int64(5) }, false)

	repo.On("GetByID", uint(2)).Return(&entity.ColoringPage{ID: 2, UserID: "user-a"}, nil).Once()
	repo.On("Delete", uint(2)).Return(nil).Once()

	err := uc.DeletePage(2, "user-a")
	assert.NoError(t, err)

	// user-b：收藏集剔除 2，收藏数减一
	ids, _ := store.Peek(favoriteIDsKey("user-b"))
	assert.Equal(t, []uint{9}, ids.([]uint))
	count, _ := store.Peek(favoriteCountKey("user-b"))
	assert.Equal(t, int64(1), count.(int64))

	// user-d：没收藏过，收藏数原样
	count, _ = store.Peek(favoriteCountKey("user-d"))
	assert.Equal(t, int64(1), count.(int64))

	// user-c：收藏集不在缓存里，判断不了，收藏数回源
	fetched := false
	value, err := store.GetOrFetch(favoriteCountKey("user-c"), func() (interface{}, error) {
		fetched = true
		return int64(4), nil
	})
	assert.NoError(t, err)
	assert.True(t, fetched, "无法对账的收藏数应该回源")
	assert.Equal(t, int64(4), value.(int64))

	repo.AssertExpectations(t)
}

// TestDeletePage_RollbackOnFailure 落库失败时视图回滚到删除前
func TestDeletePage_RollbackOnFailure(t *testing.T) {
	uc, repo, store := newPageFixture()

	repo.On("ListRecent", 1, 12).Return(pagesWithIDs(1, 2, 3), nil).Once()
	repo.On("CountTotal").Return(int64(3), nil).Once()
	_, err := uc.ListRecent(1, 12)
	assert.NoError(t, err)

	// 另一个用户缓存的收藏视图也要随回滚还原
	store.Mutate(favoriteIDsKey("user-b"), func(interface{}) interface{} { return []uint{2} }, false)
	store.Mutate(favoriteCountKey("user-b"), func(interface{}) interface{} { return int64(1) }, false)

	repo.On("GetByID", uint(2)).Return(&entity.ColoringPage{ID: 2, UserID: "user-a"}, nil).Once()
	repo.On("Delete", uint(2)).Return(errors.New("deadlock detected")).Once()

	err = uc.DeletePage(2, "user-a")
	assert.Error(t, err)

	value, ok := store.Peek(pagesKey(1))
	assert.True(t, ok)
	assert.Equal(t, []uint{1, 2, 3}, pageIDs(value.([]entity.ColoringPage)))

	ids, _ := store.Peek(favoriteIDsKey("user-b"))
	assert.Equal(t, []uint{2}, ids.([]uint))
	count, _ := store.Peek(favoriteCountKey("user-b"))
	assert.Equal(t, int64(1), count.(int64))

	result, err := uc.ListRecent(1, 12)
	assert.NoError(t, err)
	assert.Equal(t, []uint{1, 2, 3}, pageIDs(result.Items))

	repo.AssertExpectations(t)
}

// TestDeletePage_OwnerOnly 非所有者删除被拒绝且不触碰缓存
func TestDeletePage_OwnerOnly(t *testing.T) {
	uc, repo, _ := newPageFixture()

	repo.On("GetByID", uint(7)).Return(&entity.ColoringPage{ID: 7, UserID: "user-a"}, nil).Once()

	err := uc.DeletePage(7, "user-b")
	assert.ErrorIs(t, err, domainErrors.ErrForbidden)
	repo.AssertNotCalled(t, "Delete", mock.Anything)
}

// TestCount 总数经缓存读取
func TestCount(t *testing.T) {
	uc, repo, _ := newPageFixture()

	repo.On("CountTotal").Return(int64(42), nil).Once()

	count, err := uc.Count()
	assert.NoError(t, err)
	assert.Equal(t, int64(42), count)

	count, err = uc.Count()
	assert.NoError(t, err)
	assert.Equal(t, int64(42), count)

	repo.AssertExpectations(t)
}
