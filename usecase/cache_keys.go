package usecase

import "fmt"

// ========== 缓存 key 约定 ==========
// 沿用前端数据层时期的资源命名，分页 key 形如 "coloring-pages:2"

const (
	cacheKeyPages        = "coloring-pages"       // 最新涂色页，分页
	cacheKeyUserPages    = "user-generated-pages" // 用户 AI 生成的涂色页，分页
	cacheKeyFavorites    = "favorite-ids"         // 用户收藏的 ID 集合
	cacheKeyFavCount     = "favorite-count"       // 用户收藏数
	cacheKeyGallery      = "gallery-pages"        // 画廊全量列表
	cacheKeyCount        = "page-count"           // 涂色页总数
	cacheKeyCreatedCount = "user-generated-count" // 用户 AI 生成的涂色页数
)

// 累积视图 key
const (
	feedKeyRecent  = "recent"
	feedKeyCreated = "created" // created:<user>
)

func pagesKey(page int) string {
	return fmt.Sprintf("%s:%d", cacheKeyPages, page)
}

func userPagesKey(userID string, page int) string {
	return fmt.Sprintf("%s:%s:%d", cacheKeyUserPages, userID, page)
}

func favoriteIDsKey(userID string) string {
	return fmt.Sprintf("%s:%s", cacheKeyFavorites, userID)
}

func favoriteCountKey(userID string) string {
	return fmt.Sprintf("%s:%s", cacheKeyFavCount, userID)
}

func createdCountKey(userID string) string {
	return fmt.Sprintf("%s:%s", cacheKeyCreatedCount, userID)
}

func createdFeedKey(userID string) string {
	return fmt.Sprintf("%s:%s", feedKeyCreated, userID)
}
