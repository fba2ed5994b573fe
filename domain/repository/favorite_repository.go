package repository

// FavoriteRepository 收藏数据仓库接口
type FavoriteRepository interface {
	// ListIDs 查询某用户收藏的涂色页 ID 列表
	ListIDs(userID string) ([]uint, error)

	// Count 统计某用户的收藏数
	Count(userID string) (int64, error)

	// Toggle 切换收藏状态，返回切换后是否为已收藏
	// 先删除，删到了说明此前已收藏；否则插入，唯一索引冲突视为已收藏
	// 不做 check-then-act，并发双击由数据库约束兜底
	Toggle(userID string, pageID uint) (bool, error)
}
