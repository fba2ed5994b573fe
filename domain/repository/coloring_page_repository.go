package repository

import "github.com/samizak/ColorsAI/domain/entity"

// ColoringPageRepository 涂色页数据仓库接口
type ColoringPageRepository interface {
	// ListRecent 按创建时间倒序分页查询所有涂色页
	// page 从 1 开始，返回行数少于 pageSize 表示已到末尾
	ListRecent(page, pageSize int) ([]entity.ColoringPage, error)

	// ListByOwner 分页查询某用户的全部涂色页
	ListByOwner(userID string, page, pageSize int) ([]entity.ColoringPage, error)

	// ListGenerated 分页查询某用户由 AI 生成的涂色页
	ListGenerated(userID string, page, pageSize int) ([]entity.ColoringPage, error)

	// ListAll 查询全部涂色页（画廊视图）
	ListAll() ([]entity.ColoringPage, error)

	// GetByID 根据 ID 获取涂色页
	// 返回 nil 表示不存在，调用方需处理
	GetByID(id uint) (*entity.ColoringPage, error)

	// Create 创建新涂色页
	Create(page *entity.ColoringPage) error

	// Update 更新标题与图片，返回更新后的记录
	Update(id uint, title, image string) (*entity.ColoringPage, error)

	// UpdateTransform 更新编辑器变换状态（JSONB）
	UpdateTransform(id uint, transform []byte) error

	// Delete 删除涂色页，并在同一事务中清理其收藏记录
	// 记录不存在时返回 ErrPageNotFound
	Delete(id uint) error

	// CountTotal 统计涂色页总数
	CountTotal() (int64, error)

	// CountGenerated 统计某用户由 AI 生成的涂色页数
	CountGenerated(userID string) (int64, error)
}
