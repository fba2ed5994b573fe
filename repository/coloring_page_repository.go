package repository

import (
	"errors"

	"github.com/samizak/ColorsAI/domain/entity"
	domainErrors "github.com/samizak/ColorsAI/domain/errors"
	domainRepo "github.com/samizak/ColorsAI/domain/repository"

	"gorm.io/gorm"
)

// coloringPageRepository GORM 实现 ColoringPageRepository 接口
type coloringPageRepository struct {
	db *gorm.DB
}

// NewColoringPageRepository 构造函数
func NewColoringPageRepository(db *gorm.DB) domainRepo.ColoringPageRepository {
	return &coloringPageRepository{db: db}
}

// paginate 统一的偏移窗口分页规则
// page 从 1 开始，窗口为 [(page-1)*pageSize, page*pageSize-1]
func paginate(page, pageSize int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if page < 1 {
			page = 1
		}
		return db.Offset((page - 1) * pageSize).Limit(pageSize)
	}
}

// ListRecent 按创建时间倒序分页查询所有涂色页
func (r *coloringPageRepository) ListRecent(page, pageSize int) ([]entity.ColoringPage, error) {
	var pages []entity.ColoringPage
	err := r.db.Order("created_at DESC").
		Scopes(paginate(page, pageSize)).
		Find(&pages).Error
	return pages, err
}

// ListByOwner 分页查询某用户的全部涂色页
func (r *coloringPageRepository) ListByOwner(userID string, page, pageSize int) ([]entity.ColoringPage, error) {
	var pages []entity.ColoringPage
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Scopes(paginate(page, pageSize)).
		Find(&pages).Error
	return pages, err
}

// ListGenerated 分页查询某用户由 AI 生成的涂色页
func (r *coloringPageRepository) ListGenerated(userID string, page, pageSize int) ([]entity.ColoringPage, error) {
	var pages []entity.ColoringPage
	err := r.db.Where("user_id = ? AND is_ai_generated = ?", userID, true).
		Order("created_at DESC").
		Scopes(paginate(page, pageSize)).
		Find(&pages).Error
	return pages, err
}

// ListAll 查询全部涂色页（画廊视图）
func (r *coloringPageRepository) ListAll() ([]entity.ColoringPage, error) {
	var pages []entity.ColoringPage
	err := r.db.Order("created_at DESC").Find(&pages).Error
	return pages, err
}

// GetByID 根据 ID 查询涂色页
func (r *coloringPageRepository) GetByID(id uint) (*entity.ColoringPage, error) {
	var page entity.ColoringPage
	err := r.db.First(&page, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // 返回 nil 表示不存在，调用方需处理
	}
	return &page, err
}

// Create 创建新涂色页
func (r *coloringPageRepository) Create(page *entity.ColoringPage) error {
	return r.db.Create(page).Error
}

// Update 只更新标题与图片字段
// ⚠️ 禁止使用 GORM Save，它会覆盖 transform 和 is_ai_generated
func (r *coloringPageRepository) Update(id uint, title, image string) (*entity.ColoringPage, error) {
	result := r.db.Model(&entity.ColoringPage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"title": title,
			"image": image,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, domainErrors.ErrPageNotFound
	}
	return r.GetByID(id)
}

// UpdateTransform 只更新编辑器变换状态字段
func (r *coloringPageRepository) UpdateTransform(id uint, transform []byte) error {
	result := r.db.Model(&entity.ColoringPage{}).
		Where("id = ?", id).
		Update("transform", string(transform))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainErrors.ErrPageNotFound
	}
	return nil
}

// Delete 删除涂色页
// 在同一事务中先清理收藏记录，避免行删掉了、收藏残留的半成功状态
func (r *coloringPageRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("coloring_page_id = ?", id).Delete(&entity.Favorite{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&entity.ColoringPage{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainErrors.ErrPageNotFound
		}
		return nil
	})
}

// CountTotal 统计涂色页总数
func (r *coloringPageRepository) CountTotal() (int64, error) {
	var count int64
	err := r.db.Model(&entity.ColoringPage{}).Count(&count).Error
	return count, err
}

// CountGenerated 统计某用户由 AI 生成的涂色页数
func (r *coloringPageRepository) CountGenerated(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&entity.ColoringPage{}).
		Where("user_id = ? AND is_ai_generated = ?", userID, true).
		Count(&count).Error
	return count, err
}
