package repository

import (
	"github.com/samizak/ColorsAI/domain/entity"
	domainRepo "github.com/samizak/ColorsAI/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// favoriteRepository GORM 实现 FavoriteRepository 接口
type favoriteRepository struct {
	db *gorm.DB
}

// NewFavoriteRepository 构造函数
func NewFavoriteRepository(db *gorm.DB) domainRepo.FavoriteRepository {
	return &favoriteRepository{db: db}
}

// ListIDs 查询某用户收藏的涂色页 ID 列表
func (r *favoriteRepository) ListIDs(userID string) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&entity.Favorite{}).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Pluck("coloring_page_id", &ids).Error
	return ids, err
}

// Count 统计某用户的收藏数
func (r *favoriteRepository) Count(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Favorite{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// Toggle 切换收藏状态，返回切换后是否为已收藏
// 不做 check-then-act：
//  1. 先尝试删除，删到了说明此前已收藏，现在取消
//  2. 没删到则插入，唯一索引冲突（并发双击）按已收藏处理
//
// 返回值以数据库实际发生的变化为准，调用方不得自行取反
func (r *favoriteRepository) Toggle(userID string, pageID uint) (bool, error) {
	result := r.db.Where("user_id = ? AND coloring_page_id = ?", userID, pageID).
		Delete(&entity.Favorite{})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return false, nil // 已取消收藏
	}

	fav := &entity.Favorite{UserID: userID, ColoringPageID: pageID}
	if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(fav).Error; err != nil {
		return false, err
	}
	return true, nil // 已收藏（含冲突时对方已插入的情况）
}
