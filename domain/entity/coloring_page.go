package entity

import (
	"time"

	"gorm.io/datatypes"
)

// ColoringPage 涂色页数据库模型
// Image 存储 data URI（AI 生成 / 上传的 base64 图片）或外链 URL
// 创建之后 Image 不允许为空
type ColoringPage struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Title         string         `gorm:"size:200" json:"title"`
	Image         string         `gorm:"type:text" json:"image"`
	UserID        string         `gorm:"size:64;index" json:"user_id"` // Clerk user_id
	IsAIGenerated bool           `gorm:"default:false" json:"is_ai_generated"`
	Transform     datatypes.JSON `gorm:"type:jsonb" json:"transform,omitempty"` // 编辑器变换状态 {zoom, rotation, position}
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// TableName 与线上 Supabase 时期的表名保持一致
func (ColoringPage) TableName() string {
	return "coloring_pages"
}

// Favorite 收藏关联表
// (user_id, coloring_page_id) 唯一索引保证每个用户对每张图最多一条收藏记录
// 并发双写时由数据库约束兜底，而不是客户端的 check-then-act
type Favorite struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         string    `gorm:"size:64;uniqueIndex:idx_favorites_user_page" json:"user_id"`
	ColoringPageID uint      `gorm:"uniqueIndex:idx_favorites_user_page" json:"coloring_page_id"`
	CreatedAt      time.Time `json:"created_at"`
}

func (Favorite) TableName() string {
	return "favorites"
}
