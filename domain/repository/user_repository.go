package repository

import "github.com/samizak/ColorsAI/domain/entity"

type UserRepository interface {
	// Upsert = Update + Insert（存在则更新，不存在则创建）
	Upsert(user *entity.User) error

	// 根据 Clerk user_id 获取用户
	GetByID(userID string) (*entity.User, error)

	// Delete 删除用户，并级联删除其涂色页与收藏记录
	// Clerk user.deleted Webhook 使用
	Delete(userID string) error
}
