package usecase

import (
	"context"

	"github.com/samizak/ColorsAI/domain/entity"
	"github.com/samizak/ColorsAI/internal/genai"

	"github.com/stretchr/testify/mock"
)

// ========== 测试用 Mock ==========

// MockColoringPageRepository 涂色页仓库的 mock 实现
type MockColoringPageRepository struct {
	mock.Mock
}

func (m *MockColoringPageRepository) ListRecent(page, pageSize int) ([]entity.ColoringPage, error) {
	args := m.Called(page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ColoringPage), args.Error(1)
}

func (m *MockColoringPageRepository) ListByOwner(userID string, page, pageSize int) ([]entity.ColoringPage, error) {
	args := m.Called(userID, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ColoringPage), args.Error(1)
}

func (m *MockColoringPageRepository) ListGenerated(userID string, page, pageSize int) ([]entity.ColoringPage, error) {
	args := m.Called(userID, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ColoringPage), args.Error(1)
}

func (m *MockColoringPageRepository) ListAll() ([]entity.ColoringPage, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ColoringPage), args.Error(1)
}

func (m *MockColoringPageRepository) GetByID(id uint) (*entity.ColoringPage, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ColoringPage), args.Error(1)
}

func (m *MockColoringPageRepository) Create(page *entity.ColoringPage) error {
	args := m.Called(page)
	return args.Error(0)
}

func (m *MockColoringPageRepository) Update(id uint, title, image string) (*entity.ColoringPage, error) {
	args := m.Called(id, title, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ColoringPage), args.Error(1)
}

func (m *MockColoringPageRepository) UpdateTransform(id uint, transform []byte) error {
	args := m.Called(id, transform)
	return args.Error(0)
}

func (m *MockColoringPageRepository) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockColoringPageRepository) CountTotal() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockColoringPageRepository) CountGenerated(userID string) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockFavoriteRepository 收藏仓库的 mock 实现
type MockFavoriteRepository struct {
	mock.Mock
}

func (m *MockFavoriteRepository) ListIDs(userID string) ([]uint, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint), args.Error(1)
}

func (m *MockFavoriteRepository) Count(userID string) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFavoriteRepository) Toggle(userID string, pageID uint) (bool, error) {
	args := m.Called(userID, pageID)
	return args.Bool(0), args.Error(1)
}

// MockGenerator 生成客户端的 mock 实现
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) GenerateColoringImage(ctx context.Context, prompt string) (*genai.GeneratedImage, error) {
	args := m.Called(ctx, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*genai.GeneratedImage), args.Error(1)
}
