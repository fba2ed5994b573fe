package controller

import (
	"net/http"

	"github.com/samizak/ColorsAI/api/middleware"
	"github.com/samizak/ColorsAI/usecase"

	"github.com/gin-gonic/gin"
)

// FavoriteController 收藏 HTTP 控制器
type FavoriteController struct {
	favoriteUseCase *usecase.FavoriteUseCase
}

// NewFavoriteController 创建 FavoriteController 实例
func NewFavoriteController(favoriteUseCase *usecase.FavoriteUseCase) *FavoriteController {
	return &FavoriteController{favoriteUseCase: favoriteUseCase}
}

// FavoritesResponse 收藏列表响应结构
type FavoritesResponse struct {
	FavoriteIDs []uint `json:"favoriteIds"`
	Count       int64  `json:"count"`
}

// ToggleResponse 切换结果响应结构
// Favorited 为服务端确认后的最终状态
type ToggleResponse struct {
	PageID    uint `json:"pageId"`
	Favorited bool `json:"favorited"`
}

// List 当前用户收藏的涂色页 ID 集合
// GET /api/favorites
func (fc *FavoriteController) List(c *gin.Context) {
	userID := middleware.UserID(c)

	ids, err := fc.favoriteUseCase.ListIDs(userID)
	if err != nil {
		respondUseCaseError(c, err)
		return
	}
	count, err := fc.favoriteUseCase.Count(userID)
	if err != nil {
		respondUseCaseError(c, err)
		return
	}
	if ids == nil {
		ids = []uint{}
	}

	c.JSON(http.StatusOK, FavoritesResponse{FavoriteIDs: ids, Count: count})
}

// Toggle 切换收藏状态
// POST /api/favorites/:id/toggle
func (fc *FavoriteController) Toggle(c *gin.Context) {
	id, ok := pageIDParam(c)
	if !ok {
		return
	}

	userID := middleware.UserID(c)
	favorited, err := fc.favoriteUseCase.Toggle(userID, id)
	if err != nil {
		respondUseCaseError(c, err)
		return
	}

	c.JSON(http.StatusOK, ToggleResponse{PageID: id, Favorited: favorited})
}
