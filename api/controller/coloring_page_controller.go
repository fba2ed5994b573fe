package controller

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/samizak/ColorsAI/api/middleware"
	"github.com/samizak/ColorsAI/domain/entity"
	domainErrors "github.com/samizak/ColorsAI/domain/errors"
	"github.com/samizak/ColorsAI/usecase"

	"github.com/gin-gonic/gin"
)

// --- 响应结构定义 ---

// ErrorResponse 错误响应结构
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// MessageResponse 消息响应结构
type MessageResponse struct {
	Message string `json:"message"`
	PageID  uint   `json:"pageId,omitempty"`
}

// ListResponse 列表响应结构
type ListResponse struct {
	Items   []entity.ColoringPage `json:"items"`
	HasMore bool                  `json:"hasMore"`
	Total   int64                 `json:"total"`
}

// 分页默认值
const (
	defaultPageSize = 12
	maxPageSize     = 50
)

// --- 控制器定义 ---

// ColoringPageController 涂色页 HTTP 控制器
type ColoringPageController struct {
	pageUseCase     *usecase.ColoringPageUseCase
	favoriteUseCase *usecase.FavoriteUseCase
}

// NewColoringPageController 创建 ColoringPageController 实例
func NewColoringPageController(pageUseCase *usecase.ColoringPageUseCase, favoriteUseCase *usecase.FavoriteUseCase) *ColoringPageController {
	return &ColoringPageController{
		pageUseCase:     pageUseCase,
		favoriteUseCase: favoriteUseCase,
	}
}

// List 分页列表
// GET /api/coloring-pages?view=recent|created|gallery|favorites&page=1&per_page=12
// recent/created 返回的是累积合并后的视图，翻页即"加载更多"
func (cc *ColoringPageController) List(c *gin.Context) {
	view := c.DefaultQuery("view", "recent")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(defaultPageSize)))
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}

	userID := middleware.UserID(c)

	var (
		result *usecase.ListResult
		err    error
	)
	switch view {
	case "recent":
		result, err = cc.pageUseCase.ListRecent(page, pageSize)
	case "created":
		result, err = cc.pageUseCase.ListCreated(userID, page, pageSize)
	case "gallery":
		var items []entity.ColoringPage
		items, err = cc.pageUseCase.ListGallery()
		result = &usecase.ListResult{Items: items}
	case "favorites":
		var ids []uint
		ids, err = cc.favoriteUseCase.ListIDs(userID)
		if err == nil {
			var items []entity.ColoringPage
			items, err = cc.pageUseCase.ListFavorites(ids)
			result = &usecase.ListResult{Items: items}
		}
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "未知的视图: " + view})
		return
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	total, err := cc.pageUseCase.Count()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Items:   result.Items,
		HasMore: result.HasMore,
		Total:   total,
	})
}

// Get 获取单个涂色页
// GET /api/coloring-pages/:id
func (cc *ColoringPageController) Get(c *gin.Context) {
	id, ok := pageIDParam(c)
	if !ok {
		return
	}

	page, err := cc.pageUseCase.GetPage(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	if page == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "涂色页不存在"})
		return
	}

	c.JSON(http.StatusOK, page)
}

// CreatePageRequest 创建涂色页请求结构（上传路径）
type CreatePageRequest struct {
	Title string `json:"title"`
	Image string `json:"image" binding:"required"`
}

// Create 创建涂色页
// POST /api/coloring-pages
// 请求体: { "title": "xxx", "image": "data:image/png;base64,..." }
func (cc *ColoringPageController) Create(c *gin.Context) {
	var req CreatePageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "image 不能为空"})
		return
	}

	userID := middleware.UserID(c)
	page, err := cc.pageUseCase.CreatePage(userID, req.Title, req.Image, false)
	if err != nil {
		respondUseCaseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, page)
}

// UpdatePageRequest 更新涂色页请求结构
type UpdatePageRequest struct {
	Title string `json:"title"`
	Image string `json:"image" binding:"required"`
}

// Update 更新标题与图片
// PUT /api/coloring-pages/:id
func (cc *ColoringPageController) Update(c *gin.Context) {
	id, ok := pageIDParam(c)
	if !ok {
		return
	}

	var req UpdatePageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "image 不能为空"})
		return
	}

	userID := middleware.UserID(c)
	page, err := cc.pageUseCase.UpdatePage(id, userID, req.Title, req.Image)
	if err != nil {
		respondUseCaseError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// PatchTransform 更新编辑器变换状态
// PATCH /api/coloring-pages/:id/transform
// 请求体: RFC 6902 JSON Patch，如 [{"op":"replace","path":"/zoom","value":1.5}]
func (cc *ColoringPageController) PatchTransform(c *gin.Context) {
	id, ok := pageIDParam(c)
	if !ok {
		return
	}

	patch, err := io.ReadAll(c.Request.Body)
	if err != nil || len(patch) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "补丁不能为空"})
		return
	}

	userID := middleware.UserID(c)
	next, err := cc.pageUseCase.PatchTransform(id, userID, patch)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrPageNotFound), errors.Is(err, domainErrors.ErrForbidden):
			respondUseCaseError(c, err)
		default:
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "补丁无效", Details: err.Error()})
		}
		return
	}

	c.Data(http.StatusOK, "application/json", next)
}

// Delete 删除涂色页
// DELETE /api/coloring-pages/:id
// 只有属主可以删除
func (cc *ColoringPageController) Delete(c *gin.Context) {
	id, ok := pageIDParam(c)
	if !ok {
		return
	}

	userID := middleware.UserID(c)
	if err := cc.pageUseCase.DeletePage(id, userID); err != nil {
		respondUseCaseError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{
		Message: "涂色页已删除",
		PageID:  id,
	})
}

// pageIDParam 解析路径里的数字 id，非法时直接写响应
func pageIDParam(c *gin.Context) (uint, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "id 无效"})
		return 0, false
	}
	return uint(id), true
}

// respondUseCaseError 业务错误到 HTTP 状态码的统一映射
func respondUseCaseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainErrors.ErrPageNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "涂色页不存在"})
	case errors.Is(err, domainErrors.ErrAuthenticationRequired):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "未获取到用户信息"})
	case errors.Is(err, domainErrors.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "无权限操作此涂色页"})
	case errors.Is(err, domainErrors.ErrEmptyImage):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "image 不能为空"})
	case errors.Is(err, domainErrors.ErrEmptyPrompt):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "提示词不能为空"})
	case errors.Is(err, domainErrors.ErrGenerationFailed):
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "图片生成失败", Details: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}
