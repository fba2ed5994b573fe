package controller

import (
	"net/http"

	"github.com/samizak/ColorsAI/api/middleware"
	"github.com/samizak/ColorsAI/domain/entity"
	"github.com/samizak/ColorsAI/usecase"

	"github.com/gin-gonic/gin"
)

// GenerateController 图片生成 HTTP 控制器
type GenerateController struct {
	generationUseCase *usecase.GenerationUseCase
}

// NewGenerateController 创建 GenerateController 实例
func NewGenerateController(generationUseCase *usecase.GenerationUseCase) *GenerateController {
	return &GenerateController{generationUseCase: generationUseCase}
}

// GenerateRequest 生成请求结构
type GenerateRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// GenerateResponse 生成响应结构
// Saved=false 时 Page 为空，表示结果未落库（匿名请求或保存失败）
type GenerateResponse struct {
	ImageData string               `json:"imageData"` // base64 原始数据
	ImageURI  string               `json:"imageUri"`  // data URI
	Saved     bool                 `json:"saved"`
	Page      *entity.ColoringPage `json:"page,omitempty"`
}

// Generate 根据提示词生成涂色页
// POST /api/generate-image
// 认证可选：已登录用户的结果会保存为涂色页记录
func (gc *GenerateController) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "提示词不能为空"})
		return
	}

	userID := middleware.UserID(c)
	result, err := gc.generationUseCase.Generate(c.Request.Context(), userID, req.Prompt)
	if err != nil {
		respondUseCaseError(c, err)
		return
	}

	c.JSON(http.StatusOK, GenerateResponse{
		ImageData: result.ImageData,
		ImageURI:  result.ImageURI,
		Saved:     result.Saved,
		Page:      result.Page,
	})
}
