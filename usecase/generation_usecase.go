package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/samizak/ColorsAI/domain/entity"
	domainErrors "github.com/samizak/ColorsAI/domain/errors"
	"github.com/samizak/ColorsAI/domain/repository"
	"github.com/samizak/ColorsAI/internal/cache"
	"github.com/samizak/ColorsAI/internal/events"
	"github.com/samizak/ColorsAI/internal/genai"
)

// titleMaxLen 落库标题取提示词前 100 个字符
const titleMaxLen = 100

// ImageGenerator 生成客户端接口，便于测试替换
type ImageGenerator interface {
	GenerateColoringImage(ctx context.Context, prompt string) (*genai.GeneratedImage, error)
}

// GenerationUseCase 图片生成业务逻辑层
// 已登录用户的生成结果会落库；未登录只返回图片，不保存
type GenerationUseCase struct {
	generator ImageGenerator
	pageRepo  repository.ColoringPageRepository
	store     *cache.Store
	hub       *events.Hub
}

// NewGenerationUseCase 构造函数，依赖注入
func NewGenerationUseCase(generator ImageGenerator, pageRepo repository.ColoringPageRepository, store *cache.Store, hub *events.Hub) *GenerationUseCase {
	return &GenerationUseCase{
		generator: generator,
		pageRepo:  pageRepo,
		store:     store,
		hub:       hub,
	}
}

// GenerationResult 生成结果
type GenerationResult struct {
	ImageData string // base64 原始数据
	MimeType  string
	ImageURI  string // data URI，直接可作 <img> 源
	Saved     bool
	Page      *entity.ColoringPage // Saved=true 时为落库记录
}

// Generate 根据提示词生成涂色页
func (uc *GenerationUseCase) Generate(ctx context.Context, userID, prompt string) (*GenerationResult, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, domainErrors.ErrEmptyPrompt
	}

	image, err := uc.generator.GenerateColoringImage(ctx, prompt)
	if err != nil {
		log.Printf("[Generate] ❌ 图片生成失败: %v", err)
		return nil, err
	}

	mime := image.MimeType
	if mime == "" {
		mime = "image/png"
	}

	result := &GenerationResult{
		ImageData: image.Data,
		MimeType:  mime,
		ImageURI:  fmt.Sprintf("data:%s;base64,%s", mime, image.Data),
	}

	// 未登录：只返回图片，不落库
	if userID == "" {
		log.Println("[Generate] ℹ️ 匿名生成，结果未保存")
		return result, nil
	}

	page := &entity.ColoringPage{
		Title:         titleFromPrompt(prompt),
		Image:         result.ImageURI,
		UserID:        userID,
		IsAIGenerated: true,
	}
	if err := uc.pageRepo.Create(page); err != nil {
		// 图片已经生成，保存失败时仍把图片还给用户
		log.Printf("[Generate] ❌ 生成结果落库失败: %v", err)
		return result, nil
	}

	result.Saved = true
	result.Page = page

	uc.store.InvalidatePrefix(cacheKeyPages + ":")
	uc.store.InvalidatePrefix(cacheKeyUserPages + ":" + userID + ":")
	uc.store.Invalidate(cacheKeyGallery)
	uc.store.Invalidate(cacheKeyCount)
	uc.store.Invalidate(createdCountKey(userID))
	uc.hub.Publish(userID, events.TypePageCreated, events.PagePayload{PageID: page.ID, Title: page.Title})

	log.Printf("[Generate] ✅ 生成并保存涂色页 %d: %s", page.ID, page.Title)
	return result, nil
}

// titleFromPrompt 标题取提示词前 100 个字符（按字符数而非字节数截断）
func titleFromPrompt(prompt string) string {
	runes := []rune(prompt)
	if len(runes) > titleMaxLen {
		return string(runes[:titleMaxLen])
	}
	return prompt
}
