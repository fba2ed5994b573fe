package route

import (
	"github.com/samizak/ColorsAI/api/controller"
	"github.com/samizak/ColorsAI/api/middleware"

	"github.com/gin-gonic/gin"
)

// Dependencies 路由依赖注入结构
type Dependencies struct {
	PageController     *controller.ColoringPageController
	FavoriteController *controller.FavoriteController
	GenerateController *controller.GenerateController
	WSHandler          *controller.WSHandler
	WebhookController  *controller.WebhookController
}

// Setup 配置所有路由
func Setup(router *gin.Engine, deps *Dependencies) {
	// --- 公开路由 ---

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "colors-ai-server",
		})
	})

	// Clerk Webhook（使用签名验证，不使用 JWT）
	router.POST("/webhook/clerk", deps.WebhookController.HandleClerkWebhook)

	// --- WebSocket 路由 ---
	// WebSocket 自行在 Handler 中验证 Token
	router.GET("/ws", deps.WSHandler.HandleWS)

	// --- 生成路由（认证可选：匿名可生成，不落库）---
	router.POST("/api/generate-image", middleware.OptionalClerkAuth(), deps.GenerateController.Generate)

	// --- API 路由（需要 Clerk JWT 认证）---
	api := router.Group("/api")
	api.Use(middleware.ClerkAuth())
	{
		// 涂色页 CRUD
		api.GET("/coloring-pages", deps.PageController.List)
		api.GET("/coloring-pages/:id", deps.PageController.Get)
		api.POST("/coloring-pages", deps.PageController.Create)
		api.PUT("/coloring-pages/:id", deps.PageController.Update)
		api.PATCH("/coloring-pages/:id/transform", deps.PageController.PatchTransform)
		api.DELETE("/coloring-pages/:id", deps.PageController.Delete)

		// 收藏
		api.GET("/favorites", deps.FavoriteController.List)
		api.POST("/favorites/:id/toggle", deps.FavoriteController.Toggle)
	}
}
