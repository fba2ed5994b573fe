package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samizak/ColorsAI/api/controller"
	"github.com/samizak/ColorsAI/api/route"
	"github.com/samizak/ColorsAI/bootstrap"
	"github.com/samizak/ColorsAI/internal/cache"
	"github.com/samizak/ColorsAI/internal/events"
	"github.com/samizak/ColorsAI/internal/genai"
	"github.com/samizak/ColorsAI/repository"
	"github.com/samizak/ColorsAI/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("[Server] ColorsAI Server 启动中...")

	// 加载环境变量
	env := bootstrap.LoadEnv()

	// 初始化 Clerk
	bootstrap.InitClerk(env.ClerkSecretKey)

	// 连接数据库
	db := bootstrap.NewDatabase(env.DatabaseURL)

	// 共享查询缓存与事件总线
	store := cache.NewStore()
	hub := events.NewHub()

	// 依赖注入 - Repository 层
	pageRepo := repository.NewColoringPageRepository(db)
	favoriteRepo := repository.NewFavoriteRepository(db)
	userRepo := repository.NewUserRepository(db)

	// 依赖注入 - UseCase 层
	pageUseCase := usecase.NewColoringPageUseCase(pageRepo, store, hub)
	favoriteUseCase := usecase.NewFavoriteUseCase(favoriteRepo, store, hub)
	generator := genai.NewClient(env.GeminiAPIKey)
	generationUseCase := usecase.NewGenerationUseCase(generator, pageRepo, store, hub)

	allowOrigins := append([]string{
		"http://localhost:3000",
		"http://localhost:5173",
	}, env.AllowOrigins...)

	// 依赖注入 - Controller 层
	pageController := controller.NewColoringPageController(pageUseCase, favoriteUseCase)
	favoriteController := controller.NewFavoriteController(favoriteUseCase)
	generateController := controller.NewGenerateController(generationUseCase)
	wsHandler := controller.NewWSHandler(hub, env.AllowOrigins)
	webhookController := controller.NewWebhookController(userRepo, store, env.WebhookSecret)

	// 启动事件总线
	go hub.Run()

	// 配置 Gin 路由
	router := gin.Default()

	// CORS 配置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 设置路由
	route.Setup(router, &route.Dependencies{
		PageController:     pageController,
		FavoriteController: favoriteController,
		GenerateController: generateController,
		WSHandler:          wsHandler,
		WebhookController:  webhookController,
	})

	// 启动 HTTP 服务
	srv := &http.Server{
		Addr:    ":" + env.Port,
		Handler: router,
	}

	go func() {
		log.Printf("[Server] 服务已启动: http://localhost:%s", env.Port)
		log.Printf("[Server] API 端点:")
		log.Printf("   GET    /health                              - 健康检查")
		log.Printf("   GET    /api/coloring-pages                  - 列表（view=recent|created|gallery|favorites）")
		log.Printf("   GET    /api/coloring-pages/:id              - 获取涂色页")
		log.Printf("   POST   /api/coloring-pages                  - 上传涂色页")
		log.Printf("   PUT    /api/coloring-pages/:id              - 更新标题/图片")
		log.Printf("   PATCH  /api/coloring-pages/:id/transform    - 更新编辑器变换状态")
		log.Printf("   DELETE /api/coloring-pages/:id              - 删除涂色页")
		log.Printf("   GET    /api/favorites                       - 收藏 ID 列表")
		log.Printf("   POST   /api/favorites/:id/toggle            - 切换收藏")
		log.Printf("   POST   /api/generate-image                  - 生成涂色页（认证可选）")
		log.Printf("   GET    /ws?token=xxx                        - 数据变更事件流")
		log.Printf("   POST   /webhook/clerk                       - Clerk Webhook")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[Server] 服务启动失败: %v", err)
		}
	}()

	// 优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[Server] 收到停机信号，正在优雅关闭...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("[Server] 服务强制关闭: %v", err)
	}

	log.Println("[Server] 服务已安全停止")
}
