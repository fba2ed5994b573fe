package bootstrap

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Env 环境变量配置结构
type Env struct {
	DatabaseURL    string   // PostgreSQL 连接字符串
	ClerkSecretKey string   // Clerk API 密钥
	WebhookSecret  string   // Clerk Webhook 签名密钥
	GeminiAPIKey   string   // Gemini 图片生成 API 密钥
	Port           string   // 服务端口
	AllowOrigins   []string // 额外的 CORS 白名单（逗号分隔）
}

// LoadEnv 加载环境变量
// 开发环境从 .env 文件加载，生产环境从系统环境变量读取
func LoadEnv() *Env {
	// 尝试加载 .env 文件（生产环境可能没有）
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ .env 文件未找到，将使用系统环境变量")
	}

	env := &Env{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		ClerkSecretKey: os.Getenv("CLERK_SECRET_KEY"),
		WebhookSecret:  os.Getenv("CLERK_WEBHOOK_SECRET"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		Port:           os.Getenv("PORT"),
	}

	if origins := os.Getenv("ALLOW_ORIGINS"); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				env.AllowOrigins = append(env.AllowOrigins, origin)
			}
		}
	}

	// 默认端口
	if env.Port == "" {
		env.Port = "8080"
	}

	// 必需变量检查
	if env.DatabaseURL == "" {
		log.Fatal("❌ 缺少必需环境变量: DATABASE_URL")
	}
	if env.GeminiAPIKey == "" {
		log.Fatal("❌ 缺少必需环境变量: GEMINI_API_KEY")
	}

	log.Printf("✅ 环境变量加载完成, 端口: %s", env.Port)
	return env
}
