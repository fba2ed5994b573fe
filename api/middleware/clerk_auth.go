package middleware

import (
	"net/http"
	"strings"

	"github.com/clerk/clerk-sdk-go/v2/jwt"
	"github.com/gin-gonic/gin"
)

// ContextKeyUserID 上下文中存放 Clerk 用户 ID 的 key
const ContextKeyUserID = "userID"

func ClerkAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 获取 Token (支持 Bearer Token)
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "缺少 Authorization 头"})
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")

		// 2. 验证 Token (核心)
		// Clerk SDK 会自动拉取公钥并验证签名、过期时间
		claims, err := jwt.Verify(c.Request.Context(), &jwt.VerifyParams{
			Token: token,
		})
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token 无效", "details": err.Error()})
			return
		}

		// 3. 将用户信息注入上下文，供后续 Controller 使用
		c.Set(ContextKeyUserID, claims.Subject)

		c.Next()
	}
}

// OptionalClerkAuth 可选认证
// 带有效 Token 时注入用户信息，没有或无效时放行为匿名请求
// 生成接口使用：匿名也能生成，只是结果不落库
func OptionalClerkAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := jwt.Verify(c.Request.Context(), &jwt.VerifyParams{
			Token: token,
		})
		if err != nil {
			// Token 给了但无效，按匿名处理而不是拒绝
			c.Next()
			return
		}

		c.Set(ContextKeyUserID, claims.Subject)
		c.Next()
	}
}

// UserID 从上下文读取当前用户 id，匿名请求返回空串
func UserID(c *gin.Context) string {
	value, exists := c.Get(ContextKeyUserID)
	if !exists {
		return ""
	}
	userID, _ := value.(string)
	return userID
}
