package controller

import (
	"log"
	"net/http"
	"strings"

	"github.com/samizak/ColorsAI/internal/events"

	"github.com/clerk/clerk-sdk-go/v2/jwt"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WSHandler 把浏览器标签页接入事件总线
// 连接建立后只下行推送数据变更事件，客户端不发业务消息
type WSHandler struct {
	hub      *events.Hub
	upgrader websocket.Upgrader
}

// NewWSHandler 构造函数
func NewWSHandler(hub *events.Hub, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// originChecker 本地开发放行 localhost，线上按白名单
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || strings.HasPrefix(origin, "http://localhost") {
			return true
		}
		for _, a := range allowed {
			if origin == a {
				return true
			}
		}
		log.Printf("[WS] ⚠️ 拒绝来自 %s 的连接", origin)
		return false
	}
}

// wsCredentials 从升级请求里取认证 token
// 浏览器的 WebSocket API 不能加自定义 Header：token 走查询参数，
// 部分客户端把它塞进 Sec-WebSocket-Protocol
// 只要请求提了子协议，升级响应就必须选中它回显，
// 否则客户端握手成功后会因协商失败立即断开连接
func wsCredentials(r *http.Request) (string, http.Header) {
	proto := r.Header.Get("Sec-WebSocket-Protocol")
	var respHeader http.Header
	if proto != "" {
		respHeader = http.Header{}
		respHeader.Set("Sec-WebSocket-Protocol", proto)
	}

	if token := r.URL.Query().Get("token"); token != "" {
		return token, respHeader
	}
	return proto, respHeader
}

// HandleWS GET /ws?token=xxx
func (h *WSHandler) HandleWS(c *gin.Context) {
	token, respHeader := wsCredentials(c.Request)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "缺少认证 token"})
		return
	}

	claims, err := jwt.Verify(c.Request.Context(), &jwt.VerifyParams{Token: token})
	if err != nil {
		log.Printf("[WS] ❌ Token 验证失败: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token 无效"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, respHeader)
	if err != nil {
		// Upgrade 失败时 gorilla 已经写了响应
		log.Printf("[WS] ❌ 升级 WebSocket 失败: %v", err)
		return
	}

	client := events.NewClient(h.hub, conn, claims.Subject)
	h.hub.Register(client)
	log.Printf("[WS] ✅ 用户 [%s] 已接入事件流", claims.Subject)

	go client.WritePump()
	go client.ReadPump()
}
