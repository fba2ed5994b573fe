package controller

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/samizak/ColorsAI/domain/entity"
	domainRepo "github.com/samizak/ColorsAI/domain/repository"
	"github.com/samizak/ColorsAI/internal/cache"

	"github.com/gin-gonic/gin"
	svix "github.com/svix/svix-webhooks/go"
)

// WebhookController 接收 Clerk 的用户生命周期回调，把用户表与 Clerk 保持同步
// 用户删除会级联清掉涂色页与收藏，所以还要顺带废弃列表缓存
type WebhookController struct {
	userRepo domainRepo.UserRepository
	store    *cache.Store
	secret   string
}

// NewWebhookController 构造函数，依赖注入
func NewWebhookController(userRepo domainRepo.UserRepository, store *cache.Store, secret string) *WebhookController {
	return &WebhookController{
		userRepo: userRepo,
		store:    store,
		secret:   secret,
	}
}

// clerkEvent Clerk 回调的外层结构
type clerkEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// clerkUser 回调里携带的用户字段（只解析用到的）
type clerkUser struct {
	ID             string `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	ImageURL       string `json:"image_url"`
	EmailAddresses []struct {
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
}

// HandleClerkWebhook POST /webhook/clerk
// 处理 user.created / user.updated / user.deleted
func (wc *WebhookController) HandleClerkWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无法读取请求体"})
		return
	}

	if !wc.verifySignature(c, body) {
		return
	}

	var evt clerkEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		log.Printf("[Webhook] ❌ 回调不是合法 JSON: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的 JSON 格式"})
		return
	}
	log.Printf("[Webhook] 📥 收到事件: %s", evt.Type)

	switch evt.Type {
	case "user.created", "user.updated":
		wc.syncUser(evt.Data)
	case "user.deleted":
		wc.removeUser(evt.Data)
	default:
		log.Printf("[Webhook] ℹ️ 忽略事件: %s", evt.Type)
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// verifySignature 用 Svix 验证回调签名，失败时直接写响应并返回 false
// 未配置密钥时跳过（本地开发），线上必须配置
func (wc *WebhookController) verifySignature(c *gin.Context, body []byte) bool {
	if wc.secret == "" {
		log.Println("[Webhook] ⚠️ 未配置 CLERK_WEBHOOK_SECRET，跳过签名验证（仅限开发环境）")
		return true
	}

	wh, err := svix.NewWebhook(wc.secret)
	if err != nil {
		log.Printf("[Webhook] ❌ 初始化签名验证器失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Webhook 配置错误"})
		return false
	}

	headers := http.Header{}
	for _, name := range []string{"svix-id", "svix-timestamp", "svix-signature"} {
		headers.Set(name, c.GetHeader(name))
	}
	if err := wh.Verify(body, headers); err != nil {
		log.Printf("[Webhook] ❌ 签名验证失败: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "签名验证失败"})
		return false
	}
	return true
}

// syncUser user.created / user.updated 落库
func (wc *WebhookController) syncUser(data json.RawMessage) {
	var cu clerkUser
	if err := json.Unmarshal(data, &cu); err != nil {
		log.Printf("[Webhook] ❌ 解析用户数据失败: %v", err)
		return
	}

	email := ""
	if len(cu.EmailAddresses) > 0 {
		email = cu.EmailAddresses[0].EmailAddress
	}
	name := cu.FirstName
	if cu.LastName != "" {
		if name != "" {
			name += " "
		}
		name += cu.LastName
	}

	user := &entity.User{
		ID:        cu.ID,
		Email:     email,
		Name:      name,
		AvatarURL: cu.ImageURL,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := wc.userRepo.Upsert(user); err != nil {
		log.Printf("[Webhook] ❌ 用户同步失败 %s: %v", cu.ID, err)
		return
	}
	log.Printf("[Webhook] ✅ 用户同步成功: %s (%s)", user.ID, user.Email)
}

// removeUser user.deleted：删用户并级联清理其涂色页和收藏
// 级联删掉的涂色页可能还躺在缓存的各个列表里，整体废弃让下次读取回源
func (wc *WebhookController) removeUser(data json.RawMessage) {
	var cu struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &cu); err != nil || cu.ID == "" {
		log.Printf("[Webhook] ❌ 删除事件缺少用户 id: %v", err)
		return
	}

	if err := wc.userRepo.Delete(cu.ID); err != nil {
		log.Printf("[Webhook] ❌ 用户删除失败 %s: %v", cu.ID, err)
		return
	}

	for _, key := range wc.store.Keys() {
		wc.store.Invalidate(key)
	}
	log.Printf("[Webhook] 🗑️ 用户已删除: %s", cu.ID)
}
