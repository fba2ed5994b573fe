package events

import "encoding/json"

type EventType string

const (
	// 数据变更事件，推送给同一用户的所有在线标签页
	TypePageCreated     EventType = "page-created"     // 新涂色页入库
	TypePageUpdated     EventType = "page-updated"     // 标题/图片/变换状态更新
	TypePageDeleted     EventType = "page-deleted"     // 涂色页删除
	TypeFavoriteToggled EventType = "favorite-toggled" // 收藏状态切换
)

// Event 统一的推送消息结构
type Event struct {
	Type      EventType       `json:"type"`     // 消息类型
	SenderID  string          `json:"senderId"` // 触发变更的用户 id（或 "server"）
	Payload   json.RawMessage `json:"payload"`  // 消息内容
	Timestamp int64           `json:"ts"`       // 时间戳
}

// PagePayload 涂色页变更事件的 payload
type PagePayload struct {
	PageID uint   `json:"pageId"`
	Title  string `json:"title,omitempty"`
}

// FavoritePayload 收藏切换事件的 payload
// Favorited 是服务端确认后的最终状态，前端不要自行取反
type FavoritePayload struct {
	PageID    uint `json:"pageId"`
	Favorited bool `json:"favorited"`
}
