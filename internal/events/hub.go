package events

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// ========== 用户事件总线 ==========
// Hub 维护每个用户的在线连接集合，向同一用户的所有标签页广播数据变更
// 一个视图里的收藏/删除操作落库后，其他视图不用整页刷新就能收到通知

// userEvent 待投递的单条消息
type userEvent struct {
	userID string
	data   []byte
}

// Hub 连接目录与广播循环
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{} // userID -> 连接集合

	register   chan *Client
	unregister chan *Client
	events     chan userEvent
}

// NewHub 创建 Hub 实例
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan userEvent, 256),
	}
}

// Run Hub 事件循环
func (h *Hub) Run() {
	log.Println("[Hub] 🚀 事件总线已启动")

	for {
		select {
		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case evt := <-h.events:
			h.fanout(evt)
		}
	}
}

// Register 注册新连接
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister 注销连接
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Publish 向某用户的所有在线连接广播一条事件
// Hub 未运行或队列已满时丢弃（事件只是通知，数据以 HTTP 接口为准）
func (h *Hub) Publish(userID string, evtType EventType, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[Hub] ❌ 事件序列化失败: %v", err)
		return
	}

	data, err := json.Marshal(Event{
		Type:      evtType,
		SenderID:  userID,
		Payload:   raw,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		log.Printf("[Hub] ❌ 事件序列化失败: %v", err)
		return
	}

	select {
	case h.events <- userEvent{userID: userID, data: data}:
	default:
		log.Printf("[Hub] ⚠️ 事件队列已满，丢弃 %s 事件", evtType)
	}
}

// ClientCount 某用户当前在线连接数
func (h *Hub) ClientCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[client.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[client.UserID] = set
	}
	set[client] = struct{}{}
	log.Printf("[Hub] ✅ 用户 [%s] 新连接，当前 %d 个", client.UserID, len(set))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if _, exists := set[client]; !exists {
		return
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.clients, client.UserID)
	}
	log.Printf("[Hub] 🗑️ 用户 [%s] 连接断开，剩余 %d 个", client.UserID, len(set))
}

// fanout 把事件投递到目标用户的每个连接
// 发送缓冲已满说明客户端长时间不消费，直接踢掉，防止拖垮广播循环
func (h *Hub) fanout(evt userEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients[evt.userID] {
		select {
		case client.send <- evt.data:
		default:
			delete(h.clients[evt.userID], client)
			close(client.send)
			log.Printf("[Hub] ⚠️ 用户 [%s] 的连接消费过慢，已断开", evt.userID)
		}
	}
	if len(h.clients[evt.userID]) == 0 {
		delete(h.clients, evt.userID)
	}
}
