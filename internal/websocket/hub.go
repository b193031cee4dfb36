package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"storyforge/internal/model"
	"storyforge/internal/notify"
	"storyforge/internal/repository"
	"storyforge/internal/service"
	"storyforge/pkg/response"
)

// MessageSender 向当前故事发送玩家消息
type MessageSender interface {
	SendMessage(ctx context.Context, userKey, text string) (*service.SendResult, error)
}

// Hub 是 WebSocket 连接的中心管理器
// 负责：
// 1. 管理所有客户端连接（按玩家分组）
// 2. 处理客户端发来的玩家消息
// 3. 推送故事事件和通知
type Hub struct {
	// 客户端映射：userKey -> []*Client
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once

	mu sync.RWMutex

	sender MessageSender
	logger *zap.Logger
}

// NewHub 创建 Hub 实例
func NewHub(sender MessageSender, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string][]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		sender:     sender,
		logger:     logger.Named("ws"),
	}
}

// Run 启动 Hub 的主循环
// 应该在单独的 goroutine 中运行，Shutdown 后退出
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-h.done:
			h.closeAll()
			return
		}
	}
}

// Shutdown 停止主循环并关闭所有连接
func (h *Hub) Shutdown() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}

// Register 注册客户端
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

// Unregister 注销客户端
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.userKey] = append(h.clients[client.userKey], client)
	h.logger.Info("client registered",
		zap.String("user", client.userKey),
		zap.Int("connections", len(h.clients[client.userKey])),
	)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	clients := h.clients[client.userKey]
	for i, c := range clients {
		if c == client {
			h.clients[client.userKey] = append(clients[:i:i], clients[i+1:]...)
			break
		}
	}
	if len(h.clients[client.userKey]) == 0 {
		delete(h.clients, client.userKey)
	}
	h.mu.Unlock()

	client.Close()
	h.logger.Info("client unregistered", zap.String("user", client.userKey))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	all := h.clients
	h.clients = make(map[string][]*Client)
	h.mu.Unlock()

	for _, clients := range all {
		for _, c := range clients {
			c.Close()
		}
	}
}

// SendToUser 向玩家的所有连接发送消息
// 返回:
//   - int: 成功放入发送队列的连接数
func (h *Hub) SendToUser(userKey string, msg *Message) int {
	h.mu.RLock()
	clients := append([]*Client(nil), h.clients[userKey]...)
	h.mu.RUnlock()

	sent := 0
	for _, c := range clients {
		if c.SendMessage(msg) {
			sent++
		}
	}
	return sent
}

// DisconnectUser 关闭玩家的所有连接，退出登录时调用
func (h *Hub) DisconnectUser(userKey string) {
	h.mu.Lock()
	clients := h.clients[userKey]
	delete(h.clients, userKey)
	h.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
	if len(clients) > 0 {
		h.logger.Info("user disconnected", zap.String("user", userKey), zap.Int("connections", len(clients)))
	}
}

// ConnectionCount 返回玩家当前的连接数
func (h *Hub) ConnectionCount(userKey string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userKey])
}

// ==================== 事件推送 ====================

// MessageAppended 推送故事追加的消息
func (h *Hub) MessageAppended(userKey, storyID string, msg model.Message) {
	h.SendToUser(userKey, NewMessage(TypeStoryMessage, &StoryMessagePayload{
		StoryID: storyID,
		Message: msg,
	}))
}

// ReplyScheduled 推送回复已安排
func (h *Hub) ReplyScheduled(userKey string, p *repository.PendingReply) {
	h.SendToUser(userKey, NewMessage(TypeReplyPending, &ReplyPendingPayload{
		ReplyID: p.ID,
		StoryID: p.StoryID,
		DueAt:   p.DueAt,
	}))
}

// ReplyDropped 推送回复被丢弃
func (h *Hub) ReplyDropped(userKey string, p *repository.PendingReply, reason string) {
	h.SendToUser(userKey, NewMessage(TypeReplyDropped, &ReplyDroppedPayload{
		ReplyID: p.ID,
		StoryID: p.StoryID,
		Reason:  reason,
	}))
}

// Deliver 推送通知，实现 notify.Sink
// 玩家不在线时通知只保留在队列中
func (h *Hub) Deliver(_ context.Context, userKey string, n notify.Notification) error {
	h.SendToUser(userKey, NewMessage(TypeNotification, n))
	return nil
}

// ==================== 客户端消息处理 ====================

// handleUserMessage 处理玩家消息
// 成功时故事消息通过 MessageAppended 推送，这里不再单独回应
func (h *Hub) handleUserMessage(client *Client, msg *Message) {
	payloadBytes, _ := json.Marshal(msg.Payload)
	var payload UserMessagePayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		client.SendMessage(NewMessageWithID(TypeError, &ErrorPayload{
			Code:    response.CodeBadRequest,
			Message: "消息格式错误",
		}, msg.MessageID))
		return
	}

	_, err := h.sender.SendMessage(context.Background(), client.userKey, payload.Content)
	if err == nil {
		return
	}

	code, text := errorFrame(err)
	if code == response.CodeInternalError {
		h.logger.Error("failed to send user message", zap.String("user", client.userKey), zap.Error(err))
	}
	client.SendMessage(NewMessageWithID(TypeError, &ErrorPayload{Code: code, Message: text}, msg.MessageID))
}

// errorFrame 将会话错误映射为错误码和提示
func errorFrame(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrEmptyMessage):
		return response.CodeBadRequest, "消息不能为空"
	case errors.Is(err, service.ErrNoActiveSession):
		return response.CodeNoActiveSession, "请先开始一局游戏"
	case errors.Is(err, service.ErrWorkspaceNotFound):
		return response.CodeUnauthorized, "请重新登录"
	default:
		return response.CodeInternalError, "发送消息失败"
	}
}
