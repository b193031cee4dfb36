// Package websocket 提供 WebSocket 通信功能
// 向玩家的终端实时推送故事消息、回复状态和通知
package websocket

import (
	"time"

	"github.com/google/uuid"

	"storyforge/internal/model"
)

// MessageType 消息类型常量
const (
	// 客户端 → 服务端
	TypeHeartbeat   = "heartbeat"    // 心跳
	TypeUserMessage = "user:message" // 玩家发送的消息

	// 服务端 → 客户端
	TypeStoryMessage = "story:message" // 故事追加了一条消息
	TypeReplyPending = "reply:pending" // 主持人的回复已安排
	TypeReplyDropped = "reply:dropped" // 回复被丢弃
	TypeNotification = "notification"  // 状态通知

	// 通用
	TypeError = "error" // 错误消息
	TypePong  = "pong"  // 心跳响应
)

// Message WebSocket 消息结构
// 所有消息都使用这个统一的结构
type Message struct {
	Type      string      `json:"type"`                 // 消息类型
	Payload   interface{} `json:"payload"`              // 消息内容
	Timestamp int64       `json:"timestamp"`            // 时间戳（毫秒）
	MessageID string      `json:"message_id,omitempty"` // 消息ID，用于追踪
}

// NewMessage 创建新消息，自动生成消息ID
func NewMessage(msgType string, payload interface{}) *Message {
	return NewMessageWithID(msgType, payload, uuid.NewString())
}

// NewMessageWithID 创建带消息ID的新消息
// 用于回应客户端时沿用客户端的消息ID
func NewMessageWithID(msgType string, payload interface{}, messageID string) *Message {
	return &Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
		MessageID: messageID,
	}
}

// ==================== Payload 类型定义 ====================

// UserMessagePayload 玩家消息 Payload
// 发往当前故事，与 HTTP 发送走同一条路径
type UserMessagePayload struct {
	Content string `json:"content"` // 消息内容
}

// StoryMessagePayload 故事消息 Payload
type StoryMessagePayload struct {
	StoryID string        `json:"story_id"` // 故事ID
	Message model.Message `json:"message"`  // 追加的消息
}

// ReplyPendingPayload 回复已安排 Payload
type ReplyPendingPayload struct {
	ReplyID string    `json:"reply_id"`
	StoryID string    `json:"story_id"`
	DueAt   time.Time `json:"due_at"` // 预计追加时间
}

// ReplyDroppedPayload 回复被丢弃 Payload
type ReplyDroppedPayload struct {
	ReplyID string `json:"reply_id"`
	StoryID string `json:"story_id"`
	Reason  string `json:"reason"` // cancelled / stale / failed
}

// ErrorPayload 错误消息 Payload
type ErrorPayload struct {
	Code    int    `json:"code"`    // 错误码
	Message string `json:"message"` // 错误信息
}
