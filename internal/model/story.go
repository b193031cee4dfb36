package model

import "time"

// MessageRole 消息角色常量
const (
	MessageRoleUser      = "user"      // 玩家消息
	MessageRoleAssistant = "assistant" // 游戏主持人的回复
)

// DefaultStoryTitle 新故事的标题
const DefaultStoryTitle = "Новая история"

// Message 消息模型
// 追加到故事之后不再修改
type Message struct {
	// ID 消息唯一标识
	ID string `json:"id"`

	// Role 消息角色
	// user: 玩家发送的消息
	// assistant: 主持人的回复
	Role string `json:"role"`

	// Content 消息内容
	Content string `json:"content"`

	// ImageURL 场景图片，只有部分回复带有
	ImageURL string `json:"image_url,omitempty"`

	// CreatedAt 消息创建时间
	CreatedAt time.Time `json:"created_at"`
}

// Story 故事（游戏会话）模型
// 一个角色的一段对话，消息只能追加，顺序即追加顺序
type Story struct {
	// ID 故事唯一标识
	ID string `json:"id"`

	// Title 标题
	Title string `json:"title"`

	// CharacterID 所属角色ID
	// 角色被删除后该引用会悬空
	CharacterID string `json:"character_id"`

	// Messages 按追加顺序排列的消息
	Messages []Message `json:"messages"`

	// CreatedAt 创建时间
	CreatedAt time.Time `json:"created_at"`
}

// IsEmpty 故事是否还没有任何消息
func (s *Story) IsEmpty() bool {
	return len(s.Messages) == 0
}

// Count 统计指定角色的消息数量
func (s *Story) Count(role string) int {
	n := 0
	for _, m := range s.Messages {
		if m.Role == role {
			n++
		}
	}
	return n
}

// Clone 返回故事的副本，消息切片不与原故事共享
func (s *Story) Clone() *Story {
	c := *s
	c.Messages = make([]Message, len(s.Messages))
	copy(c.Messages, s.Messages)
	return &c
}
