// Package websocket 处理终端客户端与服务器的 WebSocket 连接
package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// 消息类型常量
const (
	TypeHeartbeat   = "heartbeat"
	TypePong        = "pong"
	TypeUserMessage = "user:message"

	TypeStoryMessage = "story:message"
	TypeReplyPending = "reply:pending"
	TypeReplyDropped = "reply:dropped"
	TypeNotification = "notification"
	TypeError        = "error"
)

const heartbeatInterval = 30 * time.Second

// ErrClosed 连接已关闭
var ErrClosed = errors.New("连接已关闭")

// Message WebSocket 消息结构
// Payload 保持原始 JSON，由调用方按类型解析
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	MessageID string          `json:"message_id,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// Client WebSocket 客户端
type Client struct {
	conn      *websocket.Conn
	serverURL string
	sendChan  chan []byte
	done      chan struct{}
	mu        sync.Mutex
	isRunning bool
	onMessage func(*Message) // 消息回调
	onClose   func()         // 连接关闭回调
	logger    *zap.Logger
}

// NewClient 创建 WebSocket 客户端
// serverURL: HTTP 服务器地址（如 http://localhost:8080）
// token: 工作区 Token
func NewClient(serverURL, token string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		serverURL: BuildURL(serverURL, token),
		sendChan:  make(chan []byte, 256),
		done:      make(chan struct{}),
		logger:    logger,
	}
}

// BuildURL 把 HTTP 地址转换为 WebSocket 地址
func BuildURL(serverURL, token string) string {
	wsURL := strings.TrimRight(serverURL, "/")
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	wsURL = strings.Replace(wsURL, "https://", "wss://", 1)
	return fmt.Sprintf("%s/ws?token=%s", wsURL, url.QueryEscape(token))
}

// OnMessage 设置消息回调，需要在 Connect 之前调用
func (c *Client) OnMessage(handler func(*Message)) {
	c.onMessage = handler
}

// OnClose 设置连接关闭回调
func (c *Client) OnClose(handler func()) {
	c.onClose = handler
}

// Connect 连接到服务器
func (c *Client) Connect() error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return fmt.Errorf("客户端已在运行")
	}
	c.mu.Unlock()

	conn, resp, err := websocket.DefaultDialer.Dial(c.serverURL, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("连接失败 (HTTP %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("连接失败: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.isRunning = true
	c.done = make(chan struct{})
	c.mu.Unlock()

	go c.readPump()
	go c.writePump()

	return nil
}

// Disconnect 断开连接，可重复调用
func (c *Client) Disconnect() {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return
	}
	c.isRunning = false
	close(c.done)

	if c.conn != nil {
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.conn.Close()
	}
	onClose := c.onClose
	c.mu.Unlock()

	if onClose != nil {
		onClose()
	}
}

// SendMessage 发送消息
func (c *Client) SendMessage(msgType string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg := &Message{
		Type:      msgType,
		Payload:   raw,
		MessageID: uuid.NewString(),
		Timestamp: time.Now().UnixMilli(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	c.mu.Lock()
	done := c.done
	running := c.isRunning
	c.mu.Unlock()
	if !running {
		return ErrClosed
	}

	select {
	case c.sendChan <- data:
		return nil
	case <-done:
		return ErrClosed
	default:
		return fmt.Errorf("发送缓冲区已满")
	}
}

// SendUserMessage 发送玩家消息
func (c *Client) SendUserMessage(content string) error {
	return c.SendMessage(TypeUserMessage, map[string]string{"content": content})
}

// readPump 读取消息
func (c *Client) readPump() {
	defer c.Disconnect()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("read error", zap.Error(err))
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("invalid frame", zap.Error(err))
			continue
		}

		if c.onMessage != nil {
			c.onMessage(&msg)
		}
	}
}

// writePump 写入消息并定时发送心跳
func (c *Client) writePump() {
	ticker := time.NewTicker(heartbeatInterval)
	defer func() {
		ticker.Stop()
		c.Disconnect()
	}()

	for {
		select {
		case <-c.done:
			return

		case data := <-c.sendChan:
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Warn("write failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			heartbeat := &Message{
				Type:      TypeHeartbeat,
				MessageID: uuid.NewString(),
				Timestamp: time.Now().UnixMilli(),
			}
			data, _ := json.Marshal(heartbeat)
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Warn("heartbeat failed", zap.Error(err))
				return
			}
		}
	}
}

// IsRunning 检查是否正在运行
func (c *Client) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isRunning
}
