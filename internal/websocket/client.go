package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"storyforge/pkg/response"
)

// Client 表示一个 WebSocket 客户端连接
// 同一个玩家可以同时有多个连接
type Client struct {
	hub     *Hub            // 所属的 Hub
	conn    *websocket.Conn // WebSocket 连接
	send    chan []byte     // 发送消息的通道
	userKey string          // 玩家的工作区键
	logger  *zap.Logger

	mu     sync.Mutex // 保护 send 通道的关闭
	closed bool
}

// 连接配置常量
const (
	// 写超时时间
	writeWait = 10 * time.Second

	// 等待 Pong 响应的超时时间
	pongWait = 60 * time.Second

	// 发送 Ping 的间隔（必须小于 pongWait）
	pingPeriod = (pongWait * 9) / 10

	// 消息最大大小（1MB）
	maxMessageSize = 1024 * 1024

	// 发送缓冲区大小
	sendBufferSize = 256
)

// NewClient 创建新的客户端
func NewClient(hub *Hub, conn *websocket.Conn, userKey string) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		userKey: userKey,
		logger:  hub.logger.With(zap.String("user", userKey)),
	}
}

// ReadPump 读取 WebSocket 消息的 goroutine
// 负责从 WebSocket 读取消息并交给 Hub 处理
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))

	// 每次收到 Pong，重置读取超时
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read error", zap.Error(err))
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			c.logger.Debug("failed to parse message", zap.Error(err))
			c.SendMessage(NewMessage(TypeError, &ErrorPayload{Code: response.CodeBadRequest, Message: "消息格式错误"}))
			continue
		}

		c.handleMessage(&msg)
	}
}

// WritePump 写入 WebSocket 消息的 goroutine
// 负责从 send 通道读取消息并写入 WebSocket
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				// send 通道已关闭
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage 向客户端发送消息
// 非阻塞，缓冲区满时丢弃
func (c *Client) SendMessage(msg *Message) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("failed to encode message", zap.String("type", msg.Type), zap.Error(err))
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}

	select {
	case c.send <- data:
		return true
	default:
		c.logger.Warn("client send buffer full, dropping message", zap.String("type", msg.Type))
		return false
	}
}

// handleMessage 处理接收到的消息
func (c *Client) handleMessage(msg *Message) {
	switch msg.Type {
	case TypeHeartbeat:
		c.SendMessage(NewMessageWithID(TypePong, nil, msg.MessageID))

	case TypeUserMessage:
		c.hub.handleUserMessage(c, msg)

	default:
		c.logger.Debug("unknown message type", zap.String("type", msg.Type))
		c.SendMessage(NewMessageWithID(TypeError, &ErrorPayload{
			Code:    response.CodeBadRequest,
			Message: "未知的消息类型: " + msg.Type,
		}, msg.MessageID))
	}
}

// Close 关闭客户端的发送通道，WritePump 随之退出
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
