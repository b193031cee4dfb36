// Package notify 实现短暂的状态通知队列
// 每个用户一个有界队列，带未读计数，推送失败只记录日志
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storyforge/internal/metrics"
)

// Severity 通知级别
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// DefaultCapacity 每个用户默认保留的通知数量
const DefaultCapacity = 20

// deliverTimeout 单次推送的超时
const deliverTimeout = 5 * time.Second

// Notification 一条通知
type Notification struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Severity    Severity  `json:"severity"`
	CreatedAt   time.Time `json:"created_at"`
}

// Sink 通知的投递目标
type Sink interface {
	Deliver(ctx context.Context, userKey string, n Notification) error
}

// SinkFunc 函数形式的 Sink
type SinkFunc func(ctx context.Context, userKey string, n Notification) error

// Deliver 调用 f
func (f SinkFunc) Deliver(ctx context.Context, userKey string, n Notification) error {
	return f(ctx, userKey, n)
}

type queue struct {
	items  []Notification
	unread int
}

type delivery struct {
	n     Notification
	sinks []Sink
}

// outbox 用户待投递的通知，同一时刻最多一个 worker 按入队顺序投递
type outbox struct {
	pending []delivery
}

// Center 通知中心
type Center struct {
	mu       sync.Mutex
	capacity int
	queues   map[string]*queue
	sinks    []Sink
	muted    func(userKey string) bool
	logger   *zap.Logger
	wg       sync.WaitGroup

	outMu    sync.Mutex
	outboxes map[string]*outbox // 有 worker 在运行的用户
}

// NewCenter 创建通知中心
// 参数:
//   - capacity: 每个用户保留的通知数量，<=0 时使用默认值
//   - logger: 日志实例
//
// 返回:
//   - *Center: 通知中心
func NewCenter(capacity int, logger *zap.Logger) *Center {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Center{
		capacity: capacity,
		queues:   make(map[string]*queue),
		outboxes: make(map[string]*outbox),
		logger:   logger.Named("notify"),
	}
}

// AddSink 注册投递目标
func (c *Center) AddSink(s Sink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sinks = append(c.sinks, s)
}

// SetMuteFunc 设置静音判断，返回 true 的用户只入队不投递
func (c *Center) SetMuteFunc(fn func(userKey string) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.muted = fn
}

// Push 入队并异步投递一条通知
// 同一用户的通知按 Push 的顺序到达各个 Sink
func (c *Center) Push(userKey, title, description string, severity Severity) Notification {
	n := Notification{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Severity:    severity,
		CreatedAt:   time.Now(),
	}

	// 静音判断会读取用户设置，不在 mu 内调用
	c.mu.Lock()
	mutedFn := c.muted
	c.mu.Unlock()
	muted := mutedFn != nil && mutedFn(userKey)

	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.queues[userKey]
	if !ok {
		q = &queue{}
		c.queues[userKey] = q
	}
	q.items = append(q.items, n)
	if len(q.items) > c.capacity {
		// 丢弃最旧的
		q.items = append([]Notification(nil), q.items[len(q.items)-c.capacity:]...)
	}
	q.unread++

	metrics.NotificationPushed(string(severity))

	if !muted && len(c.sinks) > 0 {
		// 持有 mu 入队，投递顺序与入队顺序一致
		c.enqueue(userKey, delivery{n: n, sinks: append([]Sink(nil), c.sinks...)})
	}
	return n
}

// enqueue 追加到用户的 outbox，没有 worker 时启动一个
func (c *Center) enqueue(userKey string, d delivery) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	if box, ok := c.outboxes[userKey]; ok {
		box.pending = append(box.pending, d)
		return
	}
	box := &outbox{pending: []delivery{d}}
	c.outboxes[userKey] = box
	c.wg.Add(1)
	go c.drain(userKey, box)
}

// drain 按顺序投递直到 outbox 为空
func (c *Center) drain(userKey string, box *outbox) {
	defer c.wg.Done()
	for {
		c.outMu.Lock()
		if len(box.pending) == 0 {
			delete(c.outboxes, userKey)
			c.outMu.Unlock()
			return
		}
		d := box.pending[0]
		box.pending = box.pending[1:]
		c.outMu.Unlock()

		c.fanout(userKey, d.n, d.sinks)
	}
}

// Info 推送普通通知
func (c *Center) Info(userKey, title, description string) Notification {
	return c.Push(userKey, title, description, SeverityInfo)
}

// Success 推送成功通知
func (c *Center) Success(userKey, title, description string) Notification {
	return c.Push(userKey, title, description, SeveritySuccess)
}

// Error 推送错误通知
func (c *Center) Error(userKey, title, description string) Notification {
	return c.Push(userKey, title, description, SeverityError)
}

// List 返回用户的通知（最新的在最后）和未读数量
func (c *Center) List(userKey string) ([]Notification, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.queues[userKey]
	if !ok {
		return []Notification{}, 0
	}
	out := make([]Notification, len(q.items))
	copy(out, q.items)
	return out, q.unread
}

// Unread 返回未读数量
func (c *Center) Unread(userKey string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if q, ok := c.queues[userKey]; ok {
		return q.unread
	}
	return 0
}

// MarkRead 清零未读数量
func (c *Center) MarkRead(userKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if q, ok := c.queues[userKey]; ok {
		q.unread = 0
	}
}

// Forget 删除用户的通知队列
func (c *Center) Forget(userKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.queues, userKey)
}

// Wait 等待所有投递结束，用于关闭服务和测试
func (c *Center) Wait() {
	c.wg.Wait()
}

func (c *Center) fanout(userKey string, n Notification, sinks []Sink) {
	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()

	for _, s := range sinks {
		if err := s.Deliver(ctx, userKey, n); err != nil {
			c.logger.Warn("notification delivery failed",
				zap.String("user", userKey),
				zap.String("title", n.Title),
				zap.Error(err),
			)
		}
	}
}

// Publisher 可广播通知的缓存
type Publisher interface {
	PublishNotification(ctx context.Context, userKey string, payload interface{}) error
}

// PublisherSink 把通知发布到缓存的 Pub/Sub 频道
func PublisherSink(p Publisher) Sink {
	return SinkFunc(func(ctx context.Context, userKey string, n Notification) error {
		return p.PublishNotification(ctx, userKey, n)
	})
}
