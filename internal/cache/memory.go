package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache 进程内缓存，未启用 Redis 时使用
// 通知广播在单实例下没有订阅者，直接丢弃
type MemoryCache struct {
	mu        sync.Mutex
	blacklist map[string]time.Time
	now       func() time.Time
}

// NewMemoryCache 创建 MemoryCache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		blacklist: make(map[string]time.Time),
		now:       time.Now,
	}
}

// BlacklistToken 将 Token 加入黑名单
func (c *MemoryCache) BlacklistToken(_ context.Context, tokenHash string, expireAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !expireAt.After(c.now()) {
		return nil
	}
	c.blacklist[blacklistKey(tokenHash)] = expireAt
	c.purgeLocked()
	return nil
}

// IsTokenBlacklisted 检查 Token 是否在黑名单中
func (c *MemoryCache) IsTokenBlacklisted(_ context.Context, tokenHash string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	exp, ok := c.blacklist[blacklistKey(tokenHash)]
	if !ok {
		return false
	}
	if !exp.After(c.now()) {
		delete(c.blacklist, blacklistKey(tokenHash))
		return false
	}
	return true
}

// PublishNotification 单实例下无需广播
func (c *MemoryCache) PublishNotification(context.Context, string, interface{}) error {
	return nil
}

// Ping 始终可用
func (c *MemoryCache) Ping(context.Context) error {
	return nil
}

// Close 清空黑名单
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blacklist = make(map[string]time.Time)
	return nil
}

// purgeLocked 清理已过期的条目
func (c *MemoryCache) purgeLocked() {
	now := c.now()
	for k, exp := range c.blacklist {
		if !exp.After(now) {
			delete(c.blacklist, k)
		}
	}
}
