// Package cache 提供 Token 黑名单和通知广播的缓存实现
// 启用 Redis 时使用 RedisCache，否则使用进程内的 MemoryCache
package cache

import (
	"context"
	"time"
)

// Cache 服务端使用的缓存操作
type Cache interface {
	// BlacklistToken 将 Token 哈希加入黑名单，直到 expireAt
	BlacklistToken(ctx context.Context, tokenHash string, expireAt time.Time) error
	// IsTokenBlacklisted 检查 Token 哈希是否在黑名单中
	IsTokenBlacklisted(ctx context.Context, tokenHash string) bool
	// PublishNotification 广播用户通知
	PublishNotification(ctx context.Context, userKey string, payload interface{}) error
	// Ping 检查连接
	Ping(ctx context.Context) error
	// Close 释放资源
	Close() error
}

func blacklistKey(tokenHash string) string {
	return "jwt:blacklist:" + tokenHash
}

// NotificationChannel 返回用户通知的广播频道
func NotificationChannel(userKey string) string {
	return "storyforge:notify:" + userKey
}
