package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBlacklist(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	require.NoError(t, c.BlacklistToken(ctx, "h1", now.Add(time.Minute)))
	assert.True(t, c.IsTokenBlacklisted(ctx, "h1"))
	assert.False(t, c.IsTokenBlacklisted(ctx, "h2"))

	// 已过期的 Token 不需要进黑名单
	require.NoError(t, c.BlacklistToken(ctx, "old", now.Add(-time.Second)))
	assert.False(t, c.IsTokenBlacklisted(ctx, "old"))

	now = now.Add(2 * time.Minute)
	assert.False(t, c.IsTokenBlacklisted(ctx, "h1"))
}

func TestMemoryPublishIsNoop(t *testing.T) {
	c := NewMemoryCache()
	assert.NoError(t, c.PublishNotification(context.Background(), "u", map[string]string{"a": "b"}))
	assert.NoError(t, c.Ping(context.Background()))
	assert.NoError(t, c.Close())
}

func TestNotificationChannel(t *testing.T) {
	assert.Equal(t, "storyforge:notify:zara@example.com", NotificationChannel("zara@example.com"))
}
