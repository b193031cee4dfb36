// Package util 提供通用工具函数
package util

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// GenerateUUID 生成 UUID
// 返回:
//   - string: UUID 字符串（不含连字符）
func GenerateUUID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// IDGenerator 基于毫秒时间戳的 ID 生成器
// 同一毫秒内的多次调用会顺延到下一个值，保证 ID 单调递增且不重复
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewIDGenerator 创建 ID 生成器
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{now: time.Now}
}

// Next 返回下一个 ID
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return strconv.FormatInt(ms, 10)
}

// TruncateString 截断字符串到指定字符数
// 如果超过指定长度，截断并添加 "..."
// 参数:
//   - s: 原字符串
//   - maxLen: 最大字符数
//
// 返回:
//   - string: 截断后的字符串
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// LocalPart 返回邮箱地址 @ 之前的部分
func LocalPart(email string) string {
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}

// BoolPtr 返回 bool 的指针
func BoolPtr(b bool) *bool {
	return &b
}
