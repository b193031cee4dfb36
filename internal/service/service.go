// Package service 实现业务逻辑
// 服务只依赖工作区、外部生成能力和通知通道，不关心传输层
package service

import (
	"context"
	"errors"
	"time"

	"storyforge/internal/model"
	"storyforge/internal/notify"
	"storyforge/internal/repository"
)

// ErrWorkspaceNotFound 工作区不存在（未登录或已退出）
var ErrWorkspaceNotFound = errors.New("workspace not found")

// Notifier 状态通知通道
type Notifier interface {
	Info(userKey, title, description string) notify.Notification
	Success(userKey, title, description string) notify.Notification
	Error(userKey, title, description string) notify.Notification
}

// EventPublisher 向用户的实时连接推送事件
type EventPublisher interface {
	MessageAppended(userKey, storyID string, msg model.Message)
	ReplyScheduled(userKey string, p *repository.PendingReply)
	ReplyDropped(userKey string, p *repository.PendingReply, reason string)
}

type noopPublisher struct{}

func (noopPublisher) MessageAppended(string, string, model.Message)         {}
func (noopPublisher) ReplyScheduled(string, *repository.PendingReply)       {}
func (noopPublisher) ReplyDropped(string, *repository.PendingReply, string) {}

// openWorkspace 获取用户的工作区
func openWorkspace(registry *repository.WorkspaceRegistry, userKey string) (*repository.Workspace, error) {
	ws, ok := registry.Get(userKey)
	if !ok {
		return nil, ErrWorkspaceNotFound
	}
	return ws, nil
}

// sleep 等待 d，ctx 取消时提前返回
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
