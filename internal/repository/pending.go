package repository

import (
	"sync"
	"time"
)

// PendingReply 等待中的延迟回复句柄
type PendingReply struct {
	ID          string    `json:"id"`
	StoryID     string    `json:"story_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	DueAt       time.Time `json:"due_at"`
	Version     uint64    `json:"-"` // 发送时捕获的故事版本

	once   sync.Once
	cancel func()
}

// NewPendingReply 创建回复句柄
// cancel 在 Cancel 时最多执行一次
func NewPendingReply(id, storyID string, version uint64, delay time.Duration, cancel func()) *PendingReply {
	now := time.Now()
	return &PendingReply{
		ID:          id,
		StoryID:     storyID,
		ScheduledAt: now,
		DueAt:       now.Add(delay),
		Version:     version,
		cancel:      cancel,
	}
}

// Cancel 取消回复
func (p *PendingReply) Cancel() {
	p.once.Do(func() {
		if p.cancel != nil {
			p.cancel()
		}
	})
}

// TrackPending 记录等待中的回复
func (w *Workspace) TrackPending(p *PendingReply) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWorkspaceClosed
	}
	w.pending[p.ID] = p
	return nil
}

// UntrackPending 移除回复记录，回复完成后调用
func (w *Workspace) UntrackPending(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.pending, id)
}

// PendingFor 返回某个故事所有等待中的回复
func (w *Workspace) PendingFor(storyID string) []*PendingReply {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var out []*PendingReply
	for _, p := range w.pending {
		if p.StoryID == storyID {
			out = append(out, p)
		}
	}
	return out
}

// CancelPending 取消某个故事所有等待中的回复并递增其版本
// 返回:
//   - int: 被取消的回复数量
//   - error: 故事不存在
func (w *Workspace) CancelPending(storyID string) (int, error) {
	w.mu.Lock()
	if w.findStoryLocked(storyID) == nil {
		w.mu.Unlock()
		return 0, ErrStoryNotFound
	}
	w.versions[storyID]++
	var tasks []*PendingReply
	for id, p := range w.pending {
		if p.StoryID == storyID {
			tasks = append(tasks, p)
			delete(w.pending, id)
		}
	}
	w.mu.Unlock()

	for _, p := range tasks {
		p.Cancel()
	}
	return len(tasks), nil
}
