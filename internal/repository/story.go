package repository

import "storyforge/internal/model"

// AddStory 添加故事并设为当前故事
func (w *Workspace) AddStory(s *model.Story) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWorkspaceClosed
	}

	next := make([]*model.Story, len(w.stories), len(w.stories)+1)
	copy(next, w.stories)
	w.stories = append(next, s)
	w.versions[s.ID] = 0
	w.current = s.ID
	return nil
}

// FindStory 根据 ID 查找故事，未找到返回 nil
func (w *Workspace) FindStory(id string) (*model.Story, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return nil, ErrWorkspaceClosed
	}
	return w.findStoryLocked(id), nil
}

// ListStories 返回所有故事，按创建顺序
func (w *Workspace) ListStories() []*model.Story {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*model.Story, len(w.stories))
	copy(out, w.stories)
	return out
}

// CurrentStory 返回当前故事，没有时返回 nil
func (w *Workspace) CurrentStory() *model.Story {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.current == "" {
		return nil
	}
	return w.findStoryLocked(w.current)
}

// SetCurrent 将已有故事设为当前故事
func (w *Workspace) SetCurrent(id string) (*model.Story, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, ErrWorkspaceClosed
	}
	s := w.findStoryLocked(id)
	if s == nil {
		return nil, ErrStoryNotFound
	}
	w.current = id
	return s, nil
}

// ClearCurrent 清除当前故事
func (w *Workspace) ClearCurrent() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.current = ""
}

// AppendMessage 向故事追加一条消息
// 返回:
//   - *model.Story: 追加后的故事快照
//   - error: 故事不存在或工作区已关闭
func (w *Workspace) AppendMessage(storyID string, msg model.Message) (*model.Story, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, ErrWorkspaceClosed
	}
	return w.appendLocked(storyID, msg)
}

// AppendMessageAt 仅当故事版本仍为 version 时追加消息
// 用于延迟回复，版本变化说明该回复已被取消
func (w *Workspace) AppendMessageAt(storyID string, version uint64, msg model.Message) (*model.Story, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, ErrWorkspaceClosed
	}
	if v, ok := w.versions[storyID]; ok && v != version {
		return nil, ErrStaleVersion
	}
	return w.appendLocked(storyID, msg)
}

// StoryVersion 返回故事当前版本号
func (w *Workspace) StoryVersion(storyID string) (uint64, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.findStoryLocked(storyID) == nil {
		return 0, ErrStoryNotFound
	}
	return w.versions[storyID], nil
}

// BumpStoryVersion 递增故事版本号，使之前捕获的版本全部过期
func (w *Workspace) BumpStoryVersion(storyID string) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.findStoryLocked(storyID) == nil {
		return 0, ErrStoryNotFound
	}
	w.versions[storyID]++
	return w.versions[storyID], nil
}

func (w *Workspace) findStoryLocked(id string) *model.Story {
	for _, s := range w.stories {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// appendLocked 生成新的故事快照并替换集合
func (w *Workspace) appendLocked(storyID string, msg model.Message) (*model.Story, error) {
	idx := -1
	for i, s := range w.stories {
		if s.ID == storyID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrStoryNotFound
	}

	updated := w.stories[idx].Clone()
	updated.Messages = append(updated.Messages, msg)

	next := make([]*model.Story, len(w.stories))
	copy(next, w.stories)
	next[idx] = updated
	w.stories = next
	return updated, nil
}
