// Package repository 提供内存工作区的数据访问层
// 每个登录用户拥有一个工作区，保存角色、世界、故事和设置
// 所有修改都通过工作区的方法完成，集合整体替换写入，已返回的切片不会再被修改
package repository

import (
	"errors"
	"sync"

	"storyforge/internal/model"
)

// 定义错误类型
var (
	ErrWorkspaceClosed   = errors.New("workspace closed")          // 工作区已关闭（用户已退出）
	ErrCharacterNotFound = errors.New("character not found")       // 角色不存在
	ErrStoryNotFound     = errors.New("story not found")           // 故事不存在
	ErrStaleVersion      = errors.New("story version has changed") // 故事版本已变化，异步结果过期
)

// Workspace 单个用户的内存工作区
type Workspace struct {
	mu sync.RWMutex

	user       model.User
	characters []*model.Character
	worlds     []*model.World
	stories    []*model.Story
	versions   map[string]uint64 // 故事ID -> 版本号
	current    string            // 当前故事ID，空表示没有进行中的游戏
	settings   model.Settings
	pending    map[string]*PendingReply
	closed     bool
}

// NewWorkspace 创建工作区
func NewWorkspace(user model.User) *Workspace {
	return &Workspace{
		user:     user,
		versions: make(map[string]uint64),
		settings: model.DefaultSettings(),
		pending:  make(map[string]*PendingReply),
	}
}

// User 返回工作区所属用户
func (w *Workspace) User() model.User {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.user
}

// Closed 工作区是否已关闭
func (w *Workspace) Closed() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.closed
}

// Close 关闭工作区并取消所有等待中的回复
func (w *Workspace) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	tasks := make([]*PendingReply, 0, len(w.pending))
	for _, p := range w.pending {
		tasks = append(tasks, p)
	}
	w.pending = make(map[string]*PendingReply)
	w.mu.Unlock()

	// 在锁外取消，回调可能再次访问工作区
	for _, p := range tasks {
		p.Cancel()
	}
}

// ==================== 角色 ====================

// AddCharacter 添加角色
func (w *Workspace) AddCharacter(c *model.Character) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWorkspaceClosed
	}

	next := make([]*model.Character, len(w.characters), len(w.characters)+1)
	copy(next, w.characters)
	w.characters = append(next, c)
	return nil
}

// DeleteCharacter 删除角色
// 引用该角色的故事保持不变，其角色引用会悬空
func (w *Workspace) DeleteCharacter(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWorkspaceClosed
	}

	next := make([]*model.Character, 0, len(w.characters))
	found := false
	for _, c := range w.characters {
		if c.ID == id {
			found = true
			continue
		}
		next = append(next, c)
	}
	if !found {
		return ErrCharacterNotFound
	}
	w.characters = next
	return nil
}

// FindCharacter 根据 ID 查找角色
// 返回:
//   - *model.Character: 角色，未找到返回 nil
//   - error: 工作区已关闭时返回错误
func (w *Workspace) FindCharacter(id string) (*model.Character, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return nil, ErrWorkspaceClosed
	}
	for _, c := range w.characters {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

// ListCharacters 返回所有角色，按创建顺序
func (w *Workspace) ListCharacters() []*model.Character {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*model.Character, len(w.characters))
	copy(out, w.characters)
	return out
}

// ==================== 世界 ====================

// AddWorld 添加世界
func (w *Workspace) AddWorld(world *model.World) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWorkspaceClosed
	}

	next := make([]*model.World, len(w.worlds), len(w.worlds)+1)
	copy(next, w.worlds)
	w.worlds = append(next, world)
	return nil
}

// FindWorld 根据 ID 查找世界，未找到返回 nil
func (w *Workspace) FindWorld(id string) (*model.World, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return nil, ErrWorkspaceClosed
	}
	for _, world := range w.worlds {
		if world.ID == id {
			return world, nil
		}
	}
	return nil, nil
}

// ListWorlds 返回所有世界
func (w *Workspace) ListWorlds() []*model.World {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*model.World, len(w.worlds))
	copy(out, w.worlds)
	return out
}

// ==================== 设置 ====================

// Settings 返回当前设置
func (w *Workspace) Settings() model.Settings {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.settings
}

// UpdateSettings 修改设置
// fn 在副本上执行，返回错误时设置保持不变
func (w *Workspace) UpdateSettings(fn func(s *model.Settings) error) (model.Settings, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return model.Settings{}, ErrWorkspaceClosed
	}

	next := w.settings
	if err := fn(&next); err != nil {
		return w.settings, err
	}
	w.settings = next
	return next, nil
}
