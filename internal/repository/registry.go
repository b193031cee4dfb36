package repository

import (
	"sync"

	"storyforge/internal/model"
)

// WorkspaceRegistry 按用户键管理工作区
type WorkspaceRegistry struct {
	mu    sync.RWMutex
	items map[string]*Workspace
}

// NewWorkspaceRegistry 创建工作区注册表
func NewWorkspaceRegistry() *WorkspaceRegistry {
	return &WorkspaceRegistry{items: make(map[string]*Workspace)}
}

// Open 获取用户的工作区，不存在则创建
func (r *WorkspaceRegistry) Open(user model.User) *Workspace {
	key := user.Key()

	r.mu.Lock()
	defer r.mu.Unlock()
	if ws, ok := r.items[key]; ok {
		return ws
	}
	ws := NewWorkspace(user)
	r.items[key] = ws
	return ws
}

// Get 根据用户键获取工作区
func (r *WorkspaceRegistry) Get(key string) (*Workspace, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ws, ok := r.items[key]
	return ws, ok
}

// Drop 移除并关闭工作区
func (r *WorkspaceRegistry) Drop(key string) {
	r.mu.Lock()
	ws, ok := r.items[key]
	delete(r.items, key)
	r.mu.Unlock()

	if ok {
		ws.Close()
	}
}

// Len 返回工作区数量
func (r *WorkspaceRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// CloseAll 移除并关闭全部工作区
func (r *WorkspaceRegistry) CloseAll() {
	r.mu.Lock()
	items := r.items
	r.items = make(map[string]*Workspace)
	r.mu.Unlock()

	for _, ws := range items {
		ws.Close()
	}
}
