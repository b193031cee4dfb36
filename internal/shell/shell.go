// Package shell 终端客户端的界面状态
// 维护当前标签页、菜单、登录弹窗和未读通知数，渲染由调用方完成
package shell

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Tab 标签页
type Tab string

const (
	TabHome     Tab = "home"
	TabGame     Tab = "game"
	TabLibrary  Tab = "library"
	TabSettings Tab = "settings"
)

// Tabs 菜单中的标签页顺序
var Tabs = []Tab{TabHome, TabGame, TabLibrary, TabSettings}

var tabTitles = map[Tab]string{
	TabHome:     "Главная",
	TabGame:     "Игра",
	TabLibrary:  "Библиотека",
	TabSettings: "Настройки",
}

var (
	ErrUnknownTab   = errors.New("unknown tab")
	ErrNoActiveGame = errors.New("no active game")
)

// Title 标签页的显示名称
func (t Tab) Title() string {
	if title, ok := tabTitles[t]; ok {
		return title
	}
	return string(t)
}

// ParseTab 解析标签页名称，大小写不敏感
func ParseTab(name string) (Tab, error) {
	tab := Tab(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := tabTitles[tab]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTab, name)
	}
	return tab, nil
}

// View 某一时刻的界面快照
type View struct {
	Tab      Tab
	MenuOpen bool
	AuthOpen bool
	Unread   int
	UserName string
	StoryID  string // 当前游戏的故事，为空表示没有进行中的游戏
}

// SignedIn 是否已登录
func (v View) SignedIn() bool {
	return v.UserName != ""
}

// State 界面状态，可被多个 goroutine 同时访问
// 任意时刻恰好有一个标签页处于激活状态
type State struct {
	mu   sync.RWMutex
	view View
}

// New 创建界面状态，初始停留在首页
func New() *State {
	return &State{view: View{Tab: TabHome}}
}

// Snapshot 返回当前状态的副本
func (s *State) Snapshot() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// Switch 切换标签页并收起菜单
// 未知标签页返回 ErrUnknownTab；没有进行中的游戏时不能切到游戏页
// 出错时状态不变
func (s *State) Switch(tab Tab) error {
	if _, ok := tabTitles[tab]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tab == TabGame && s.view.StoryID == "" {
		return ErrNoActiveGame
	}
	s.view.Tab = tab
	s.view.MenuOpen = false
	return nil
}

// ToggleMenu 展开或收起菜单，返回新的状态
func (s *State) ToggleMenu() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.MenuOpen = !s.view.MenuOpen
	return s.view.MenuOpen
}

func (s *State) OpenAuth() {
	s.mu.Lock()
	s.view.AuthOpen = true
	s.mu.Unlock()
}

func (s *State) CloseAuth() {
	s.mu.Lock()
	s.view.AuthOpen = false
	s.mu.Unlock()
}

// Notify 未读通知数加一
func (s *State) Notify() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Unread++
	return s.view.Unread
}

// MarkRead 清空未读通知数
func (s *State) MarkRead() {
	s.mu.Lock()
	s.view.Unread = 0
	s.mu.Unlock()
}

// SignIn 记录登录用户并关闭登录弹窗
func (s *State) SignIn(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.UserName = name
	s.view.AuthOpen = false
}

// SignOut 清除用户，结束游戏并回到首页
func (s *State) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = View{Tab: TabHome, Unread: s.view.Unread}
}

// StartGame 进入游戏页
func (s *State) StartGame(storyID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.StoryID = storyID
	s.view.Tab = TabGame
	s.view.MenuOpen = false
}

// LeaveGame 离开游戏并回到首页
func (s *State) LeaveGame() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.StoryID = ""
	s.view.Tab = TabHome
}

// Header 渲染一行标题栏，激活的标签页用方括号标出
func (v View) Header() string {
	var b strings.Builder
	b.WriteString("StoryForge |")
	for _, tab := range Tabs {
		if tab == TabGame && v.StoryID == "" {
			continue
		}
		if tab == v.Tab {
			fmt.Fprintf(&b, " [%s]", tab.Title())
		} else {
			fmt.Fprintf(&b, " %s", tab.Title())
		}
	}
	if v.Unread > 0 {
		fmt.Fprintf(&b, " | 🔔 %d", v.Unread)
	}
	if v.SignedIn() {
		fmt.Fprintf(&b, " | %s", v.UserName)
	} else {
		b.WriteString(" | Войти")
	}
	return b.String()
}
