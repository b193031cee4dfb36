// Package play 实现终端里的游戏界面
// 读取玩家输入执行命令，并把服务器推送的事件渲染到输出
package play

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"storyforge/internal/cli/api"
	"storyforge/internal/model"
	"storyforge/internal/notify"
	"storyforge/internal/service"
	"storyforge/internal/shell"
	wsproto "storyforge/internal/websocket"
	"storyforge/pkg/response"
)

// Backend 游戏界面需要的服务器能力，由 api.Client 实现
type Backend interface {
	Characters(ctx context.Context) ([]model.Character, error)
	StartSession(ctx context.Context, characterID string) (*service.SessionView, error)
	CurrentSession(ctx context.Context) (*service.SessionView, error)
	ResumeSession(ctx context.Context, storyID string) (*service.SessionView, error)
	LeaveSession(ctx context.Context) error
	SendMessage(ctx context.Context, content string) (*service.SendResult, error)
	CancelPending(ctx context.Context) (int, error)
	Library(ctx context.Context) (*service.Library, error)
	Settings(ctx context.Context) (*model.Settings, error)
	Notifications(ctx context.Context) ([]notify.Notification, int, error)
	MarkNotificationsRead(ctx context.Context) error
}

var (
	ErrUnknownCommand = errors.New("未知命令，输入 /help 查看帮助")
	ErrNoGame         = errors.New("还没有开始游戏，先用 /start 选择角色")
	ErrBadArgument    = errors.New("参数错误")
)

const helpText = `命令:
  /tab <home|game|library|settings>  切换标签页
  /menu                              展开或收起菜单
  /characters                        角色列表
  /start <序号|角色ID>                用角色开始新游戏
  /resume <故事ID>                   继续已有的故事
  /prompt <序号>                     发送开场建议
  /cancel                            取消等待中的回复
  /leave                             离开游戏
  /library                           故事库与成就
  /settings                          当前设置
  /notifications                     查看通知并标记已读
  /quit                              退出
其他输入会作为消息发送到当前故事`

// REPL 游戏界面
type REPL struct {
	backend Backend
	state   *shell.State

	mu         sync.Mutex // 保护以下字段和输出
	out        io.Writer
	seen       map[string]struct{} // 已渲染的消息，HTTP 响应和推送可能重复
	characters []model.Character
	prompts    []string
}

// New 创建游戏界面
func New(backend Backend, state *shell.State, out io.Writer) *REPL {
	return &REPL{
		backend: backend,
		state:   state,
		out:     out,
		seen:    make(map[string]struct{}),
	}
}

// Run 逐行读取输入直到 /quit 或输入结束
func (r *REPL) Run(ctx context.Context, in io.Reader) error {
	r.printf("%s\n输入 /help 查看命令\n", r.state.Snapshot().Header())

	// 恢复服务器上的当前游戏
	if view, err := r.backend.CurrentSession(ctx); err == nil {
		r.enterGame(view)
	} else if !api.IsCode(err, response.CodeNoActiveSession) {
		r.printf("✗ %v\n", err)
	}

	scanner := bufio.NewScanner(in)
	for {
		r.printf("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		quit, err := r.Execute(ctx, scanner.Text())
		if err != nil {
			r.printf("✗ %v\n", err)
		}
		if quit {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Execute 执行一行输入
// 返回:
//   - bool: 是否退出
//   - error: 命令失败原因
func (r *REPL) Execute(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	if !strings.HasPrefix(line, "/") {
		return false, r.send(ctx, line)
	}

	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]
	switch cmd {
	case "/help":
		r.printf("%s\n", helpText)
	case "/quit", "/exit":
		return true, nil
	case "/menu":
		r.menu()
	case "/tab":
		if len(args) != 1 {
			return false, ErrBadArgument
		}
		tab, err := shell.ParseTab(args[0])
		if err != nil {
			return false, err
		}
		return false, r.switchTab(ctx, tab)
	case "/characters":
		return false, r.listCharacters(ctx)
	case "/start":
		if len(args) != 1 {
			return false, ErrBadArgument
		}
		return false, r.start(ctx, args[0])
	case "/resume":
		if len(args) != 1 {
			return false, ErrBadArgument
		}
		view, err := r.backend.ResumeSession(ctx, args[0])
		if err != nil {
			return false, err
		}
		r.enterGame(view)
	case "/prompt":
		if len(args) != 1 {
			return false, ErrBadArgument
		}
		return false, r.sendPrompt(ctx, args[0])
	case "/cancel":
		n, err := r.backend.CancelPending(ctx)
		if err != nil {
			return false, r.gameError(err)
		}
		r.printf("已取消 %d 条等待中的回复\n", n)
	case "/leave":
		if err := r.backend.LeaveSession(ctx); err != nil {
			return false, err
		}
		r.state.LeaveGame()
		r.printHeader()
	case "/library":
		return false, r.switchTab(ctx, shell.TabLibrary)
	case "/settings":
		return false, r.switchTab(ctx, shell.TabSettings)
	case "/notifications":
		return false, r.notifications(ctx)
	default:
		return false, ErrUnknownCommand
	}
	return false, nil
}

// HandleEvent 处理服务器推送的事件
func (r *REPL) HandleEvent(msgType string, payload json.RawMessage) {
	switch msgType {
	case wsproto.TypeStoryMessage:
		var p wsproto.StoryMessagePayload
		if json.Unmarshal(payload, &p) != nil {
			return
		}
		if p.StoryID != r.state.Snapshot().StoryID {
			return
		}
		r.renderMessage(p.Message)

	case wsproto.TypeReplyDropped:
		var p wsproto.ReplyDroppedPayload
		if json.Unmarshal(payload, &p) != nil {
			return
		}
		r.printf("… 回复已丢弃 (%s)\n", p.Reason)

	case wsproto.TypeNotification:
		var n notify.Notification
		if json.Unmarshal(payload, &n) != nil {
			return
		}
		r.state.Notify()
		if n.Description != "" {
			r.printf("🔔 %s: %s\n", n.Title, n.Description)
		} else {
			r.printf("🔔 %s\n", n.Title)
		}

	case wsproto.TypeError:
		var p wsproto.ErrorPayload
		if json.Unmarshal(payload, &p) != nil {
			return
		}
		if p.Code == response.CodeNoActiveSession {
			r.state.LeaveGame()
		}
		r.printf("✗ %s\n", p.Message)
	}
}

func (r *REPL) send(ctx context.Context, content string) error {
	if r.state.Snapshot().StoryID == "" {
		return ErrNoGame
	}
	result, err := r.backend.SendMessage(ctx, content)
	if err != nil {
		return r.gameError(err)
	}
	r.renderMessage(result.Message)
	r.printf("⏳ 主持人正在构思...\n")
	return nil
}

func (r *REPL) sendPrompt(ctx context.Context, arg string) error {
	r.mu.Lock()
	prompts := r.prompts
	r.mu.Unlock()

	i, err := strconv.Atoi(arg)
	if err != nil || i < 1 || i > len(prompts) {
		return ErrBadArgument
	}
	return r.send(ctx, prompts[i-1])
}

// gameError 服务器已没有进行中的游戏时同步本地状态
func (r *REPL) gameError(err error) error {
	if api.IsCode(err, response.CodeNoActiveSession) {
		r.state.LeaveGame()
		return ErrNoGame
	}
	return err
}

func (r *REPL) start(ctx context.Context, arg string) error {
	id := arg
	if i, err := strconv.Atoi(arg); err == nil {
		r.mu.Lock()
		characters := r.characters
		r.mu.Unlock()
		if len(characters) == 0 {
			if characters, err = r.backend.Characters(ctx); err != nil {
				return err
			}
		}
		if i < 1 || i > len(characters) {
			return fmt.Errorf("%w: 没有第 %d 个角色", ErrBadArgument, i)
		}
		id = characters[i-1].ID
	}

	view, err := r.backend.StartSession(ctx, id)
	if err != nil {
		return err
	}
	r.enterGame(view)
	return nil
}

func (r *REPL) enterGame(view *service.SessionView) {
	r.state.StartGame(view.Story.ID)
	r.printHeader()

	r.mu.Lock()
	r.prompts = view.Prompts
	r.mu.Unlock()

	if view.Character != nil {
		r.printf("%s %s\n", view.Character.Avatar, view.Character.Name)
	} else {
		r.printf("%s\n", service.UnknownCharacterName)
	}
	for _, m := range view.Story.Messages {
		r.renderMessage(m)
	}
	if len(view.Prompts) > 0 {
		r.printf("开场建议 (/prompt <序号>):\n")
		for i, p := range view.Prompts {
			r.printf("  %d. %s\n", i+1, p)
		}
	}
	if len(view.Pending) > 0 {
		r.printf("⏳ 主持人正在构思...\n")
	}
}

func (r *REPL) switchTab(ctx context.Context, tab shell.Tab) error {
	if err := r.state.Switch(tab); err != nil {
		return err
	}
	r.printHeader()

	switch tab {
	case shell.TabHome:
		return r.listCharacters(ctx)
	case shell.TabGame:
		view, err := r.backend.CurrentSession(ctx)
		if err != nil {
			return r.gameError(err)
		}
		r.enterGame(view)
	case shell.TabLibrary:
		return r.library(ctx)
	case shell.TabSettings:
		return r.settings(ctx)
	}
	return nil
}

func (r *REPL) menu() {
	if !r.state.ToggleMenu() {
		r.printf("菜单已收起\n")
		return
	}
	current := r.state.Snapshot().Tab
	for _, tab := range shell.Tabs {
		marker := " "
		if tab == current {
			marker = "•"
		}
		r.printf(" %s %-8s %s\n", marker, tab, tab.Title())
	}
}

func (r *REPL) listCharacters(ctx context.Context) error {
	characters, err := r.backend.Characters(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.characters = characters
	r.mu.Unlock()

	if len(characters) == 0 {
		r.printf("还没有角色，用 storyforge character create 创建一个\n")
		return nil
	}
	for i, c := range characters {
		r.printf("  %d. %s %s  %s\n", i+1, c.Avatar, c.Name, c.Description)
	}
	return nil
}

func (r *REPL) library(ctx context.Context) error {
	lib, err := r.backend.Library(ctx)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	WriteLibrary(r.out, lib)
	return nil
}

func (r *REPL) settings(ctx context.Context) error {
	s, err := r.backend.Settings(ctx)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	WriteSettings(r.out, s)
	return nil
}

// WriteLibrary 输出故事库、统计和成就
func WriteLibrary(w io.Writer, lib *service.Library) {
	fmt.Fprintf(w, "角色 %d · 世界 %d · 故事 %d · 消息 %d\n",
		lib.Stats.Characters, lib.Stats.Worlds, lib.Stats.Stories, lib.Stats.UserMessages)
	for _, e := range lib.Stories {
		fmt.Fprintf(w, "  %s %s  (%s, %d 条消息)  %s\n", e.CharacterAvatar, e.Title, e.CharacterName, e.MessageCount, e.StoryID)
	}
	for _, a := range lib.Achievements {
		mark := "☐"
		if a.Unlocked {
			mark = "☑"
		}
		fmt.Fprintf(w, "  %s %s %s  %d/%d\n", mark, a.Icon, a.Name, a.Progress, a.Goal)
	}
}

// WriteSettings 按配置键输出设置
func WriteSettings(w io.Writer, s *model.Settings) {
	fmt.Fprintf(w, "  model           %s\n", s.Model)
	fmt.Fprintf(w, "  creativity      %.1f\n", s.Creativity)
	fmt.Fprintf(w, "  response_length %s\n", s.ResponseLength)
	fmt.Fprintf(w, "  auto_images     %t\n", s.AutoImages)
	fmt.Fprintf(w, "  image_provider  %s\n", s.ImageProvider)
	fmt.Fprintf(w, "  notifications   %t\n", s.Notifications)
	fmt.Fprintf(w, "  sounds          %t\n", s.Sounds)
	fmt.Fprintf(w, "  animations      %t\n", s.Animations)
}

func (r *REPL) notifications(ctx context.Context) error {
	items, _, err := r.backend.Notifications(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		r.printf("没有通知\n")
	}
	for _, n := range items {
		r.printf("  [%s] %s %s\n", n.Severity, n.Title, n.Description)
	}
	if err := r.backend.MarkNotificationsRead(ctx); err != nil {
		return err
	}
	r.state.MarkRead()
	return nil
}

func (r *REPL) renderMessage(m model.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[m.ID]; ok {
		return
	}
	r.seen[m.ID] = struct{}{}

	who := "主持人"
	if m.Role == model.MessageRoleUser {
		who = "你"
	}
	fmt.Fprintf(r.out, "%s: %s\n", who, m.Content)
	if m.ImageURL != "" {
		fmt.Fprintf(r.out, "   🖼  %s\n", m.ImageURL)
	}
}

func (r *REPL) printHeader() {
	r.printf("%s\n", r.state.Snapshot().Header())
}

func (r *REPL) printf(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, format, args...)
}
