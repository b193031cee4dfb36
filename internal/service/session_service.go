package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storyforge/internal/imagegen"
	"storyforge/internal/metrics"
	"storyforge/internal/model"
	"storyforge/internal/narrative"
	"storyforge/internal/repository"
	"storyforge/pkg/util"
)

// 定义会话相关的错误
var (
	ErrEmptyMessage    = errors.New("message is empty")  // 消息为空
	ErrNoActiveSession = errors.New("no active session") // 没有进行中的游戏
	ErrStoryNotFound   = errors.New("story not found")   // 故事不存在
)

// 回复被丢弃的原因
const (
	DropCancelled = "cancelled" // 被取消
	DropStale     = "stale"     // 故事版本已变化
	DropClosed    = "closed"    // 工作区已关闭
	DropFailed    = "failed"    // 追加失败
)

// SessionService 游戏会话控制器
// 用户消息同步追加，主持人的回复在固定延迟后异步追加
type SessionService struct {
	registry    *repository.WorkspaceRegistry
	replies     narrative.ReplyGenerator
	images      imagegen.Generator
	events      EventPublisher
	ids         *util.IDGenerator
	delay       time.Duration
	sceneImages bool
	logger      *zap.Logger

	wg sync.WaitGroup // 进行中的延迟回复
}

// SessionOptions 会话控制器的可调参数
type SessionOptions struct {
	ReplyDelay  time.Duration // 模拟回复延迟
	SceneImages bool          // 是否允许为回复生成场景图
}

// NewSessionService 创建 SessionService 实例
// events 为 nil 时不推送实时事件
func NewSessionService(
	registry *repository.WorkspaceRegistry,
	replies narrative.ReplyGenerator,
	images imagegen.Generator,
	events EventPublisher,
	ids *util.IDGenerator,
	opts SessionOptions,
	logger *zap.Logger,
) *SessionService {
	if events == nil {
		events = noopPublisher{}
	}
	return &SessionService{
		registry:    registry,
		replies:     replies,
		images:      images,
		events:      events,
		ids:         ids,
		delay:       opts.ReplyDelay,
		sceneImages: opts.SceneImages,
		logger:      logger.Named("session"),
	}
}

// SetEventPublisher 设置实时事件推送
// Hub 依赖本服务，因此在构造之后注入
func (s *SessionService) SetEventPublisher(events EventPublisher) {
	if events == nil {
		events = noopPublisher{}
	}
	s.events = events
}

// SessionView 故事及其上下文
type SessionView struct {
	Story     *model.Story               `json:"story"`
	Character *model.Character           `json:"character,omitempty"` // 角色已删除时为空
	Pending   []*repository.PendingReply `json:"pending"`
	Prompts   []string                   `json:"prompts,omitempty"` // 空故事的开场建议
}

// SendResult 发送消息的结果
type SendResult struct {
	Story   *model.Story             `json:"story"`   // 追加用户消息后的故事
	Message model.Message            `json:"message"` // 用户消息
	Pending *repository.PendingReply `json:"pending"` // 等待中的回复
}

// StartSession 以角色开始一局新游戏
// 新故事没有消息，并成为当前故事
func (s *SessionService) StartSession(ctx context.Context, userKey, characterID string) (*SessionView, error) {
	ws, err := openWorkspace(s.registry, userKey)
	if err != nil {
		return nil, err
	}

	character, err := ws.FindCharacter(characterID)
	if err != nil {
		return nil, err
	}
	if character == nil {
		return nil, ErrCharacterNotFound
	}

	story := &model.Story{
		ID:          s.ids.Next(),
		Title:       model.DefaultStoryTitle,
		CharacterID: characterID,
		Messages:    []model.Message{},
		CreatedAt:   time.Now(),
	}
	if err := ws.AddStory(story); err != nil {
		return nil, err
	}

	s.logger.Info("session started",
		zap.String("user", userKey),
		zap.String("story_id", story.ID),
		zap.String("character_id", characterID),
	)
	return s.view(ws, story), nil
}

// SendMessage 向当前故事发送消息
// 用户消息立即追加；回复在延迟后追加，返回值中带有回复句柄
// 参数:
//   - ctx: 上下文
//   - userKey: 用户键
//   - text: 消息内容（首尾空白会被去掉）
//
// 返回:
//   - *SendResult: 发送结果
//   - error: 消息为空、没有进行中的游戏或工作区错误
func (s *SessionService) SendMessage(ctx context.Context, userKey, text string) (*SendResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	ws, err := openWorkspace(s.registry, userKey)
	if err != nil {
		return nil, err
	}
	current := ws.CurrentStory()
	if current == nil {
		return nil, ErrNoActiveSession
	}

	msg := model.Message{
		ID:        uuid.NewString(),
		Role:      model.MessageRoleUser,
		Content:   text,
		CreatedAt: time.Now(),
	}
	story, err := ws.AppendMessage(current.ID, msg)
	if err != nil {
		return nil, err
	}
	metrics.MessageAppended(model.MessageRoleUser)
	s.events.MessageAppended(userKey, story.ID, msg)

	pending, err := s.schedule(ws, userKey, story.ID, text)
	if err != nil {
		return nil, err
	}

	return &SendResult{Story: story, Message: msg, Pending: pending}, nil
}

// schedule 安排一条延迟回复
func (s *SessionService) schedule(ws *repository.Workspace, userKey, storyID, userText string) (*repository.PendingReply, error) {
	version, err := ws.StoryVersion(storyID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := repository.NewPendingReply(uuid.NewString(), storyID, version, s.delay, cancel)
	if err := ws.TrackPending(p); err != nil {
		cancel()
		return nil, err
	}

	metrics.ReplyScheduled()
	s.events.ReplyScheduled(userKey, p)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer metrics.ReplySettled()
		defer ws.UntrackPending(p.ID)
		defer cancel()

		timer := time.NewTimer(s.delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			reason := DropCancelled
			if ws.Closed() {
				reason = DropClosed
			}
			s.drop(userKey, p, reason)
			return
		case <-timer.C:
		}
		s.complete(ctx, ws, userKey, p, userText)
	}()

	return p, nil
}

// complete 生成回复并按发送时的版本追加
func (s *SessionService) complete(ctx context.Context, ws *repository.Workspace, userKey string, p *repository.PendingReply, userText string) {
	story, _ := ws.FindStory(p.StoryID)
	var character *model.Character
	if story != nil {
		character, _ = ws.FindCharacter(story.CharacterID)
	}
	settings := ws.Settings()

	text, err := s.replies.Reply(ctx, narrative.ReplyRequest{
		Story:     story,
		Character: character,
		UserText:  userText,
		Settings:  settings,
	})
	if err != nil {
		if ctx.Err() != nil {
			s.drop(userKey, p, DropCancelled)
			return
		}
		s.logger.Warn("reply generation failed, using default", zap.Error(err))
		text = narrative.DefaultReply
	}

	reply := model.Message{
		ID:      uuid.NewString(),
		Role:    model.MessageRoleAssistant,
		Content: text,
	}
	if s.sceneImages && settings.AutoImages {
		url, err := s.images.Generate(ctx, imagegen.Request{
			Kind:   imagegen.KindScene,
			Prompt: imagegen.ScenePrompt(text),
		})
		metrics.ImageRequest(string(imagegen.KindScene), err)
		if err == nil {
			reply.ImageURL = url
		} else {
			s.logger.Debug("scene image skipped", zap.Error(err))
		}
	}
	reply.CreatedAt = time.Now()

	if _, err := ws.AppendMessageAt(p.StoryID, p.Version, reply); err != nil {
		switch {
		case errors.Is(err, repository.ErrStaleVersion):
			s.drop(userKey, p, DropStale)
		case errors.Is(err, repository.ErrWorkspaceClosed):
			s.drop(userKey, p, DropClosed)
		default:
			s.logger.Error("failed to append reply", zap.String("story_id", p.StoryID), zap.Error(err))
			s.drop(userKey, p, DropFailed)
		}
		return
	}

	metrics.MessageAppended(model.MessageRoleAssistant)
	s.events.MessageAppended(userKey, p.StoryID, reply)
}

func (s *SessionService) drop(userKey string, p *repository.PendingReply, reason string) {
	metrics.ReplyDropped(reason)
	s.logger.Debug("reply dropped",
		zap.String("user", userKey),
		zap.String("reply_id", p.ID),
		zap.String("reason", reason),
	)
	if reason != DropClosed {
		s.events.ReplyDropped(userKey, p, reason)
	}
}

// CancelPending 取消当前故事所有等待中的回复
// 已经在生成中的回复也会因为版本变化而被丢弃
func (s *SessionService) CancelPending(ctx context.Context, userKey string) (int, error) {
	ws, err := openWorkspace(s.registry, userKey)
	if err != nil {
		return 0, err
	}
	current := ws.CurrentStory()
	if current == nil {
		return 0, ErrNoActiveSession
	}
	n, err := ws.CancelPending(current.ID)
	if err != nil {
		return 0, err
	}
	s.logger.Info("pending replies cancelled",
		zap.String("user", userKey),
		zap.String("story_id", current.ID),
		zap.Int("count", n),
	)
	return n, nil
}

// Current 返回当前故事
func (s *SessionService) Current(userKey string) (*SessionView, error) {
	ws, err := openWorkspace(s.registry, userKey)
	if err != nil {
		return nil, err
	}
	current := ws.CurrentStory()
	if current == nil {
		return nil, ErrNoActiveSession
	}
	return s.view(ws, current), nil
}

// Resume 将已有故事设为当前故事
func (s *SessionService) Resume(userKey, storyID string) (*SessionView, error) {
	ws, err := openWorkspace(s.registry, userKey)
	if err != nil {
		return nil, err
	}
	story, err := ws.SetCurrent(storyID)
	if err != nil {
		if errors.Is(err, repository.ErrStoryNotFound) {
			return nil, ErrStoryNotFound
		}
		return nil, err
	}
	return s.view(ws, story), nil
}

// Leave 离开当前游戏
// 等待中的回复仍会追加到原故事
func (s *SessionService) Leave(userKey string) error {
	ws, err := openWorkspace(s.registry, userKey)
	if err != nil {
		return err
	}
	ws.ClearCurrent()
	return nil
}

// GetStory 获取故事
func (s *SessionService) GetStory(userKey, storyID string) (*SessionView, error) {
	ws, err := openWorkspace(s.registry, userKey)
	if err != nil {
		return nil, err
	}
	story, err := ws.FindStory(storyID)
	if err != nil {
		return nil, err
	}
	if story == nil {
		return nil, ErrStoryNotFound
	}
	return s.view(ws, story), nil
}

// Stories 返回所有故事，按创建顺序
func (s *SessionService) Stories(userKey string) ([]*model.Story, error) {
	ws, err := openWorkspace(s.registry, userKey)
	if err != nil {
		return nil, err
	}
	return ws.ListStories(), nil
}

// QuickPrompts 返回开场建议
func (s *SessionService) QuickPrompts() []string {
	out := make([]string, len(narrative.QuickPrompts))
	copy(out, narrative.QuickPrompts)
	return out
}

// Shutdown 等待所有延迟回复结束
func (s *SessionService) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SessionService) view(ws *repository.Workspace, story *model.Story) *SessionView {
	character, _ := ws.FindCharacter(story.CharacterID)
	v := &SessionView{
		Story:     story,
		Character: character,
		Pending:   ws.PendingFor(story.ID),
	}
	if v.Pending == nil {
		v.Pending = []*repository.PendingReply{}
	}
	if story.IsEmpty() {
		v.Prompts = s.QuickPrompts()
	}
	return v
}
