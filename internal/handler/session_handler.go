package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"storyforge/internal/service"
	"storyforge/pkg/response"
)

// SessionHandler 游戏会话请求处理器
type SessionHandler struct {
	sessionService *service.SessionService
}

// NewSessionHandler 创建 SessionHandler 实例
func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
	}
}

// StartSessionRequest 开始游戏请求
type StartSessionRequest struct {
	CharacterID string `json:"character_id" binding:"required"`
}

// SendMessageRequest 发送消息请求
type SendMessageRequest struct {
	Content string `json:"content"`
}

// StartSession 以角色开始一局新游戏
// @Security Bearer
// @Param body body StartSessionRequest true "角色"
// @Success 201 {object} response.Response{data=service.SessionView}
// @Router /api/v1/session [post]
func (h *SessionHandler) StartSession(c *gin.Context) {
	key, ok := userKey(c)
	if !ok {
		return
	}

	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	view, err := h.sessionService.StartSession(c.Request.Context(), key, req.CharacterID)
	if err != nil {
		sessionError(c, err, "开始游戏失败")
		return
	}

	response.Created(c, view)
}

// GetCurrent 获取当前故事
// @Security Bearer
// @Router /api/v1/session [get]
func (h *SessionHandler) GetCurrent(c *gin.Context) {
	key, ok := userKey(c)
	if !ok {
		return
	}

	view, err := h.sessionService.Current(key)
	if err != nil {
		sessionError(c, err, "获取当前游戏失败")
		return
	}

	response.Success(c, view)
}

// Leave 离开当前游戏
// @Security Bearer
// @Router /api/v1/session [delete]
func (h *SessionHandler) Leave(c *gin.Context) {
	key, ok := userKey(c)
	if !ok {
		return
	}

	if err := h.sessionService.Leave(key); err != nil {
		sessionError(c, err, "离开游戏失败")
		return
	}

	response.SuccessWithMessage(c, "已离开游戏", nil)
}

// Resume 继续已有的故事
// @Security Bearer
// @Router /api/v1/session/{id} [put]
func (h *SessionHandler) Resume(c *gin.Context) {
	key, ok := userKey(c)
	if !ok {
		return
	}

	view, err := h.sessionService.Resume(key, c.Param("id"))
	if err != nil {
		sessionError(c, err, "继续游戏失败")
		return
	}

	response.Success(c, view)
}

// SendMessage 向当前故事发送消息
// 玩家消息立即追加，主持人的回复延迟后通过 WebSocket 推送，因此返回 202
// @Security Bearer
// @Param body body SendMessageRequest true "消息"
// @Success 202 {object} response.Response{data=service.SendResult}
// @Router /api/v1/session/messages [post]
func (h *SessionHandler) SendMessage(c *gin.Context) {
	key, ok := userKey(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	result, err := h.sessionService.SendMessage(c.Request.Context(), key, req.Content)
	if err != nil {
		sessionError(c, err, "发送消息失败")
		return
	}

	response.Accepted(c, result)
}

// CancelPending 取消当前故事等待中的回复
// @Security Bearer
// @Router /api/v1/session/pending [delete]
func (h *SessionHandler) CancelPending(c *gin.Context) {
	key, ok := userKey(c)
	if !ok {
		return
	}

	n, err := h.sessionService.CancelPending(c.Request.Context(), key)
	if err != nil {
		sessionError(c, err, "取消回复失败")
		return
	}

	response.Success(c, gin.H{"cancelled": n})
}

// QuickPrompts 获取开场建议
// @Router /api/v1/session/prompts [get]
func (h *SessionHandler) QuickPrompts(c *gin.Context) {
	response.Success(c, h.sessionService.QuickPrompts())
}

// ListStories 获取所有故事
// @Security Bearer
// @Router /api/v1/stories [get]
func (h *SessionHandler) ListStories(c *gin.Context) {
	key, ok := userKey(c)
	if !ok {
		return
	}

	stories, err := h.sessionService.Stories(key)
	if err != nil {
		sessionError(c, err, "获取故事列表失败")
		return
	}

	response.Success(c, gin.H{
		"stories": stories,
		"total":   len(stories),
	})
}

// GetStory 获取故事详情
// 角色已删除时 character 为空
// @Security Bearer
// @Router /api/v1/stories/{id} [get]
func (h *SessionHandler) GetStory(c *gin.Context) {
	key, ok := userKey(c)
	if !ok {
		return
	}

	view, err := h.sessionService.GetStory(key, c.Param("id"))
	if err != nil {
		sessionError(c, err, "获取故事失败")
		return
	}

	response.Success(c, view)
}

func sessionError(c *gin.Context, err error, fallback string) {
	if workspaceError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrEmptyMessage):
		response.BadRequest(c, "消息不能为空")
	case errors.Is(err, service.ErrNoActiveSession):
		response.NoActiveSession(c)
	case errors.Is(err, service.ErrStoryNotFound):
		response.StoryNotFound(c)
	case errors.Is(err, service.ErrCharacterNotFound):
		response.NotFound(c, "角色不存在")
	default:
		response.InternalError(c, fallback)
	}
}
