package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"storyforge/internal/notify"
	"storyforge/internal/service"
	"storyforge/pkg/response"
)

// LibraryHandler 故事库、设置和通知的处理器
type LibraryHandler struct {
	libraryService  *service.LibraryService
	settingsService *service.SettingsService
	notifications   *notify.Center
}

// NewLibraryHandler 创建 LibraryHandler 实例
func NewLibraryHandler(
	libraryService *service.LibraryService,
	settingsService *service.SettingsService,
	notifications *notify.Center,
) *LibraryHandler {
	return &LibraryHandler{
		libraryService:  libraryService,
		settingsService: settingsService,
		notifications:   notifications,
	}
}

// GetLibrary 获取故事库和成就
// @Security Bearer
// @Router /api/v1/library [get]
func (h *LibraryHandler) GetLibrary(c *gin.Context) {
	key, ok := userKey(c)
	if !ok {
		return
	}

	library, err := h.libraryService.Get(key)
	if err != nil {
		if !workspaceError(c, err) {
			response.InternalError(c, "获取故事库失败")
		}
		return
	}

	response.Success(c, library)
}

// GetSettings 获取偏好设置
// @Security Bearer
// @Router /api/v1/settings [get]
func (h *LibraryHandler) GetSettings(c *gin.Context) {
	key, ok := userKey(c)
	if !ok {
		return
	}

	settings, err := h.settingsService.Get(key)
	if err != nil {
		if !workspaceError(c, err) {
			response.InternalError(c, "获取设置失败")
		}
		return
	}

	response.Success(c, settings)
}

// UpdateSettings 部分更新偏好设置
// @Security Bearer
// @Param body body service.UpdateSettingsRequest true "要修改的字段"
// @Router /api/v1/settings [put]
func (h *LibraryHandler) UpdateSettings(c *gin.Context) {
	key, ok := userKey(c)
	if !ok {
		return
	}

	var req service.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	settings, err := h.settingsService.Update(key, &req)
	if err != nil {
		switch {
		case workspaceError(c, err):
		case errors.Is(err, service.ErrInvalidSetting):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, "保存设置失败")
		}
		return
	}

	response.SuccessWithMessage(c, "设置已保存", settings)
}

// ListNotifications 获取通知和未读数量
// @Security Bearer
// @Router /api/v1/notifications [get]
func (h *LibraryHandler) ListNotifications(c *gin.Context) {
	key, ok := userKey(c)
	if !ok {
		return
	}

	items, unread := h.notifications.List(key)
	response.Success(c, gin.H{
		"notifications": items,
		"unread":        unread,
	})
}

// MarkNotificationsRead 清零未读数量
// @Security Bearer
// @Router /api/v1/notifications/read [post]
func (h *LibraryHandler) MarkNotificationsRead(c *gin.Context) {
	key, ok := userKey(c)
	if !ok {
		return
	}

	h.notifications.MarkRead(key)
	response.Success(c, gin.H{"unread": 0})
}
