package handler

import (
	"github.com/gin-gonic/gin"

	"storyforge/internal/service"
	"storyforge/pkg/response"
)

// UserHandler 用户信息处理器
type UserHandler struct {
	authService *service.AuthService
}

// NewUserHandler 创建 UserHandler 实例
func NewUserHandler(authService *service.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

// GetProfile 获取当前用户
// @Security Bearer
// @Router /api/v1/users/me [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	key, ok := userKey(c)
	if !ok {
		return
	}

	user, err := h.authService.Me(key)
	if err != nil {
		if !workspaceError(c, err) {
			response.InternalError(c, "获取用户信息失败")
		}
		return
	}

	response.Success(c, user)
}
