package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"storyforge/internal/middleware"
	"storyforge/internal/service"
	"storyforge/pkg/response"
)

// AuthHandler 认证请求处理器
// 处理邮箱、手机号和 VK 的模拟登录以及登出
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler 创建 AuthHandler 实例
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Login 邮箱登录
// @Summary 邮箱登录
// @Tags 认证
// @Accept json
// @Produce json
// @Param body body service.LoginRequest true "登录信息"
// @Success 200 {object} response.Response{data=service.LoginResponse}
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		h.loginError(c, err)
		return
	}

	response.SuccessWithMessage(c, "登录成功", result)
}

// Register 邮箱注册
// @Summary 邮箱注册
// @Tags 认证
// @Accept json
// @Produce json
// @Param body body service.RegisterRequest true "注册信息"
// @Success 200 {object} response.Response{data=service.LoginResponse}
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	result, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		h.loginError(c, err)
		return
	}

	response.SuccessWithMessage(c, "注册成功", result)
}

// LoginWithPhone 手机号登录
// @Router /api/v1/auth/phone [post]
func (h *AuthHandler) LoginWithPhone(c *gin.Context) {
	var req service.PhoneLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	result, err := h.authService.LoginWithPhone(c.Request.Context(), &req)
	if err != nil {
		h.loginError(c, err)
		return
	}

	response.SuccessWithMessage(c, "登录成功", result)
}

// LoginWithVK VK 登录
// @Router /api/v1/auth/vk [post]
func (h *AuthHandler) LoginWithVK(c *gin.Context) {
	result, err := h.authService.LoginWithVK(c.Request.Context())
	if err != nil {
		h.loginError(c, err)
		return
	}

	response.SuccessWithMessage(c, "登录成功", result)
}

// Logout 登出
// 当前 Token 加入黑名单，工作区被丢弃
// @Security Bearer
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	token, expireAt, ok := middleware.GetToken(c)
	if !ok {
		response.BadRequest(c, "无法获取 Token 信息")
		return
	}

	if err := h.authService.Logout(c.Request.Context(), token, expireAt, middleware.GetUserKey(c)); err != nil {
		response.InternalError(c, "登出失败")
		return
	}

	response.SuccessWithMessage(c, "登出成功", nil)
}

func (h *AuthHandler) loginError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMissingCredentials):
		response.BadRequest(c, "请填写所有字段")
	case errors.Is(err, service.ErrMissingName):
		response.BadRequest(c, "请填写名称")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		response.BadRequest(c, "请求已取消")
	default:
		response.InternalError(c, "登录失败")
	}
}
