// Package handler 提供 HTTP 请求处理器
// 处理器只负责解析请求、调用服务和把错误映射为业务状态码
package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"storyforge/internal/middleware"
	"storyforge/internal/service"
	"storyforge/pkg/response"
)

// userKey 从上下文取出工作区键
// 未认证时写入 401 并返回 false
func userKey(c *gin.Context) (string, bool) {
	key := middleware.GetUserKey(c)
	if key == "" {
		response.Unauthorized(c, "请先登录")
		return "", false
	}
	return key, true
}

// workspaceError 处理工作区相关的通用错误
// 返回 true 表示已写入响应
func workspaceError(c *gin.Context, err error) bool {
	if errors.Is(err, service.ErrWorkspaceNotFound) {
		// 服务重启或已登出，Token 仍有效但工作区不存在
		response.Unauthorized(c, "请重新登录")
		return true
	}
	return false
}
