// Package middleware 提供 HTTP 请求的中间件
// 包括 Token 认证、CORS 跨域、日志记录和 panic 恢复
package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"storyforge/internal/cache"
	"storyforge/pkg/jwt"
	"storyforge/pkg/response"
)

// 上下文中的键
const (
	ContextUserKey  = "user_key"  // 工作区键（邮箱或手机号）
	ContextUserName = "user_name" // 显示名称
	ContextToken    = "token"     // 原始 Token，登出时加入黑名单
	ContextTokenExp = "token_exp" // Token 过期时间，作为黑名单 TTL
)

// AuthMiddleware 创建 Token 认证中间件
// 验证请求头中的 Bearer Token，并将用户信息存入上下文
// 参数:
//   - jwtService: JWT 服务实例，用于解析和验证 Token
//   - tokenCache: 缓存实例，用于检查 Token 黑名单
//
// 返回:
//   - gin.HandlerFunc: Gin 中间件函数
func AuthMiddleware(jwtService *jwt.JWTService, tokenCache cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 格式: "Bearer <token>"
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "认证格式错误")
			c.Abort()
			return
		}
		tokenString := parts[1]

		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			response.Unauthorized(c, "Token 无效或已过期")
			c.Abort()
			return
		}

		// 用户登出后，Token 会被加入黑名单
		if tokenCache.IsTokenBlacklisted(c.Request.Context(), jwt.HashToken(tokenString)) {
			response.Unauthorized(c, "Token 已失效，请重新登录")
			c.Abort()
			return
		}

		var expireAt time.Time
		if claims.ExpiresAt != nil {
			expireAt = claims.ExpiresAt.Time
		}

		c.Set(ContextUserKey, claims.Email)
		c.Set(ContextUserName, claims.Name)
		c.Set(ContextToken, tokenString)
		c.Set(ContextTokenExp, expireAt)

		c.Next()
	}
}

// GetUserKey 从上下文获取工作区键
// 返回:
//   - string: 工作区键，未认证返回空字符串
func GetUserKey(c *gin.Context) string {
	return c.GetString(ContextUserKey)
}

// GetUserName 从上下文获取显示名称
func GetUserName(c *gin.Context) string {
	return c.GetString(ContextUserName)
}

// GetToken 从上下文获取原始 Token 和过期时间
func GetToken(c *gin.Context) (string, time.Time, bool) {
	token := c.GetString(ContextToken)
	if token == "" {
		return "", time.Time{}, false
	}
	return token, c.GetTime(ContextTokenExp), true
}
