package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"storyforge/internal/cache"
	pkgJwt "storyforge/pkg/jwt"
	"storyforge/pkg/response"
)

// WebSocket 升级器配置
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 终端客户端不发送 Origin，来源由 Token 校验
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler 处理 WebSocket 连接
type Handler struct {
	hub        *Hub
	jwtService *pkgJwt.JWTService
	cache      cache.Cache
	logger     *zap.Logger
}

// NewHandler 创建 WebSocket Handler
func NewHandler(hub *Hub, jwtService *pkgJwt.JWTService, cache cache.Cache, logger *zap.Logger) *Handler {
	return &Handler{
		hub:        hub,
		jwtService: jwtService,
		cache:      cache,
		logger:     logger.Named("ws"),
	}
}

// HandleWS 处理玩家的 WebSocket 连接
// 路由: GET /ws
// 参数: token (query parameter) - 登录时获得的 Access Token
func (h *Handler) HandleWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Unauthorized(c, "需要认证 token")
		return
	}

	claims, err := h.jwtService.ValidateToken(token)
	if err != nil {
		response.Unauthorized(c, "无效的 token")
		return
	}

	// 退出登录后 Token 失效
	if h.cache.IsTokenBlacklisted(c.Request.Context(), pkgJwt.HashToken(token)) {
		response.Unauthorized(c, "Token 已失效，请重新登录")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade connection", zap.Error(err))
		return
	}

	client := NewClient(h.hub, conn, claims.Email)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	h.logger.Info("websocket connected", zap.String("user", claims.Email))
}

// RegisterRoutes 注册 WebSocket 路由
// Token 在 query 中验证，不使用认证中间件
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", h.HandleWS)
}
