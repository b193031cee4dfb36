package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handlers 所有 HTTP 处理器
type Handlers struct {
	Auth      *AuthHandler
	User      *UserHandler
	Character *CharacterHandler
	World     *WorldHandler
	Session   *SessionHandler
	Library   *LibraryHandler
}

// RegisterRoutes 注册所有 API 路由
// 参数:
//   - router: Gin 引擎
//   - auth: 认证中间件
func (h *Handlers) RegisterRoutes(router *gin.Engine, auth gin.HandlerFunc) {
	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// 认证相关（无需登录）
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/phone", h.Auth.LoginWithPhone)
		authGroup.POST("/vk", h.Auth.LoginWithVK)
		authGroup.POST("/logout", auth, h.Auth.Logout)
	}

	// 不依赖工作区的只读数据
	v1.GET("/genres", h.World.ListGenres)
	v1.GET("/session/prompts", h.Session.QuickPrompts)

	// 以下都需要登录
	api := v1.Group("")
	api.Use(auth)
	{
		api.GET("/users/me", h.User.GetProfile)

		api.GET("/characters", h.Character.ListCharacters)
		api.POST("/characters", h.Character.CreateCharacter)
		api.POST("/characters/suggest", h.Character.SuggestDescription)
		api.GET("/characters/:id", h.Character.GetCharacter)
		api.DELETE("/characters/:id", h.Character.DeleteCharacter)

		api.GET("/worlds", h.World.ListWorlds)
		api.POST("/worlds", h.World.CreateWorld)
		api.GET("/worlds/:id", h.World.GetWorld)

		api.GET("/session", h.Session.GetCurrent)
		api.POST("/session", h.Session.StartSession)
		api.DELETE("/session", h.Session.Leave)
		api.POST("/session/messages", h.Session.SendMessage)
		api.DELETE("/session/pending", h.Session.CancelPending)
		api.PUT("/session/:id", h.Session.Resume)

		api.GET("/stories", h.Session.ListStories)
		api.GET("/stories/:id", h.Session.GetStory)

		api.GET("/library", h.Library.GetLibrary)
		api.GET("/settings", h.Library.GetSettings)
		api.PUT("/settings", h.Library.UpdateSettings)
		api.GET("/notifications", h.Library.ListNotifications)
		api.POST("/notifications/read", h.Library.MarkNotificationsRead)
	}
}
