package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"storyforge/internal/service"
	"storyforge/pkg/response"
)

// WorldHandler 世界请求处理器
type WorldHandler struct {
	worldService *service.WorldService
}

// NewWorldHandler 创建 WorldHandler 实例
func NewWorldHandler(worldService *service.WorldService) *WorldHandler {
	return &WorldHandler{
		worldService: worldService,
	}
}

// ListGenres 获取所有世界类型，第一个为默认值
// @Router /api/v1/genres [get]
func (h *WorldHandler) ListGenres(c *gin.Context) {
	response.Success(c, h.worldService.Genres())
}

// CreateWorld 创建世界
// 开场故事和风景图并发生成
// @Summary 创建世界
// @Tags 世界
// @Security Bearer
// @Accept json
// @Produce json
// @Param body body service.CreateWorldRequest true "世界信息"
// @Success 201 {object} response.Response{data=model.World}
// @Router /api/v1/worlds [post]
func (h *WorldHandler) CreateWorld(c *gin.Context) {
	key, ok := userKey(c)
	if !ok {
		return
	}

	var req service.CreateWorldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	world, err := h.worldService.Create(c.Request.Context(), key, &req)
	if err != nil {
		worldError(c, err, "创建世界失败")
		return
	}

	response.Created(c, world)
}

// ListWorlds 获取所有世界
// @Security Bearer
// @Router /api/v1/worlds [get]
func (h *WorldHandler) ListWorlds(c *gin.Context) {
	key, ok := userKey(c)
	if !ok {
		return
	}

	worlds, err := h.worldService.List(key)
	if err != nil {
		worldError(c, err, "获取世界列表失败")
		return
	}

	response.Success(c, gin.H{
		"worlds": worlds,
		"total":  len(worlds),
	})
}

// GetWorld 获取世界详情
// @Security Bearer
// @Router /api/v1/worlds/{id} [get]
func (h *WorldHandler) GetWorld(c *gin.Context) {
	key, ok := userKey(c)
	if !ok {
		return
	}

	world, err := h.worldService.Get(key, c.Param("id"))
	if err != nil {
		worldError(c, err, "获取世界失败")
		return
	}

	response.Success(c, world)
}

func worldError(c *gin.Context, err error, fallback string) {
	if workspaceError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrWorldNameRequired):
		response.BadRequest(c, "名称不能为空")
	case errors.Is(err, service.ErrWorldDescriptionRequired):
		response.BadRequest(c, "描述不能为空")
	case errors.Is(err, service.ErrWorldNameTooLong):
		response.BadRequest(c, "名称不能超过 50 个字符")
	case errors.Is(err, service.ErrWorldDescriptionTooLong):
		response.BadRequest(c, "描述不能超过 500 个字符")
	case errors.Is(err, service.ErrInvalidGenre):
		response.BadRequest(c, "无效的世界类型")
	case errors.Is(err, service.ErrWorldNotFound):
		response.NotFound(c, "世界不存在")
	default:
		response.InternalError(c, fallback)
	}
}
