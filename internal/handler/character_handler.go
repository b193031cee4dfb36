package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"storyforge/internal/service"
	"storyforge/pkg/response"
)

// CharacterHandler 角色请求处理器
type CharacterHandler struct {
	characterService *service.CharacterService
}

// NewCharacterHandler 创建 CharacterHandler 实例
func NewCharacterHandler(characterService *service.CharacterService) *CharacterHandler {
	return &CharacterHandler{
		characterService: characterService,
	}
}

// SuggestRequest 生成角色描述请求
type SuggestRequest struct {
	Name string `json:"name"`
}

// CreateCharacter 创建角色
// 肖像生成失败不影响创建，返回占位图
// @Summary 创建角色
// @Tags 角色
// @Security Bearer
// @Accept json
// @Produce json
// @Param body body service.CreateCharacterRequest true "角色信息"
// @Success 201 {object} response.Response{data=model.Character}
// @Router /api/v1/characters [post]
func (h *CharacterHandler) CreateCharacter(c *gin.Context) {
	key, ok := userKey(c)
	if !ok {
		return
	}

	var req service.CreateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	character, err := h.characterService.Create(c.Request.Context(), key, &req)
	if err != nil {
		characterError(c, err, "创建角色失败")
		return
	}

	response.Created(c, character)
}

// ListCharacters 获取所有角色
// @Security Bearer
// @Router /api/v1/characters [get]
func (h *CharacterHandler) ListCharacters(c *gin.Context) {
	key, ok := userKey(c)
	if !ok {
		return
	}

	characters, err := h.characterService.List(key)
	if err != nil {
		characterError(c, err, "获取角色列表失败")
		return
	}

	response.Success(c, gin.H{
		"characters": characters,
		"total":      len(characters),
	})
}

// GetCharacter 获取角色详情
// @Security Bearer
// @Router /api/v1/characters/{id} [get]
func (h *CharacterHandler) GetCharacter(c *gin.Context) {
	key, ok := userKey(c)
	if !ok {
		return
	}

	character, err := h.characterService.Get(key, c.Param("id"))
	if err != nil {
		characterError(c, err, "获取角色失败")
		return
	}

	response.Success(c, character)
}

// DeleteCharacter 删除角色
// 引用该角色的故事保留
// @Security Bearer
// @Router /api/v1/characters/{id} [delete]
func (h *CharacterHandler) DeleteCharacter(c *gin.Context) {
	key, ok := userKey(c)
	if !ok {
		return
	}

	if err := h.characterService.Delete(key, c.Param("id")); err != nil {
		characterError(c, err, "删除角色失败")
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}

// SuggestDescription 根据名称生成角色描述
// @Security Bearer
// @Router /api/v1/characters/suggest [post]
func (h *CharacterHandler) SuggestDescription(c *gin.Context) {
	var req SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	description, err := h.characterService.SuggestDescription(req.Name)
	if err != nil {
		characterError(c, err, "生成描述失败")
		return
	}

	response.Success(c, gin.H{"description": description})
}

func characterError(c *gin.Context, err error, fallback string) {
	if workspaceError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrCharacterNameRequired):
		response.BadRequest(c, "名称不能为空")
	case errors.Is(err, service.ErrCharacterDescriptionRequired):
		response.BadRequest(c, "描述不能为空")
	case errors.Is(err, service.ErrCharacterNameTooLong):
		response.BadRequest(c, "名称不能超过 30 个字符")
	case errors.Is(err, service.ErrCharacterDescriptionTooLong):
		response.BadRequest(c, "描述不能超过 500 个字符")
	case errors.Is(err, service.ErrInvalidAvatar):
		response.BadRequest(c, "无效的头像")
	case errors.Is(err, service.ErrCharacterNotFound):
		response.NotFound(c, "角色不存在")
	default:
		response.InternalError(c, fallback)
	}
}
