package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"storyforge/internal/imagegen"
	"storyforge/internal/metrics"
	"storyforge/internal/model"
	"storyforge/internal/repository"
	"storyforge/pkg/util"
)

// 定义角色相关的错误
var (
	ErrCharacterNameRequired        = errors.New("character name is required")
	ErrCharacterDescriptionRequired = errors.New("character description is required")
	ErrCharacterNameTooLong         = errors.New("character name is too long")
	ErrCharacterDescriptionTooLong  = errors.New("character description is too long")
	ErrInvalidAvatar                = errors.New("invalid avatar")
	ErrCharacterNotFound            = errors.New("character not found")
)

// DescriptionSynthesizer 根据名称生成角色描述
type DescriptionSynthesizer interface {
	CharacterDescription(name string) string
}

// CharacterService 角色创建器
type CharacterService struct {
	registry        *repository.WorkspaceRegistry
	images          imagegen.Generator
	descriptions    DescriptionSynthesizer
	notifier        Notifier
	ids             *util.IDGenerator
	placeholderBase string
	logger          *zap.Logger
}

// NewCharacterService 创建 CharacterService 实例
// 参数:
//   - registry: 工作区注册表
//   - images: 图片生成能力
//   - descriptions: 描述生成能力
//   - notifier: 通知通道
//   - ids: ID 生成器
//   - placeholderBase: 肖像占位图前缀
//   - logger: 日志实例
func NewCharacterService(
	registry *repository.WorkspaceRegistry,
	images imagegen.Generator,
	descriptions DescriptionSynthesizer,
	notifier Notifier,
	ids *util.IDGenerator,
	placeholderBase string,
	logger *zap.Logger,
) *CharacterService {
	return &CharacterService{
		registry:        registry,
		images:          images,
		descriptions:    descriptions,
		notifier:        notifier,
		ids:             ids,
		placeholderBase: placeholderBase,
		logger:          logger.Named("character"),
	}
}

// CreateCharacterRequest 创建角色请求
type CreateCharacterRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Avatar      string `json:"avatar"`
	// GeneratePortrait 是否生成肖像，不传时为 true
	GeneratePortrait *bool `json:"generate_portrait"`
}

// Create 创建角色
// 校验失败时不产生任何数据；肖像生成失败时使用占位图，创建本身不会因此失败
// 参数:
//   - ctx: 上下文
//   - userKey: 用户键
//   - req: 创建请求
//
// 返回:
//   - *model.Character: 新角色
//   - error: 校验错误或工作区错误
func (s *CharacterService) Create(ctx context.Context, userKey string, req *CreateCharacterRequest) (*model.Character, error) {
	ws, err := openWorkspace(s.registry, userKey)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	description := strings.TrimSpace(req.Description)
	avatar := strings.TrimSpace(req.Avatar)
	if avatar == "" {
		avatar = model.DefaultAvatar()
	}

	if err := validateCharacter(name, description, avatar); err != nil {
		metrics.ValidationFailed("character")
		s.notifier.Error(userKey, "Ошибка", characterErrorText(err))
		return nil, err
	}

	character := &model.Character{
		ID:          s.ids.Next(),
		Name:        name,
		Description: description,
		Avatar:      avatar,
		CreatedAt:   time.Now(),
	}

	if req.GeneratePortrait == nil || *req.GeneratePortrait {
		s.notifier.Info(userKey, "ИИ создаёт персонажа...", "Генерируем портрет")
		character.ImageURL = s.portrait(ctx, name, description)
	}

	if err := ws.AddCharacter(character); err != nil {
		return nil, err
	}

	metrics.CharacterCreated()
	s.notifier.Success(userKey, "Персонаж создан!", name+" готов к приключениям")
	s.logger.Info("character created",
		zap.String("user", userKey),
		zap.String("character_id", character.ID),
	)
	return character, nil
}

// portrait 生成肖像，失败时返回占位图
func (s *CharacterService) portrait(ctx context.Context, name, description string) string {
	url, err := s.images.Generate(ctx, imagegen.Request{
		Kind:   imagegen.KindPortrait,
		Prompt: imagegen.PortraitPrompt(name, description),
	})
	metrics.ImageRequest(string(imagegen.KindPortrait), err)
	if err != nil {
		s.logger.Warn("portrait generation failed, using placeholder", zap.Error(err))
		return imagegen.Placeholder(s.placeholderBase, name)
	}
	return url
}

// SuggestDescription 根据名称生成一段角色描述
func (s *CharacterService) SuggestDescription(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrCharacterNameRequired
	}
	if model.RuneLen(name) > model.CharacterNameMaxLen {
		return "", ErrCharacterNameTooLong
	}
	return util.TruncateString(s.descriptions.CharacterDescription(name), model.CharacterDescriptionMaxLen), nil
}

// List 返回所有角色
func (s *CharacterService) List(userKey string) ([]*model.Character, error) {
	ws, err := openWorkspace(s.registry, userKey)
	if err != nil {
		return nil, err
	}
	return ws.ListCharacters(), nil
}

// Get 获取角色
func (s *CharacterService) Get(userKey, id string) (*model.Character, error) {
	ws, err := openWorkspace(s.registry, userKey)
	if err != nil {
		return nil, err
	}
	c, err := ws.FindCharacter(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCharacterNotFound
	}
	return c, nil
}

// Delete 删除角色
// 引用该角色的故事保留，角色引用悬空
func (s *CharacterService) Delete(userKey, id string) error {
	ws, err := openWorkspace(s.registry, userKey)
	if err != nil {
		return err
	}
	if err := ws.DeleteCharacter(id); err != nil {
		if errors.Is(err, repository.ErrCharacterNotFound) {
			return ErrCharacterNotFound
		}
		return err
	}
	s.logger.Info("character deleted", zap.String("user", userKey), zap.String("character_id", id))
	return nil
}

func validateCharacter(name, description, avatar string) error {
	switch {
	case name == "":
		return ErrCharacterNameRequired
	case description == "":
		return ErrCharacterDescriptionRequired
	case model.RuneLen(name) > model.CharacterNameMaxLen:
		return ErrCharacterNameTooLong
	case model.RuneLen(description) > model.CharacterDescriptionMaxLen:
		return ErrCharacterDescriptionTooLong
	case !model.IsAvatar(avatar):
		return ErrInvalidAvatar
	}
	return nil
}

func characterErrorText(err error) string {
	switch err {
	case ErrCharacterNameTooLong:
		return "Имя не может быть длиннее 30 символов"
	case ErrCharacterDescriptionTooLong:
		return "Описание не может быть длиннее 500 символов"
	case ErrInvalidAvatar:
		return "Выберите аватар из списка"
	default:
		return "Заполните имя и описание персонажа"
	}
}
