package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"storyforge/internal/imagegen"
	"storyforge/internal/metrics"
	"storyforge/internal/model"
	"storyforge/internal/repository"
	"storyforge/pkg/util"
)

// 定义世界相关的错误
var (
	ErrWorldNameRequired        = errors.New("world name is required")
	ErrWorldDescriptionRequired = errors.New("world description is required")
	ErrWorldNameTooLong         = errors.New("world name is too long")
	ErrWorldDescriptionTooLong  = errors.New("world description is too long")
	ErrInvalidGenre             = errors.New("invalid genre")
	ErrWorldNotFound            = errors.New("world not found")
)

// WorldSeeder 生成世界的开场故事
type WorldSeeder interface {
	WorldSeed(name, description string, genre model.Genre) string
}

// WorldService 世界创建器
type WorldService struct {
	registry *repository.WorkspaceRegistry
	images   imagegen.Generator
	seeder   WorldSeeder
	notifier Notifier
	ids      *util.IDGenerator
	logger   *zap.Logger
}

// NewWorldService 创建 WorldService 实例
func NewWorldService(
	registry *repository.WorkspaceRegistry,
	images imagegen.Generator,
	seeder WorldSeeder,
	notifier Notifier,
	ids *util.IDGenerator,
	logger *zap.Logger,
) *WorldService {
	return &WorldService{
		registry: registry,
		images:   images,
		seeder:   seeder,
		notifier: notifier,
		ids:      ids,
		logger:   logger.Named("world"),
	}
}

// CreateWorldRequest 创建世界请求
type CreateWorldRequest struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Genre       model.Genre `json:"genre"` // 为空时使用第一个类型
}

// Create 创建世界
// 开场故事和风景图并发生成，两者都结束后才返回
// 风景图失败时 ImageURL 为空
func (s *WorldService) Create(ctx context.Context, userKey string, req *CreateWorldRequest) (*model.World, error) {
	ws, err := openWorkspace(s.registry, userKey)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	description := strings.TrimSpace(req.Description)
	genre := model.Genre(strings.TrimSpace(string(req.Genre)))
	if genre == "" {
		genre = model.DefaultGenre()
	}

	info, err := validateWorld(name, description, genre)
	if err != nil {
		metrics.ValidationFailed("world")
		s.notifier.Error(userKey, "Ошибка", worldErrorText(err))
		return nil, err
	}

	s.notifier.Info(userKey, "ИИ создаёт мир...", "Генерируем историю и изображение")

	var (
		seed  string
		image string
		wg    conc.WaitGroup
	)
	wg.Go(func() {
		seed = s.seeder.WorldSeed(name, description, genre)
	})
	wg.Go(func() {
		url, err := s.images.Generate(ctx, imagegen.Request{
			Kind:   imagegen.KindLandscape,
			Prompt: imagegen.LandscapePrompt(info.Name, name, description),
		})
		metrics.ImageRequest(string(imagegen.KindLandscape), err)
		if err != nil {
			s.logger.Warn("landscape generation failed", zap.Error(err))
			return
		}
		image = url
	})
	wg.Wait()

	world := &model.World{
		ID:          s.ids.Next(),
		Name:        name,
		Description: description,
		Genre:       genre,
		Story:       seed,
		ImageURL:    image,
		CreatedAt:   time.Now(),
	}
	if err := ws.AddWorld(world); err != nil {
		return nil, err
	}

	metrics.WorldCreated()
	s.notifier.Success(userKey, "Мир создан!", name+" готов к исследованию")
	s.logger.Info("world created",
		zap.String("user", userKey),
		zap.String("world_id", world.ID),
		zap.String("genre", string(genre)),
		zap.Bool("has_image", image != ""),
	)
	return world, nil
}

// List 返回所有世界
func (s *WorldService) List(userKey string) ([]*model.World, error) {
	ws, err := openWorkspace(s.registry, userKey)
	if err != nil {
		return nil, err
	}
	return ws.ListWorlds(), nil
}

// Get 获取世界
func (s *WorldService) Get(userKey, id string) (*model.World, error) {
	ws, err := openWorkspace(s.registry, userKey)
	if err != nil {
		return nil, err
	}
	w, err := ws.FindWorld(id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, ErrWorldNotFound
	}
	return w, nil
}

// Genres 返回所有可选类型
func (s *WorldService) Genres() []model.GenreInfo {
	return model.Genres()
}

func validateWorld(name, description string, genre model.Genre) (model.GenreInfo, error) {
	switch {
	case name == "":
		return model.GenreInfo{}, ErrWorldNameRequired
	case description == "":
		return model.GenreInfo{}, ErrWorldDescriptionRequired
	case model.RuneLen(name) > model.WorldNameMaxLen:
		return model.GenreInfo{}, ErrWorldNameTooLong
	case model.RuneLen(description) > model.WorldDescriptionMaxLen:
		return model.GenreInfo{}, ErrWorldDescriptionTooLong
	}
	info, ok := model.LookupGenre(genre)
	if !ok {
		return model.GenreInfo{}, ErrInvalidGenre
	}
	return info, nil
}

func worldErrorText(err error) string {
	switch err {
	case ErrWorldNameTooLong:
		return "Название не может быть длиннее 50 символов"
	case ErrWorldDescriptionTooLong:
		return "Описание не может быть длиннее 500 символов"
	case ErrInvalidGenre:
		return "Выберите жанр из списка"
	default:
		return "Заполните название и описание мира"
	}
}
