package service

import (
	"errors"
	"fmt"
	"math"

	"storyforge/internal/model"
	"storyforge/internal/repository"
)

// ErrInvalidSetting 设置值不合法
var ErrInvalidSetting = errors.New("invalid setting")

// SettingsService 用户偏好设置
type SettingsService struct {
	registry *repository.WorkspaceRegistry
}

// NewSettingsService 创建 SettingsService 实例
func NewSettingsService(registry *repository.WorkspaceRegistry) *SettingsService {
	return &SettingsService{registry: registry}
}

// UpdateSettingsRequest 部分更新，未传的字段保持不变
type UpdateSettingsRequest struct {
	Model          *string  `json:"model"`
	Creativity     *float64 `json:"creativity"`
	ResponseLength *string  `json:"response_length"`
	AutoImages     *bool    `json:"auto_images"`
	ImageProvider  *string  `json:"image_provider"`
	Notifications  *bool    `json:"notifications"`
	Sounds         *bool    `json:"sounds"`
	Animations     *bool    `json:"animations"`
}

// Get 返回当前设置
func (s *SettingsService) Get(userKey string) (model.Settings, error) {
	ws, err := openWorkspace(s.registry, userKey)
	if err != nil {
		return model.Settings{}, err
	}
	return ws.Settings(), nil
}

// Update 更新设置
// 任一字段不合法时整个更新被拒绝
func (s *SettingsService) Update(userKey string, req *UpdateSettingsRequest) (model.Settings, error) {
	ws, err := openWorkspace(s.registry, userKey)
	if err != nil {
		return model.Settings{}, err
	}
	return ws.UpdateSettings(func(st *model.Settings) error {
		return applySettings(st, req)
	})
}

// NotificationsEnabled 用户是否开启了通知
// 工作区不存在时视为开启
func (s *SettingsService) NotificationsEnabled(userKey string) bool {
	ws, ok := s.registry.Get(userKey)
	if !ok {
		return true
	}
	return ws.Settings().Notifications
}

func applySettings(st *model.Settings, req *UpdateSettingsRequest) error {
	if req.Model != nil {
		if !model.Contains(model.AIModels, *req.Model) {
			return fmt.Errorf("%w: model %q", ErrInvalidSetting, *req.Model)
		}
		st.Model = *req.Model
	}
	if req.Creativity != nil {
		c := *req.Creativity
		// 0~1，步长 0.1
		if c < 0 || c > 1 || math.Abs(c*10-math.Round(c*10)) > 1e-9 {
			return fmt.Errorf("%w: creativity %v", ErrInvalidSetting, c)
		}
		st.Creativity = math.Round(c*10) / 10
	}
	if req.ResponseLength != nil {
		if !model.Contains(model.ResponseLengths, *req.ResponseLength) {
			return fmt.Errorf("%w: response_length %q", ErrInvalidSetting, *req.ResponseLength)
		}
		st.ResponseLength = *req.ResponseLength
	}
	if req.ImageProvider != nil {
		if !model.Contains(model.ImageProviders, *req.ImageProvider) {
			return fmt.Errorf("%w: image_provider %q", ErrInvalidSetting, *req.ImageProvider)
		}
		st.ImageProvider = *req.ImageProvider
	}
	if req.AutoImages != nil {
		st.AutoImages = *req.AutoImages
	}
	if req.Notifications != nil {
		st.Notifications = *req.Notifications
	}
	if req.Sounds != nil {
		st.Sounds = *req.Sounds
	}
	if req.Animations != nil {
		st.Animations = *req.Animations
	}
	return nil
}
