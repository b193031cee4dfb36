package model

// 可选的 AI 模型
var AIModels = []string{"claude-haiku", "claude-sonnet", "claude-opus", "gpt-4", "gpt-3.5"}

// 可选的回复长度
var ResponseLengths = []string{"short", "medium", "long"}

// 可选的图片生成器
var ImageProviders = []string{"stable-diffusion", "midjourney", "dall-e"}

// Settings 用户偏好设置
type Settings struct {
	Model          string  `json:"model"`           // 主模型
	Creativity     float64 `json:"creativity"`      // 创造性 0~1，步长 0.1
	ResponseLength string  `json:"response_length"` // 回复长度
	AutoImages     bool    `json:"auto_images"`     // 为关键事件自动生成图片
	ImageProvider  string  `json:"image_provider"`  // 图片生成器
	Notifications  bool    `json:"notifications"`   // 是否推送通知
	Sounds         bool    `json:"sounds"`          // 音效
	Animations     bool    `json:"animations"`      // 动画
}

// DefaultSettings 返回默认设置
func DefaultSettings() Settings {
	return Settings{
		Model:          "claude-sonnet",
		Creativity:     0.7,
		ResponseLength: "medium",
		AutoImages:     true,
		ImageProvider:  "stable-diffusion",
		Notifications:  true,
		Sounds:         false,
		Animations:     true,
	}
}

// Contains 判断选项列表是否包含 v
func Contains(options []string, v string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}
