package model

// 登录方式
const (
	ProviderEmail = "email"
	ProviderPhone = "phone"
	ProviderVK    = "vk"
)

// User 用户模型
// 由模拟登录生成，不校验唯一性，退出登录时清除
type User struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// Key 返回用户工作区的键
func (u *User) Key() string {
	return u.Email
}
