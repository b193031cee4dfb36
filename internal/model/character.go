// Package model 定义了 StoryForge 的实体数据结构
// 所有实体都是纯数据，只保存在内存工作区中
package model

import (
	"time"
	"unicode/utf8"
)

// 角色字段长度限制（按字符计，而不是字节）
const (
	CharacterNameMaxLen        = 30
	CharacterDescriptionMaxLen = 500
)

// AvatarGlyphs 可选的角色头像
// 第一个是默认头像
var AvatarGlyphs = []string{"🧙", "🧝", "🧛", "🧚", "🦸", "🦹", "👑", "⚔️", "🛡️", "🏹"}

// Character 角色模型
// 由角色创建器生成，创建后只能删除，不能修改
type Character struct {
	// ID 角色唯一标识，生成时的毫秒时间戳
	ID string `json:"id"`

	// Name 角色名称，1~30 个字符
	Name string `json:"name"`

	// Description 角色描述，1~500 个字符
	Description string `json:"description"`

	// Avatar 头像字符，取自 AvatarGlyphs
	Avatar string `json:"avatar"`

	// ImageURL 肖像图片地址
	// 生成失败时为占位图地址，关闭肖像生成时为空
	ImageURL string `json:"image_url,omitempty"`

	// CreatedAt 创建时间
	CreatedAt time.Time `json:"created_at"`
}

// DefaultAvatar 返回默认头像
func DefaultAvatar() string {
	return AvatarGlyphs[0]
}

// IsAvatar 判断字符是否属于可选头像
func IsAvatar(glyph string) bool {
	for _, g := range AvatarGlyphs {
		if g == glyph {
			return true
		}
	}
	return false
}

// RuneLen 返回字符串的字符数
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}
