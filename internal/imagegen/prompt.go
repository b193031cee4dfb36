package imagegen

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"
)

// PortraitPrompt 角色肖像的 prompt
func PortraitPrompt(name, description string) string {
	return fmt.Sprintf("Fantasy character portrait: %s. %s. Detailed face, expressive eyes, dramatic lighting, high quality digital art",
		name, description)
}

// LandscapePrompt 世界风景的 prompt
func LandscapePrompt(genreName, name, description string) string {
	return fmt.Sprintf("Epic %s world landscape: %s. %s. Cinematic, atmospheric, detailed environment, dramatic lighting, concept art, high quality digital art",
		genreName, name, description)
}

// ScenePrompt 游戏场景的 prompt，以回复内容为主体
func ScenePrompt(reply string) string {
	return fmt.Sprintf("Story scene illustration: %s. Atmospheric, cinematic composition, digital painting", reply)
}

// Placeholder 肖像生成失败时的占位图地址
// 以名称的第一个字符（大写）作为图片文字
func Placeholder(base, name string) string {
	text := "?"
	if r, _ := utf8.DecodeRuneInString(strings.TrimSpace(name)); r != utf8.RuneError {
		text = string(unicode.ToUpper(r))
	}
	return base + "?text=" + url.QueryEscape(text)
}
