package model

import "time"

// 世界字段长度限制
const (
	WorldNameMaxLen        = 50
	WorldDescriptionMaxLen = 500
)

// Genre 世界类型
type Genre string

// 可选的世界类型，顺序固定
const (
	GenreFantasy   Genre = "fantasy"
	GenreSciFi     Genre = "scifi"
	GenreHorror    Genre = "horror"
	GenreMystery   Genre = "mystery"
	GenreRomance   Genre = "romance"
	GenreAdventure Genre = "adventure"
)

// GenreInfo 类型及其显示名称
type GenreInfo struct {
	ID   Genre  `json:"id"`
	Name string `json:"name"`
}

var genres = []GenreInfo{
	{ID: GenreFantasy, Name: "Фэнтези"},
	{ID: GenreSciFi, Name: "Научная фантастика"},
	{ID: GenreHorror, Name: "Хоррор"},
	{ID: GenreMystery, Name: "Детектив"},
	{ID: GenreRomance, Name: "Романтика"},
	{ID: GenreAdventure, Name: "Приключения"},
}

// Genres 返回所有世界类型（副本）
func Genres() []GenreInfo {
	out := make([]GenreInfo, len(genres))
	copy(out, genres)
	return out
}

// DefaultGenre 返回默认类型，即列表中的第一个
func DefaultGenre() Genre {
	return genres[0].ID
}

// LookupGenre 查找类型
// 返回:
//   - GenreInfo: 类型信息
//   - bool: 是否存在
func LookupGenre(id Genre) (GenreInfo, bool) {
	for _, g := range genres {
		if g.ID == id {
			return g, true
		}
	}
	return GenreInfo{}, false
}

// World 世界模型
// 由世界创建器生成，没有修改和删除操作
type World struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Genre       Genre     `json:"genre"`
	Story       string    `json:"story"`               // 生成的开场故事
	ImageURL    string    `json:"image_url,omitempty"` // 风景图，生成失败时为空
	CreatedAt   time.Time `json:"created_at"`
}
