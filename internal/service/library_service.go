package service

import (
	"time"

	"storyforge/internal/model"
	"storyforge/internal/repository"
)

// UnknownCharacterName 角色引用悬空时显示的名称
const UnknownCharacterName = "Неизвестный персонаж"

// LibraryService 故事库和成就
type LibraryService struct {
	registry *repository.WorkspaceRegistry
}

// NewLibraryService 创建 LibraryService 实例
func NewLibraryService(registry *repository.WorkspaceRegistry) *LibraryService {
	return &LibraryService{registry: registry}
}

// LibraryEntry 故事库中的一条记录
type LibraryEntry struct {
	StoryID         string    `json:"story_id"`
	Title           string    `json:"title"`
	CharacterID     string    `json:"character_id"`
	CharacterName   string    `json:"character_name"`
	CharacterAvatar string    `json:"character_avatar,omitempty"`
	CharacterFound  bool      `json:"character_found"`
	MessageCount    int       `json:"message_count"`
	LastMessage     string    `json:"last_message,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Achievement 成就
type Achievement struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Progress    int    `json:"progress"`
	Goal        int    `json:"goal"`
	Unlocked    bool   `json:"unlocked"`
}

// Stats 工作区统计
type Stats struct {
	Characters       int `json:"characters"`
	Worlds           int `json:"worlds"`
	Stories          int `json:"stories"`
	UserMessages     int `json:"user_messages"`
	CompletedStories int `json:"completed_stories"` // 至少有一条主持人回复的故事
}

// Library 故事库视图
type Library struct {
	Stories      []LibraryEntry `json:"stories"`
	Achievements []Achievement  `json:"achievements"`
	Stats        Stats          `json:"stats"`
}

type achievementRule struct {
	id          int
	name        string
	description string
	icon        string
	goal        int
	progress    func(Stats) int
}

var achievementRules = []achievementRule{
	{1, "Первые шаги", "Создайте первого персонажа", "🎯", 1, func(s Stats) int { return s.Characters }},
	{2, "Рассказчик", "Отправьте 100 сообщений", "📖", 100, func(s Stats) int { return s.UserMessages }},
	{3, "Создатель миров", "Создайте 5 персонажей", "🌍", 5, func(s Stats) int { return s.Characters }},
	{4, "Мастер историй", "Завершите 10 историй", "⭐", 10, func(s Stats) int { return s.CompletedStories }},
}

// Get 返回用户的故事库
// 故事按创建时间倒序，角色已删除的故事显示为未知角色
func (s *LibraryService) Get(userKey string) (*Library, error) {
	ws, err := openWorkspace(s.registry, userKey)
	if err != nil {
		return nil, err
	}

	stories := ws.ListStories()
	stats := Stats{
		Characters: len(ws.ListCharacters()),
		Worlds:     len(ws.ListWorlds()),
		Stories:    len(stories),
	}

	entries := make([]LibraryEntry, 0, len(stories))
	for i := len(stories) - 1; i >= 0; i-- {
		story := stories[i]
		entry := LibraryEntry{
			StoryID:       story.ID,
			Title:         story.Title,
			CharacterID:   story.CharacterID,
			CharacterName: UnknownCharacterName,
			MessageCount:  len(story.Messages),
			CreatedAt:     story.CreatedAt,
		}
		if c, _ := ws.FindCharacter(story.CharacterID); c != nil {
			entry.CharacterName = c.Name
			entry.CharacterAvatar = c.Avatar
			entry.CharacterFound = true
		}
		if n := len(story.Messages); n > 0 {
			entry.LastMessage = story.Messages[n-1].Content
		}
		entries = append(entries, entry)

		stats.UserMessages += story.Count(model.MessageRoleUser)
		if story.Count(model.MessageRoleAssistant) > 0 {
			stats.CompletedStories++
		}
	}

	return &Library{
		Stories:      entries,
		Achievements: Achievements(stats),
		Stats:        stats,
	}, nil
}

// Achievements 根据统计计算成就
func Achievements(stats Stats) []Achievement {
	out := make([]Achievement, 0, len(achievementRules))
	for _, r := range achievementRules {
		progress := r.progress(stats)
		if progress > r.goal {
			progress = r.goal
		}
		out = append(out, Achievement{
			ID:          r.id,
			Name:        r.name,
			Description: r.description,
			Icon:        r.icon,
			Progress:    progress,
			Goal:        r.goal,
			Unlocked:    progress >= r.goal,
		})
	}
	return out
}
