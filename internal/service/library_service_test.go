package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyforge/internal/model"
)

func TestLibraryEmpty(t *testing.T) {
	env := newTestEnv(t)

	lib, err := env.library.Get(testUser)
	require.NoError(t, err)

	assert.Empty(t, lib.Stories)
	assert.Equal(t, Stats{}, lib.Stats)
	require.Len(t, lib.Achievements, 4)
	for _, a := range lib.Achievements {
		assert.False(t, a.Unlocked)
		assert.Zero(t, a.Progress)
	}
}

func TestLibraryListsNewestFirstAndHandlesDanglingCharacter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	zara := env.mustCharacter(t, "Zara")
	first, err := env.sessions.StartSession(ctx, testUser, zara.ID)
	require.NoError(t, err)
	_, err = env.sessions.SendMessage(ctx, testUser, "hello")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return len(env.storyMessages(t, first.Story.ID)) == 2
	}, 3*time.Second, 10*time.Millisecond)

	kai := env.mustCharacter(t, "Kai")
	second, err := env.sessions.StartSession(ctx, testUser, kai.ID)
	require.NoError(t, err)

	require.NoError(t, env.characters.Delete(testUser, zara.ID))

	lib, err := env.library.Get(testUser)
	require.NoError(t, err)
	require.Len(t, lib.Stories, 2)

	assert.Equal(t, second.Story.ID, lib.Stories[0].StoryID)
	assert.Equal(t, "Kai", lib.Stories[0].CharacterName)
	assert.True(t, lib.Stories[0].CharacterFound)
	assert.Zero(t, lib.Stories[0].MessageCount)

	assert.Equal(t, first.Story.ID, lib.Stories[1].StoryID)
	assert.Equal(t, UnknownCharacterName, lib.Stories[1].CharacterName)
	assert.False(t, lib.Stories[1].CharacterFound)
	assert.Equal(t, 2, lib.Stories[1].MessageCount)
	assert.NotEmpty(t, lib.Stories[1].LastMessage)

	assert.Equal(t, Stats{Characters: 1, Stories: 2, UserMessages: 1, CompletedStories: 1}, lib.Stats)
	assert.True(t, lib.Achievements[0].Unlocked)
}

func TestAchievements(t *testing.T) {
	got := Achievements(Stats{Characters: 7, UserMessages: 42, CompletedStories: 10})
	require.Len(t, got, 4)

	byName := make(map[string]Achievement)
	for _, a := range got {
		byName[a.Name] = a
	}

	assert.True(t, byName["Первые шаги"].Unlocked)
	assert.Equal(t, 1, byName["Первые шаги"].Progress)

	assert.False(t, byName["Рассказчик"].Unlocked)
	assert.Equal(t, 42, byName["Рассказчик"].Progress)
	assert.Equal(t, 100, byName["Рассказчик"].Goal)

	assert.True(t, byName["Создатель миров"].Unlocked)
	assert.Equal(t, 5, byName["Создатель миров"].Progress)

	assert.True(t, byName["Мастер историй"].Unlocked)
}

func TestLibraryCountsOnlyStoriesWithReplies(t *testing.T) {
	env := newTestEnv(t)
	ws := env.workspace(t)

	require.NoError(t, ws.AddStory(&model.Story{ID: "s1", CharacterID: "x", Messages: []model.Message{
		{Role: model.MessageRoleUser, Content: "a"},
		{Role: model.MessageRoleUser, Content: "b"},
	}}))
	require.NoError(t, ws.AddStory(&model.Story{ID: "s2", CharacterID: "x", Messages: []model.Message{
		{Role: model.MessageRoleUser, Content: "a"},
		{Role: model.MessageRoleAssistant, Content: "b"},
	}}))

	lib, err := env.library.Get(testUser)
	require.NoError(t, err)
	assert.Equal(t, 3, lib.Stats.UserMessages)
	assert.Equal(t, 1, lib.Stats.CompletedStories)
}
