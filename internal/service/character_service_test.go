package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyforge/internal/imagegen"
	"storyforge/internal/model"
	"storyforge/internal/notify"
	"storyforge/pkg/util"
)

func TestCreateCharacterRejectsBlankInput(t *testing.T) {
	cases := []struct {
		name        string
		charName    string
		description string
		want        error
	}{
		{"empty name", "", "ranger", ErrCharacterNameRequired},
		{"whitespace name", "   \t", "ranger", ErrCharacterNameRequired},
		{"empty description", "Zara", "", ErrCharacterDescriptionRequired},
		{"whitespace description", "Zara", " \n ", ErrCharacterDescriptionRequired},
		{"both empty", " ", " ", ErrCharacterNameRequired},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)

			c, err := env.characters.Create(context.Background(), testUser, &CreateCharacterRequest{
				Name:        tc.charName,
				Description: tc.description,
			})
			assert.ErrorIs(t, err, tc.want)
			assert.Nil(t, c)

			list, _ := env.characters.List(testUser)
			assert.Empty(t, list)
			assert.Empty(t, env.images.Calls())

			notes, _ := env.center.List(testUser)
			require.Len(t, notes, 1)
			assert.Equal(t, notify.SeverityError, notes[0].Severity)
		})
	}
}

func TestCreateCharacterRejectsOverLongInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.characters.Create(ctx, testUser, &CreateCharacterRequest{
		Name:        strings.Repeat("я", 31),
		Description: "ok",
	})
	assert.ErrorIs(t, err, ErrCharacterNameTooLong)

	_, err = env.characters.Create(ctx, testUser, &CreateCharacterRequest{
		Name:        "Zara",
		Description: strings.Repeat("d", 501),
	})
	assert.ErrorIs(t, err, ErrCharacterDescriptionTooLong)

	// 30 个字符（而不是字节）刚好允许
	c, err := env.characters.Create(ctx, testUser, &CreateCharacterRequest{
		Name:             strings.Repeat("я", 30),
		Description:      "ok",
		GeneratePortrait: util.BoolPtr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, 30, len([]rune(c.Name)))
}

func TestCreateCharacterRejectsUnknownAvatar(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.characters.Create(context.Background(), testUser, &CreateCharacterRequest{
		Name: "Zara", Description: "ranger", Avatar: "🐙",
	})
	assert.ErrorIs(t, err, ErrInvalidAvatar)
}

func TestCreateCharacterWithPortrait(t *testing.T) {
	env := newTestEnv(t)

	c, err := env.characters.Create(context.Background(), testUser, &CreateCharacterRequest{
		Name:        "  Zara ",
		Description: " Следопыт ",
		Avatar:      model.AvatarGlyphs[3],
	})
	require.NoError(t, err)

	assert.Equal(t, "Zara", c.Name)
	assert.Equal(t, "Следопыт", c.Description)
	assert.Equal(t, model.AvatarGlyphs[3], c.Avatar)
	assert.Equal(t, "https://img.test/portrait.jpg", c.ImageURL)

	calls := env.images.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, imagegen.KindPortrait, calls[0].Kind)
	assert.Contains(t, calls[0].Prompt, "Zara. Следопыт.")

	notes, unread := env.center.List(testUser)
	require.Len(t, notes, 2)
	assert.Equal(t, 2, unread)
	assert.Equal(t, notify.SeverityInfo, notes[0].Severity)
	assert.Equal(t, notify.SeveritySuccess, notes[1].Severity)
	assert.Equal(t, "Zara готов к приключениям", notes[1].Description)
}

func TestCreateCharacterDefaultsAvatar(t *testing.T) {
	env := newTestEnv(t)
	c := env.mustCharacter(t, "Zara")
	assert.Equal(t, model.DefaultAvatar(), c.Avatar)
	assert.Empty(t, c.ImageURL)
}

func TestCreateCharacterImageFailureUsesPlaceholder(t *testing.T) {
	env := newTestEnv(t, withImages(failingImages()))

	c, err := env.characters.Create(context.Background(), testUser, &CreateCharacterRequest{
		Name:        "Zara",
		Description: "ranger",
	})
	require.NoError(t, err)
	assert.Equal(t, testPlaceholder+"?text=Z", c.ImageURL)

	list, _ := env.characters.List(testUser)
	require.Len(t, list, 1)

	notes, _ := env.center.List(testUser)
	for _, n := range notes {
		assert.NotEqual(t, notify.SeverityError, n.Severity)
	}
}

func TestRapidCreatesHaveUniqueIDs(t *testing.T) {
	env := newTestEnv(t)
	const n = 40

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.characters.Create(context.Background(), testUser, &CreateCharacterRequest{
				Name: "Zara", Description: "ranger", GeneratePortrait: util.BoolPtr(false),
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	list, err := env.characters.List(testUser)
	require.NoError(t, err)
	require.Len(t, list, n)

	seen := make(map[string]bool)
	for _, c := range list {
		assert.False(t, seen[c.ID], "duplicate id %s", c.ID)
		seen[c.ID] = true
	}
}

func TestDeleteCharacterLeavesStoryDangling(t *testing.T) {
	env := newTestEnv(t)
	c := env.mustCharacter(t, "Zara")

	view, err := env.sessions.StartSession(context.Background(), testUser, c.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Character)

	require.NoError(t, env.characters.Delete(testUser, c.ID))

	_, err = env.characters.Get(testUser, c.ID)
	assert.ErrorIs(t, err, ErrCharacterNotFound)

	story, err := env.sessions.GetStory(testUser, view.Story.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, story.Story.CharacterID)
	assert.Nil(t, story.Character)

	assert.ErrorIs(t, env.characters.Delete(testUser, c.ID), ErrCharacterNotFound)
}

func TestSuggestDescription(t *testing.T) {
	env := newTestEnv(t)

	desc, err := env.characters.SuggestDescription("  Zara ")
	require.NoError(t, err)
	assert.Contains(t, desc, "Zara")

	_, err = env.characters.SuggestDescription(" ")
	assert.ErrorIs(t, err, ErrCharacterNameRequired)
}

func TestCharacterServiceWithoutWorkspace(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.characters.Create(context.Background(), "ghost@example.com", &CreateCharacterRequest{Name: "a", Description: "b"})
	assert.ErrorIs(t, err, ErrWorkspaceNotFound)
}
