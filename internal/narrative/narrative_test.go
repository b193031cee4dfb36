package narrative

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyforge/internal/model"
)

func fixed(i int) Picker {
	return func(n int) int { return i % n }
}

func TestWorldSeedUsesAllInputs(t *testing.T) {
	tpl := NewTemplates(fixed(0))

	seed := tpl.WorldSeed("Аркадия", "Летающие острова дрейфуют над океаном.", model.GenreSciFi)
	assert.Contains(t, seed, "В мире \"Аркадия\" начинается новая эра. Летающие острова дрейфуют над океаном.")
	assert.Contains(t, seed, genreHooks[model.GenreSciFi])
}

func TestWorldSeedEveryTemplateFormats(t *testing.T) {
	for i := range worldTemplates {
		seed := NewTemplates(fixed(i)).WorldSeed("Норд", "вечная зима", model.GenreFantasy)
		assert.Contains(t, seed, "Норд")
		assert.Contains(t, seed, "вечная зима")
		assert.NotContains(t, seed, "%!")
	}
}

func TestCharacterDescription(t *testing.T) {
	for i := range characterTemplates {
		desc := NewTemplates(fixed(i)).CharacterDescription("  Zara ")
		assert.Contains(t, desc, "Zara")
		assert.NotContains(t, desc, "%!")
		assert.LessOrEqual(t, model.RuneLen(desc), model.CharacterDescriptionMaxLen)
	}
}

func TestTemplateReply(t *testing.T) {
	g := NewTemplateReply("")
	text, err := g.Reply(context.Background(), ReplyRequest{UserText: "hello"})
	require.NoError(t, err)
	assert.Equal(t, DefaultReply, text)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.Reply(ctx, ReplyRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRandomPickerInRange(t *testing.T) {
	p := RandomPicker()
	for i := 0; i < 100; i++ {
		v := p(4)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 4)
	}
}
