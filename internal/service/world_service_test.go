package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storyforge/internal/imagegen"
	"storyforge/internal/model"
	"storyforge/internal/notify"
	"storyforge/pkg/util"
)

func TestCreateWorldRejectsBlankInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, req := range []CreateWorldRequest{
		{Name: "", Description: "острова"},
		{Name: "  ", Description: "острова"},
		{Name: "Аркадия", Description: ""},
		{Name: "Аркадия", Description: "\t"},
	} {
		w, err := env.worlds.Create(ctx, testUser, &req)
		assert.Error(t, err)
		assert.Nil(t, w)
	}

	list, _ := env.worlds.List(testUser)
	assert.Empty(t, list)
	assert.Empty(t, env.images.Calls())

	notes, _ := env.center.List(testUser)
	require.NotEmpty(t, notes)
	assert.Equal(t, "Заполните название и описание мира", notes[0].Description)
}

func TestCreateWorldDefaultsGenre(t *testing.T) {
	env := newTestEnv(t)

	w, err := env.worlds.Create(context.Background(), testUser, &CreateWorldRequest{
		Name:        "Аркадия",
		Description: "Летающие острова дрейфуют над океаном.",
	})
	require.NoError(t, err)

	assert.Equal(t, model.GenreFantasy, w.Genre)
	assert.Equal(t, model.Genres()[0].ID, w.Genre)
	assert.Contains(t, w.Story, "Аркадия")
	assert.Equal(t, "https://img.test/landscape.jpg", w.ImageURL)

	calls := env.images.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, imagegen.KindLandscape, calls[0].Kind)
	assert.Contains(t, calls[0].Prompt, "Epic Фэнтези world landscape: Аркадия.")
}

func TestCreateWorldValidatesGenreAndLength(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.worlds.Create(ctx, testUser, &CreateWorldRequest{Name: "A", Description: "B", Genre: "western"})
	assert.ErrorIs(t, err, ErrInvalidGenre)

	_, err = env.worlds.Create(ctx, testUser, &CreateWorldRequest{Name: strings.Repeat("м", 51), Description: "B"})
	assert.ErrorIs(t, err, ErrWorldNameTooLong)

	w, err := env.worlds.Create(ctx, testUser, &CreateWorldRequest{Name: "A", Description: "B", Genre: model.GenreHorror})
	require.NoError(t, err)
	assert.Equal(t, model.GenreHorror, w.Genre)
}

func TestCreateWorldImageFailureLeavesEmptyReference(t *testing.T) {
	env := newTestEnv(t, withImages(failingImages()))

	w, err := env.worlds.Create(context.Background(), testUser, &CreateWorldRequest{
		Name: "Аркадия", Description: "острова",
	})
	require.NoError(t, err)
	assert.Empty(t, w.ImageURL)
	assert.NotEmpty(t, w.Story)

	notes, _ := env.center.List(testUser)
	last := notes[len(notes)-1]
	assert.Equal(t, notify.SeveritySuccess, last.Severity)
	assert.Equal(t, "Аркадия готов к исследованию", last.Description)
}

// blockingSeeder 等待图片请求开始后才返回，顺序执行会死锁
type blockingSeeder struct {
	imageStarted chan struct{}
}

func (b *blockingSeeder) WorldSeed(name, _ string, _ model.Genre) string {
	<-b.imageStarted
	return "seed for " + name
}

func TestCreateWorldRunsGenerationConcurrently(t *testing.T) {
	env := newTestEnv(t)
	seeder := &blockingSeeder{imageStarted: make(chan struct{})}
	seedDone := make(chan struct{})

	images := &fakeImages{fn: func(ctx context.Context, req imagegen.Request) (string, error) {
		close(seeder.imageStarted)
		select {
		case <-seedDone:
		case <-time.After(100 * time.Millisecond):
		}
		return "https://img.test/w.jpg", nil
	}}
	svc := NewWorldService(env.registry, images, seeder, env.center, util.NewIDGenerator(), zap.NewNop())

	type result struct {
		w   *model.World
		err error
	}
	done := make(chan result, 1)
	go func() {
		w, err := svc.Create(context.Background(), testUser, &CreateWorldRequest{Name: "Норд", Description: "снег"})
		done <- result{w, err}
	}()

	select {
	case r := <-done:
		close(seedDone)
		require.NoError(t, r.err)
		assert.Equal(t, "seed for Норд", r.w.Story)
		assert.Equal(t, "https://img.test/w.jpg", r.w.ImageURL)
	case <-time.After(3 * time.Second):
		t.Fatal("world creation did not run generation calls concurrently")
	}
}

func TestGenresOrder(t *testing.T) {
	env := newTestEnv(t)
	genres := env.worlds.Genres()
	require.Len(t, genres, 6)
	assert.Equal(t, model.GenreFantasy, genres[0].ID)
	assert.Equal(t, model.GenreAdventure, genres[5].ID)
}

func TestGetWorld(t *testing.T) {
	env := newTestEnv(t)
	w, err := env.worlds.Create(context.Background(), testUser, &CreateWorldRequest{Name: "A", Description: "B"})
	require.NoError(t, err)

	got, err := env.worlds.Get(testUser, w.ID)
	require.NoError(t, err)
	assert.Equal(t, w, got)

	_, err = env.worlds.Get(testUser, "missing")
	assert.ErrorIs(t, err, ErrWorldNotFound)
}
