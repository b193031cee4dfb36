package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"storyforge/internal/imagegen"
	"storyforge/internal/model"
	"storyforge/internal/narrative"
	"storyforge/internal/notify"
	"storyforge/internal/repository"
	"storyforge/pkg/util"
)

const testUser = "zara@example.com"

const testPlaceholder = "https://placehold.co/512x512/1a1a2e/e0e0ff"

var errImageDown = errors.New("image service down")

// fakeImages 可编程的图片生成能力
type fakeImages struct {
	mu    sync.Mutex
	fn    func(ctx context.Context, req imagegen.Request) (string, error)
	calls []imagegen.Request
}

func (f *fakeImages) Generate(ctx context.Context, req imagegen.Request) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	fn := f.fn
	f.mu.Unlock()
	if fn == nil {
		return "https://img.test/" + string(req.Kind) + ".jpg", nil
	}
	return fn(ctx, req)
}

func (f *fakeImages) Calls() []imagegen.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]imagegen.Request(nil), f.calls...)
}

func failingImages() *fakeImages {
	return &fakeImages{fn: func(context.Context, imagegen.Request) (string, error) {
		return "", errImageDown
	}}
}

// recordingEvents 记录推送的实时事件
type recordingEvents struct {
	mu       sync.Mutex
	appended []model.Message
	dropped  []string
}

func (r *recordingEvents) MessageAppended(_, _ string, msg model.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appended = append(r.appended, msg)
}

func (r *recordingEvents) ReplyScheduled(string, *repository.PendingReply) {}

func (r *recordingEvents) ReplyDropped(_ string, _ *repository.PendingReply, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropped = append(r.dropped, reason)
}

func (r *recordingEvents) Dropped() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.dropped...)
}

func (r *recordingEvents) Appended() []model.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Message(nil), r.appended...)
}

type replyFunc func(ctx context.Context, req narrative.ReplyRequest) (string, error)

func (f replyFunc) Reply(ctx context.Context, req narrative.ReplyRequest) (string, error) {
	return f(ctx, req)
}

// testEnv 一组共享工作区的服务
type testEnv struct {
	registry   *repository.WorkspaceRegistry
	center     *notify.Center
	images     *fakeImages
	events     *recordingEvents
	characters *CharacterService
	worlds     *WorldService
	sessions   *SessionService
	library    *LibraryService
	settings   *SettingsService
}

type envOption func(*envConfig)

type envConfig struct {
	images      *fakeImages
	replies     narrative.ReplyGenerator
	delay       time.Duration
	sceneImages bool
}

func withImages(f *fakeImages) envOption {
	return func(c *envConfig) { c.images = f }
}

func withReplies(g narrative.ReplyGenerator) envOption {
	return func(c *envConfig) { c.replies = g }
}

func withDelay(d time.Duration) envOption {
	return func(c *envConfig) { c.delay = d }
}

func withSceneImages() envOption {
	return func(c *envConfig) { c.sceneImages = true }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	cfg := envConfig{
		images:  &fakeImages{},
		replies: narrative.NewTemplateReply(""),
		delay:   20 * time.Millisecond,
	}
	for _, o := range opts {
		o(&cfg)
	}

	logger := zap.NewNop()
	registry := repository.NewWorkspaceRegistry()
	registry.Open(model.User{Email: testUser, Name: "zara", Provider: model.ProviderEmail})

	center := notify.NewCenter(50, logger)
	ids := util.NewIDGenerator()
	templates := narrative.NewTemplates(func(int) int { return 0 })
	events := &recordingEvents{}

	sessions := NewSessionService(registry, cfg.replies, cfg.images, events, ids,
		SessionOptions{ReplyDelay: cfg.delay, SceneImages: cfg.sceneImages}, logger)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = sessions.Shutdown(ctx)
	})

	return &testEnv{
		registry:   registry,
		center:     center,
		images:     cfg.images,
		events:     events,
		characters: NewCharacterService(registry, cfg.images, templates, center, ids, testPlaceholder, logger),
		worlds:     NewWorldService(registry, cfg.images, templates, center, ids, logger),
		sessions:   sessions,
		library:    NewLibraryService(registry),
		settings:   NewSettingsService(registry),
	}
}

func (e *testEnv) workspace(t *testing.T) *repository.Workspace {
	t.Helper()
	ws, ok := e.registry.Get(testUser)
	if !ok {
		t.Fatal("workspace missing")
	}
	return ws
}

func (e *testEnv) mustCharacter(t *testing.T, name string) *model.Character {
	t.Helper()
	c, err := e.characters.Create(context.Background(), testUser, &CreateCharacterRequest{
		Name:             name,
		Description:      "Следопыт северных лесов",
		GeneratePortrait: util.BoolPtr(false),
	})
	if err != nil {
		t.Fatalf("create character: %v", err)
	}
	return c
}

func (e *testEnv) storyMessages(t *testing.T, storyID string) []model.Message {
	t.Helper()
	story, err := e.workspace(t).FindStory(storyID)
	if err != nil || story == nil {
		t.Fatalf("story %s missing: %v", storyID, err)
	}
	return story.Messages
}
