package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storyforge/internal/cache"
	"storyforge/internal/model"
	"storyforge/internal/notify"
	"storyforge/internal/repository"
	"storyforge/internal/service"
	pkgJwt "storyforge/pkg/jwt"
	"storyforge/pkg/response"
)

const testUser = "zara@example.com"

type fakeSender struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (f *fakeSender) SendMessage(_ context.Context, userKey, text string) (*service.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, userKey+":"+text)
	if f.err != nil {
		return nil, f.err
	}
	return &service.SendResult{}, nil
}

func (f *fakeSender) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeSender) Texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

type wsEnv struct {
	hub    *Hub
	sender *fakeSender
	jwt    *pkgJwt.JWTService
	cache  *cache.MemoryCache
	server *httptest.Server
}

func newWSEnv(t *testing.T) *wsEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sender := &fakeSender{}
	hub := NewHub(sender, zap.NewNop())
	go hub.Run()

	jwtService := pkgJwt.NewJWTService("test-secret", time.Hour)
	memCache := cache.NewMemoryCache()

	router := gin.New()
	NewHandler(hub, jwtService, memCache, zap.NewNop()).RegisterRoutes(router)
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		hub.Shutdown()
		server.Close()
	})

	return &wsEnv{hub: hub, sender: sender, jwt: jwtService, cache: memCache, server: server}
}

func (e *wsEnv) token(t *testing.T) string {
	t.Helper()
	token, _, err := e.jwt.GenerateAccessToken(testUser, "zara", model.ProviderEmail)
	require.NoError(t, err)
	return token
}

func (e *wsEnv) url(token string) string {
	return "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws?token=" + token
}

func (e *wsEnv) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(e.url(e.token(t)), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool {
		return e.hub.ConnectionCount(testUser) == 1
	}, 2*time.Second, 5*time.Millisecond)
	return conn
}

type frame struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
	MessageID string          `json:"message_id"`
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestHandshakeRequiresValidToken(t *testing.T) {
	env := newWSEnv(t)

	_, resp, err := websocket.DefaultDialer.Dial(env.url(""), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(env.url("garbage"), nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token := env.token(t)
	require.NoError(t, env.cache.BlacklistToken(context.Background(), pkgJwt.HashToken(token), time.Now().Add(time.Hour)))
	_, resp, err = websocket.DefaultDialer.Dial(env.url(token), nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHeartbeatGetsPong(t *testing.T) {
	env := newWSEnv(t)
	conn := env.dial(t)

	require.NoError(t, conn.WriteJSON(Message{Type: TypeHeartbeat, MessageID: "hb-1"}))

	f := readFrame(t, conn)
	assert.Equal(t, TypePong, f.Type)
	assert.Equal(t, "hb-1", f.MessageID)
	assert.NotZero(t, f.Timestamp)
}

func TestUserMessageIsForwarded(t *testing.T) {
	env := newWSEnv(t)
	conn := env.dial(t)

	require.NoError(t, conn.WriteJSON(NewMessage(TypeUserMessage, &UserMessagePayload{Content: "hello"})))

	require.Eventually(t, func() bool {
		return len(env.sender.Texts()) == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{testUser + ":hello"}, env.sender.Texts())
}

func TestUserMessageErrorFrame(t *testing.T) {
	env := newWSEnv(t)
	env.sender.fail(service.ErrNoActiveSession)
	conn := env.dial(t)

	require.NoError(t, conn.WriteJSON(NewMessageWithID(TypeUserMessage, &UserMessagePayload{Content: "hello"}, "m-1")))

	f := readFrame(t, conn)
	assert.Equal(t, TypeError, f.Type)
	assert.Equal(t, "m-1", f.MessageID)

	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(f.Payload, &payload))
	assert.Equal(t, response.CodeNoActiveSession, payload.Code)
}

func TestUnknownMessageType(t *testing.T) {
	env := newWSEnv(t)
	conn := env.dial(t)

	require.NoError(t, conn.WriteJSON(Message{Type: "terminal:input"}))

	f := readFrame(t, conn)
	assert.Equal(t, TypeError, f.Type)
}

func TestStoryEventsArePushed(t *testing.T) {
	env := newWSEnv(t)
	conn := env.dial(t)

	env.hub.MessageAppended(testUser, "s1", model.Message{ID: "m1", Role: model.MessageRoleAssistant, Content: "ответ"})

	f := readFrame(t, conn)
	require.Equal(t, TypeStoryMessage, f.Type)
	var payload StoryMessagePayload
	require.NoError(t, json.Unmarshal(f.Payload, &payload))
	assert.Equal(t, "s1", payload.StoryID)
	assert.Equal(t, "ответ", payload.Message.Content)

	p := repository.NewPendingReply("r1", "s1", 0, time.Second, nil)
	env.hub.ReplyScheduled(testUser, p)
	f = readFrame(t, conn)
	assert.Equal(t, TypeReplyPending, f.Type)

	env.hub.ReplyDropped(testUser, p, service.DropCancelled)
	f = readFrame(t, conn)
	require.Equal(t, TypeReplyDropped, f.Type)
	var dropped ReplyDroppedPayload
	require.NoError(t, json.Unmarshal(f.Payload, &dropped))
	assert.Equal(t, "r1", dropped.ReplyID)
	assert.Equal(t, service.DropCancelled, dropped.Reason)

	// 其他玩家的事件不会推送过来
	assert.Zero(t, env.hub.SendToUser("other@example.com", NewMessage(TypePong, nil)))
}

func TestNotificationSink(t *testing.T) {
	env := newWSEnv(t)
	conn := env.dial(t)

	center := notify.NewCenter(10, zap.NewNop())
	center.AddSink(env.hub)
	center.Success(testUser, "Мир создан!", "Аркадия готов к исследованию")

	f := readFrame(t, conn)
	require.Equal(t, TypeNotification, f.Type)
	var n notify.Notification
	require.NoError(t, json.Unmarshal(f.Payload, &n))
	assert.Equal(t, "Мир создан!", n.Title)
	assert.Equal(t, notify.SeveritySuccess, n.Severity)
}

func TestDisconnectUserClosesConnections(t *testing.T) {
	env := newWSEnv(t)
	conn := env.dial(t)

	env.hub.DisconnectUser(testUser)
	assert.Zero(t, env.hub.ConnectionCount(testUser))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)

	// 关闭后的推送不会阻塞或 panic
	env.hub.MessageAppended(testUser, "s1", model.Message{Content: "late"})
}
