package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:8080/ws?token=a%2Bb", BuildURL("http://localhost:8080/", "a+b"))
	assert.Equal(t, "wss://story.test/ws?token=t", BuildURL("https://story.test", "t"))
}

// echoServer 把收到的 user:message 作为 story:message 发回
func echoServer(t *testing.T) (*httptest.Server, *string) {
	t.Helper()
	var token string
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = r.URL.Query().Get("token")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var msg Message
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			msg.Type = TypeStoryMessage
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &token
}

func TestSendAndReceive(t *testing.T) {
	srv, token := echoServer(t)

	var mu sync.Mutex
	var got []*Message
	c := NewClient(srv.URL, "secret", nil)
	c.OnMessage(func(m *Message) {
		mu.Lock()
		got = append(got, m)
		mu.Unlock()
	})
	require.NoError(t, c.Connect())
	defer c.Disconnect()
	assert.True(t, c.IsRunning())

	require.NoError(t, c.SendUserMessage("hello"))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	msg := got[0]
	mu.Unlock()
	assert.Equal(t, TypeStoryMessage, msg.Type)
	assert.NotEmpty(t, msg.MessageID)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, "hello", payload["content"])
	assert.Equal(t, "secret", *token)
}

func TestDisconnectIsIdempotent(t *testing.T) {
	srv, _ := echoServer(t)

	closed := 0
	c := NewClient(srv.URL, "t", nil)
	c.OnClose(func() { closed++ })
	require.NoError(t, c.Connect())

	c.Disconnect()
	c.Disconnect()
	assert.False(t, c.IsRunning())
	assert.Equal(t, 1, closed)
	assert.ErrorIs(t, c.SendUserMessage("late"), ErrClosed)
}

func TestConnectRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "bad", nil).Connect()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
