package shell

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStartsAtHome(t *testing.T) {
	v := New().Snapshot()
	assert.Equal(t, TabHome, v.Tab)
	assert.False(t, v.MenuOpen)
	assert.False(t, v.AuthOpen)
	assert.Zero(t, v.Unread)
	assert.False(t, v.SignedIn())
}

func TestSwitchClosesMenu(t *testing.T) {
	s := New()
	assert.True(t, s.ToggleMenu())

	require.NoError(t, s.Switch(TabLibrary))
	v := s.Snapshot()
	assert.Equal(t, TabLibrary, v.Tab)
	assert.False(t, v.MenuOpen)
}

func TestSwitchUnknownTabKeepsState(t *testing.T) {
	s := New()
	require.NoError(t, s.Switch(TabSettings))
	s.ToggleMenu()
	before := s.Snapshot()

	err := s.Switch(Tab("profile"))
	assert.ErrorIs(t, err, ErrUnknownTab)
	assert.Equal(t, before, s.Snapshot())
}

func TestSwitchToGameNeedsStory(t *testing.T) {
	s := New()
	assert.ErrorIs(t, s.Switch(TabGame), ErrNoActiveGame)
	assert.Equal(t, TabHome, s.Snapshot().Tab)

	s.StartGame("story-1")
	require.NoError(t, s.Switch(TabLibrary))
	require.NoError(t, s.Switch(TabGame))
	assert.Equal(t, TabGame, s.Snapshot().Tab)
}

func TestStartAndLeaveGame(t *testing.T) {
	s := New()
	s.ToggleMenu()
	s.StartGame("story-1")

	v := s.Snapshot()
	assert.Equal(t, TabGame, v.Tab)
	assert.Equal(t, "story-1", v.StoryID)
	assert.False(t, v.MenuOpen)

	s.LeaveGame()
	v = s.Snapshot()
	assert.Equal(t, TabHome, v.Tab)
	assert.Empty(t, v.StoryID)
}

func TestNotifyAndMarkRead(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Notify()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, s.Snapshot().Unread)

	s.MarkRead()
	assert.Zero(t, s.Snapshot().Unread)
}

func TestSignInClosesAuthModal(t *testing.T) {
	s := New()
	s.OpenAuth()
	assert.True(t, s.Snapshot().AuthOpen)

	s.SignIn("zara")
	v := s.Snapshot()
	assert.False(t, v.AuthOpen)
	assert.Equal(t, "zara", v.UserName)

	s.OpenAuth()
	s.CloseAuth()
	assert.False(t, s.Snapshot().AuthOpen)
}

func TestSignOutReturnsHome(t *testing.T) {
	s := New()
	s.SignIn("zara")
	s.StartGame("story-1")
	s.Notify()

	s.SignOut()
	v := s.Snapshot()
	assert.Equal(t, TabHome, v.Tab)
	assert.Empty(t, v.StoryID)
	assert.False(t, v.SignedIn())
	assert.Equal(t, 1, v.Unread)
}

func TestParseTab(t *testing.T) {
	tab, err := ParseTab(" Library ")
	require.NoError(t, err)
	assert.Equal(t, TabLibrary, tab)

	_, err = ParseTab("profile")
	assert.ErrorIs(t, err, ErrUnknownTab)
}

func TestHeader(t *testing.T) {
	s := New()
	assert.Equal(t, "StoryForge | [Главная] Библиотека Настройки | Войти", s.Snapshot().Header())

	s.SignIn("zara")
	s.StartGame("story-1")
	s.Notify()
	s.Notify()
	assert.Equal(t, "StoryForge | Главная [Игра] Библиотека Настройки | 🔔 2 | zara", s.Snapshot().Header())
}
