package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitAtWritesDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, InitAt(dir))

	assert.Equal(t, DefaultServerURL, GetServerURL())
	assert.False(t, IsLoggedIn())

	_, err := os.Stat(filepath.Join(dir, "config.yaml"))
	assert.NoError(t, err)
}

func TestSaveAuthPersists(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, InitAt(dir))
	require.NoError(t, SaveAuth("tok", "zara", "zara@example.com"))

	assert.True(t, IsLoggedIn())
	assert.Equal(t, "zara", GetUserName())

	raw := viper.New()
	raw.SetConfigFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, raw.ReadInConfig())
	assert.Equal(t, "tok", raw.GetString("auth.access_token"))

	// 重新加载后仍然保持登录
	require.NoError(t, InitAt(dir))
	assert.Equal(t, "tok", GetAccessToken())

	require.NoError(t, ClearToken())
	assert.False(t, IsLoggedIn())
	assert.Empty(t, GetUserName())
}

func TestServerURLFromEnv(t *testing.T) {
	t.Setenv("STORYFORGE_SERVER_URL", "http://story.test:9000")
	require.NoError(t, InitAt(t.TempDir()))
	assert.Equal(t, "http://story.test:9000", GetServerURL())

	SetServerURL("http://other.test/")
	assert.Equal(t, "http://other.test", GetServerURL())
}
