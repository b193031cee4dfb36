package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyforge/internal/model"
	"storyforge/pkg/util"
)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func TestSettingsDefaults(t *testing.T) {
	env := newTestEnv(t)

	got, err := env.settings.Get(testUser)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSettings(), got)
	assert.True(t, env.settings.NotificationsEnabled(testUser))
}

func TestSettingsPartialUpdate(t *testing.T) {
	env := newTestEnv(t)

	got, err := env.settings.Update(testUser, &UpdateSettingsRequest{
		Model:         strPtr(model.AIModels[1]),
		Creativity:    floatPtr(0.3),
		Notifications: util.BoolPtr(false),
	})
	require.NoError(t, err)

	want := model.DefaultSettings()
	want.Model = model.AIModels[1]
	want.Creativity = 0.3
	want.Notifications = false
	assert.Equal(t, want, got)

	stored, _ := env.settings.Get(testUser)
	assert.Equal(t, want, stored)
	assert.False(t, env.settings.NotificationsEnabled(testUser))
}

func TestSettingsRejectsInvalidValues(t *testing.T) {
	cases := map[string]*UpdateSettingsRequest{
		"unknown model":        {Model: strPtr("gpt-2")},
		"creativity too high":  {Creativity: floatPtr(1.1)},
		"creativity negative":  {Creativity: floatPtr(-0.1)},
		"creativity off step":  {Creativity: floatPtr(0.25)},
		"unknown length":       {ResponseLength: strPtr("epic")},
		"unknown image source": {ImageProvider: strPtr("crayons")},
	}

	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t)

			// 合法字段与非法字段一起提交时整体拒绝
			req.Sounds = util.BoolPtr(true)
			_, err := env.settings.Update(testUser, req)
			assert.ErrorIs(t, err, ErrInvalidSetting)

			stored, _ := env.settings.Get(testUser)
			assert.Equal(t, model.DefaultSettings(), stored)
		})
	}
}

func TestNotificationsEnabledWithoutWorkspace(t *testing.T) {
	env := newTestEnv(t)
	assert.True(t, env.settings.NotificationsEnabled("ghost@example.com"))

	_, err := env.settings.Get("ghost@example.com")
	assert.ErrorIs(t, err, ErrWorkspaceNotFound)
}
