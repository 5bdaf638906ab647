package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".yaml"), []byte(body), 0644))
}

func TestReadConfig_Chat(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TEST_MONGO_PASSWORD", "s3cret")
	writeYAML(t, dir, "chat_service", `
port: "8081"
gateway:
  identity_mode: shared
  require_auth: false
mongo:
  host: mongo
  port: 27017
  password: ${TEST_MONGO_PASSWORD}
courses:
  - id: mathematik
    name: Mathematik
    lecturer: Prof. Dr. Weber
`)

	cfg, err := ReadConfig[Chat]("chat_service", dir, ChatDefaults)
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, "shared", cfg.Gateway.IdentityMode)
	assert.False(t, cfg.Gateway.RequireAuth)
	assert.True(t, cfg.Gateway.PersistPreferences, "default applies")
	assert.Equal(t, "mathematik", cfg.Gateway.DefaultCourse)
	assert.Equal(t, "s3cret", cfg.MongoSQL.Password)
	assert.Equal(t, "chat_app", cfg.MongoSQL.Database)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	require.Len(t, cfg.Courses, 1)
	assert.Equal(t, "Prof. Dr. Weber", cfg.Courses[0].Lecturer)
}

func TestReadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := ReadConfig[ChatClient]("chat_client", t.TempDir(), ChatClientDefaults)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000", cfg.ServerURL)
	assert.Equal(t, 5*time.Second, cfg.RefreshInterval)
	assert.Equal(t, 5, cfg.BottomThreshold)
	assert.True(t, cfg.ReloadAfterEdit)
}

func TestReadConfig_BrokenYAML(t *testing.T) {
	dir := t.TempDir()
	writeYAML(t, dir, "chat_service", "port: [unterminated")

	_, err := ReadConfig[Chat]("chat_service", dir, ChatDefaults)
	assert.Error(t, err)
}

func TestGetPath(t *testing.T) {
	_, err := GetPath("definitely-not-here.txt", 2)
	assert.Error(t, err)
}
