package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 24, cfg.JWT.ExpireHour)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowOrigins)
	assert.Equal(t, int64(50<<20), cfg.Upload.MaxFileSize())
	assert.Equal(t, 10, cfg.Upload.MaxFiles)
	assert.Equal(t, "shares", cfg.Redis.Queue)
	assert.Equal(t, 5, cfg.Redis.Concurrency)
	assert.Equal(t, 3, cfg.Redis.MaxRetry)
	assert.Same(t, cfg, GlobalConfig)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: "8080"
database:
  driver: postgres
  dsn: "host=db user=rh dbname=rh"
upload:
  thumbnail_mode: copy
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "copy", cfg.Upload.ThumbnailMode)
	// untouched sections keep defaults
	assert.Equal(t, 300, cfg.Upload.ThumbnailWidth)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "7000")
	t.Setenv("PORT", "9000")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("CLIENT_ORIGINS", "http://a.example.com, http://b.example.com,")
	t.Setenv("BASE_URL", "https://api.example.com/")
	t.Setenv("UPLOAD_DIR", "/srv/uploads")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, []string{"http://a.example.com", "http://b.example.com"}, cfg.CORS.AllowOrigins)
	assert.Equal(t, "https://api.example.com", cfg.Server.BaseURL)
	assert.Equal(t, "/srv/uploads", cfg.Upload.Dir)
}

func TestParseRedisURL(t *testing.T) {
	tests := []struct {
		url      string
		addr     string
		password string
		db       int
	}{
		{"redis://localhost:6379", "localhost:6379", "", 0},
		{"redis://:secret@cache:6380/2", "cache:6380", "secret", 2},
		{"redis://user:pw@cache:6379/0", "cache:6379", "pw", 0},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.parseRedisURL(tt.url)
		assert.Equal(t, tt.addr, cfg.Redis.Addr, tt.url)
		assert.Equal(t, tt.password, cfg.Redis.Password, tt.url)
		assert.Equal(t, tt.db, cfg.Redis.DB, tt.url)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Server.Port = "6000"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "6000", loaded.Server.Port)
}
