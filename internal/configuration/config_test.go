package configuration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, "uploads", cfg.Storage.Root)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, 10, cfg.Storage.MaxFiles)
	assert.Equal(t, int64(50<<20), cfg.Storage.MaxFileSize)
	assert.False(t, cfg.OAuth.Enabled())
	assert.Equal(t, "https://accounts.google.com", cfg.OAuth.Issuer)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Empty(t, cfg.Session.Secret)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_ROOT", "/srv/photos")
	t.Setenv("MAX_FILES", "3")
	t.Setenv("OAUTH_CLIENT_ID", "client")
	t.Setenv("OAUTH_CLIENT_SECRET", "secret")
	t.Setenv("OAUTH_REDIRECT_URL", "http://localhost:9090/oauth2callback")
	t.Setenv("SESSION_SECRET", strings.Repeat("s", 32))
	t.Setenv("SESSION_TTL", "2h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "/srv/photos", cfg.Storage.Root)
	assert.Equal(t, 3, cfg.Storage.MaxFiles)
	assert.True(t, cfg.OAuth.Enabled())
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"7070\"\nmax_files: 4\n"), 0644))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, 4, cfg.Storage.MaxFiles)
}

func TestLoadMissingConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	valid := func(t *testing.T) *Config {
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero max files", func(c *Config) { c.Storage.MaxFiles = 0 }},
		{"zero max size", func(c *Config) { c.Storage.MaxFileSize = 0 }},
		{"upload limit overflows", func(c *Config) {
			c.Storage.MaxFiles = 1 << 20
			c.Storage.MaxFileSize = 1 << 62
		}},
		{"upload limit too large", func(c *Config) {
			c.Storage.MaxFiles = 1025
			c.Storage.MaxFileSize = 1 << 30
		}},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "ftp" }},
		{"minio without bucket", func(c *Config) {
			c.Storage.Backend = "minio"
			c.MinIO.BucketName = ""
		}},
		{"oauth without secret", func(c *Config) {
			c.OAuth.ClientID = "client"
			c.OAuth.RedirectURL = "http://localhost/cb"
			c.Session.Secret = strings.Repeat("s", 32)
		}},
		{"oauth with short session secret", func(c *Config) {
			c.OAuth.ClientID = "client"
			c.OAuth.ClientSecret = "secret"
			c.OAuth.RedirectURL = "http://localhost/cb"
			c.Session.Secret = "short"
		}},
		{"bad log level", func(c *Config) { c.Log.Level = "chatty" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid(t)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateUploadLimitBoundary(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	cfg, err := Load()
	require.NoError(t, err)

	cfg.Storage.MaxFiles = 1024
	cfg.Storage.MaxFileSize = 1 << 30
	assert.NoError(t, cfg.Validate())
}
