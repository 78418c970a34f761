package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scalewithchintan/news-cache/pkg/cache"
	"github.com/scalewithchintan/news-cache/pkg/logging"
)

var envKeys = []string{
	"REDIS_HOST", "REDIS_PORT", "REDIS_USERNAME", "REDIS_PASSWORD", "REDIS_DB",
	"REDIS_POOL_SIZE", "REDIS_DIAL_TIMEOUT", "REDIS_READ_TIMEOUT", "REDIS_WRITE_TIMEOUT",
	"NEWS_ENVELOPE_KEY", "NEWS_INDEX_KEY", "NEWS_LIST_KEY", "NEWS_FANOUT_PREFIX", "NEWS_PRIMARY_KEY",
	"NEWS_DEFAULT_LIMIT", "HTTP_ADDR", "LOG_LEVEL", "LOG_PRETTY",
}

// isolate runs the test in an empty directory (no stray .env) with every
// known variable unset.
func isolate(t *testing.T) {
	t.Helper()
	chdirForTest(t, t.TempDir())
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Redis.Host)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, "default", cfg.Redis.Username)
	assert.Empty(t, cfg.Redis.Password)
	assert.Zero(t, cfg.Redis.DB)
	assert.Equal(t, 5*time.Second, cfg.Redis.DialTimeout)
	assert.Equal(t, cache.DefaultKeys(), cfg.Keys)
	assert.Equal(t, DefaultLimit, cfg.DefaultLimit)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)
}

func TestLoad_Environment(t *testing.T) {
	isolate(t)
	t.Setenv("REDIS_HOST", "redis.internal")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_USERNAME", "news")
	t.Setenv("REDIS_PASSWORD", "hunter2")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REDIS_DIAL_TIMEOUT", "750ms")
	t.Setenv("NEWS_PRIMARY_KEY", "tech:latest")
	t.Setenv("NEWS_DEFAULT_LIMIT", "50")
	t.Setenv("LOG_PRETTY", "true")

	cfg, err := Load()
	require.NoError(t, err)

	opts := cfg.RedisOptions()
	assert.Equal(t, "redis.internal:6380", opts.Addr())
	assert.Equal(t, "news", opts.Username)
	assert.Equal(t, "hunter2", opts.Password)
	assert.Equal(t, 3, opts.DB)
	assert.Equal(t, 750*time.Millisecond, opts.DialTimeout)
	assert.Equal(t, "tech:latest", cfg.Keys.Primary)
	assert.Equal(t, 50, cfg.DefaultLimit)
	assert.True(t, cfg.Log.Pretty)
}

func TestLoad_MalformedNumbersFallBack(t *testing.T) {
	isolate(t)
	t.Setenv("REDIS_PORT", "not-a-port")
	t.Setenv("REDIS_READ_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, 3*time.Second, cfg.Redis.ReadTimeout)
}

func TestLoad_DotEnv(t *testing.T) {
	isolate(t)
	dir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("REDIS_HOST=from-dotenv\nREDIS_DB=2\n"), 0o600))

	// godotenv does not override variables that are already set, and
	// t.Setenv("", ...) counts as set, so clear the two under test.
	require.NoError(t, os.Unsetenv("REDIS_HOST"))
	require.NoError(t, os.Unsetenv("REDIS_DB"))
	t.Cleanup(func() {
		os.Unsetenv("REDIS_HOST")
		os.Unsetenv("REDIS_DB")
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Redis.Host)
	assert.Equal(t, 2, cfg.Redis.DB)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "port zero", mutate: func(c *Config) { c.Redis.Port = 0 }, wantErr: true},
		{name: "port too large", mutate: func(c *Config) { c.Redis.Port = 70000 }, wantErr: true},
		{name: "negative db", mutate: func(c *Config) { c.Redis.DB = -1 }, wantErr: true},
		{name: "zero limit", mutate: func(c *Config) { c.DefaultLimit = 0 }, wantErr: true},
		{name: "empty index key", mutate: func(c *Config) { c.Keys.SortedIndex = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Redis:        RedisConfig{Host: "localhost", Port: 6379},
				Keys:         cache.DefaultKeys(),
				DefaultLimit: DefaultLimit,
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoggingConfig(t *testing.T) {
	cfg := &Config{Log: LogConfig{Level: "debug", Pretty: true}}

	lc := cfg.LoggingConfig()
	assert.Equal(t, logging.LevelDebug, lc.Level)
	assert.True(t, lc.Pretty)
	assert.NotNil(t, lc.Output)
}

// chdirForTest mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdirForTest(t *testing.T, dir string) {
	t.Helper()
	oldwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(oldwd); err != nil {
			t.Fatal(err)
		}
	})
}
