// Package config loads the news cache settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/scalewithchintan/news-cache/pkg/cache"
	"github.com/scalewithchintan/news-cache/pkg/logging"
	"github.com/scalewithchintan/news-cache/pkg/redisconn"
)

// DefaultLimit is the number of articles served when the caller gives none.
const DefaultLimit = 200

type Config struct {
	Redis        RedisConfig
	Keys         cache.Keys
	HTTP         HTTPConfig
	Log          LogConfig
	DefaultLimit int
}

type RedisConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	DB       int
	// Pool and timeout settings
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type HTTPConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Pretty bool
}

// Load reads the configuration. A .env file in the working directory is
// loaded first when present; variables already set in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	defaults := cache.DefaultKeys()
	cfg := &Config{
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getIntEnv("REDIS_PORT", 6379),
			Username:     getEnv("REDIS_USERNAME", "default"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getIntEnv("REDIS_DB", 0),
			PoolSize:     getIntEnv("REDIS_POOL_SIZE", 10),
			DialTimeout:  getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Keys: cache.Keys{
			Envelope:     getEnv("NEWS_ENVELOPE_KEY", defaults.Envelope),
			SortedIndex:  getEnv("NEWS_INDEX_KEY", defaults.SortedIndex),
			List:         getEnv("NEWS_LIST_KEY", defaults.List),
			FanoutPrefix: getEnv("NEWS_FANOUT_PREFIX", defaults.FanoutPrefix),
			Primary:      getEnv("NEWS_PRIMARY_KEY", defaults.Primary),
		},
		HTTP: HTTPConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			ReadTimeout:     getDurationEnv("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("HTTP_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationEnv("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getBoolEnv("LOG_PRETTY", false),
		},
		DefaultLimit: getIntEnv("NEWS_DEFAULT_LIMIT", DefaultLimit),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at first use.
func (c *Config) Validate() error {
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		return fmt.Errorf("REDIS_PORT out of range: %d", c.Redis.Port)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("REDIS_DB must not be negative: %d", c.Redis.DB)
	}
	if c.DefaultLimit <= 0 {
		return fmt.Errorf("NEWS_DEFAULT_LIMIT must be positive: %d", c.DefaultLimit)
	}
	if err := c.Keys.Validate(); err != nil {
		return fmt.Errorf("invalid cache keys: %w", err)
	}
	return nil
}

// RedisOptions converts the Redis section for redisconn.NewManager.
func (c *Config) RedisOptions() redisconn.Options {
	return redisconn.Options{
		Host:         c.Redis.Host,
		Port:         c.Redis.Port,
		Username:     c.Redis.Username,
		Password:     c.Redis.Password,
		DB:           c.Redis.DB,
		PoolSize:     c.Redis.PoolSize,
		DialTimeout:  c.Redis.DialTimeout,
		ReadTimeout:  c.Redis.ReadTimeout,
		WriteTimeout: c.Redis.WriteTimeout,
	}
}

// LoggingConfig converts the Log section for logging.Setup.
func (c *Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(c.Log.Level)
	cfg.Pretty = c.Log.Pretty
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
