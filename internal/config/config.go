// Package config loads client settings from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"client_go/internal/domain"
)

const (
	TransportWS    = "ws"
	TransportRedis = "redis"
)

type Config struct {
	ServerURL string
	UploadURL string
	Username  string
	Rooms     []string

	Transport   string
	RedisAddr   string
	RedisPrefix string

	TypingTimeout  time.Duration
	IdleAfter      time.Duration
	MaxUploadBytes int64

	Notifications bool
	Sound         bool

	ReconnectMaxRetries int
	ReconnectBaseDelay  time.Duration

	Debug bool
}

// Load reads the environment. Validate must be called after any overrides.
func Load() *Config {
	return &Config{
		ServerURL: getEnv("CHAT_SERVER_URL", "ws://localhost:5000/ws"),
		UploadURL: getEnv("CHAT_UPLOAD_URL", "http://localhost:5000/api/upload"),
		Username:  os.Getenv("CHAT_USERNAME"),
		Rooms:     splitList(getEnv("CHAT_ROOMS", domain.DefaultRoom)),

		Transport:   getEnv("CHAT_TRANSPORT", TransportWS),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPrefix: getEnv("REDIS_CHANNEL_PREFIX", "chat"),

		TypingTimeout:  time.Duration(getEnvAsInt("TYPING_TIMEOUT_MS", 1000)) * time.Millisecond,
		IdleAfter:      getEnvAsDuration("IDLE_AFTER", 5*time.Minute),
		MaxUploadBytes: int64(getEnvAsInt("MAX_UPLOAD_BYTES", 10<<20)),

		Notifications: getEnvAsBool("NOTIFICATIONS", true),
		Sound:         getEnvAsBool("SOUND", true),

		ReconnectMaxRetries: getEnvAsInt("RECONNECT_MAX_RETRIES", 5),
		ReconnectBaseDelay:  time.Duration(getEnvAsInt("RECONNECT_BASE_DELAY_MS", 100)) * time.Millisecond,

		Debug: getEnvAsBool("DEBUG", false),
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return fmt.Errorf("%w: CHAT_USERNAME is required", domain.ErrInvalidConfig)
	}
	switch c.Transport {
	case TransportWS:
		u, err := url.Parse(c.ServerURL)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
			return fmt.Errorf("%w: CHAT_SERVER_URL must be a ws:// or wss:// URL", domain.ErrInvalidConfig)
		}
	case TransportRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: REDIS_ADDR is required", domain.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown transport %q", domain.ErrInvalidConfig, c.Transport)
	}
	if len(c.Rooms) == 0 {
		return fmt.Errorf("%w: at least one room is required", domain.ErrInvalidConfig)
	}
	if c.TypingTimeout <= 0 {
		return fmt.Errorf("%w: TYPING_TIMEOUT_MS must be positive", domain.ErrInvalidConfig)
	}
	return nil
}

// RoomList returns the configured rooms as domain values.
func (c *Config) RoomList() []domain.Room {
	rooms := make([]domain.Room, 0, len(c.Rooms))
	for _, id := range c.Rooms {
		rooms = append(rooms, domain.Room{ID: id, Name: id})
	}
	return rooms
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvAsInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvAsBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getEnvAsDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
