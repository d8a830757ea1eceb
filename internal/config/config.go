package config

import "time"

// Config is the runtime configuration of the gateway.
type Config struct {
	Server    ServerConfig    `yaml:"server" json:"server"`
	Upstream  UpstreamConfig  `yaml:"upstream" json:"upstream"`
	Database  DatabaseConfig  `yaml:"database" json:"database"`
	Admin     AdminConfig     `yaml:"admin" json:"admin"`
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	Redis     RedisConfig     `yaml:"redis" json:"redis"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr" json:"listen_addr"`
}

// UpstreamConfig holds the rotation pool and the Gemini endpoint settings.
// The pool is read once at startup.
type UpstreamConfig struct {
	APIKeys               []string `yaml:"api_keys" json:"api_keys"`
	BaseURL               string   `yaml:"base_url" json:"base_url"`
	TimeoutSeconds        int      `yaml:"timeout_seconds" json:"timeout_seconds"`
	ModelsCacheTTLSeconds int      `yaml:"models_cache_ttl_seconds" json:"models_cache_ttl_seconds"`
}

// DatabaseConfig selects the ledger backend. Driver is "postgres" or "sqlite".
type DatabaseConfig struct {
	Driver string `yaml:"driver" json:"driver"`
	URL    string `yaml:"url" json:"url"`
}

type AdminConfig struct {
	Username        string `yaml:"username" json:"username"`
	Password        string `yaml:"password" json:"password"`
	PasswordHash    string `yaml:"password_hash" json:"password_hash"`
	JWTSecret       string `yaml:"jwt_secret" json:"jwt_secret"`
	SessionTTLHours int    `yaml:"session_ttl_hours" json:"session_ttl_hours"`
}

type RateLimitConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	RPS     int  `yaml:"rps" json:"rps"`
	Burst   int  `yaml:"burst" json:"burst"`
}

// RedisConfig enables the shared rate limiter and models cache when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
	Prefix   string `yaml:"prefix" json:"prefix"`
}

type LoggingConfig struct {
	Debug   bool   `yaml:"debug" json:"debug"`
	LogFile string `yaml:"log_file" json:"log_file"`
}

func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.Upstream.TimeoutSeconds) * time.Second
}

func (c *Config) ModelsCacheTTL() time.Duration {
	return time.Duration(c.Upstream.ModelsCacheTTLSeconds) * time.Second
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Admin.SessionTTLHours) * time.Hour
}

// RedisEnabled reports whether a Redis address is configured.
func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}
