package config

const (
	DefaultListenAddr      = "0.0.0.0:8080"
	DefaultGeminiBaseURL   = "https://generativelanguage.googleapis.com/v1beta"
	DefaultUpstreamTimeout = 60
	DefaultModelsCacheTTL  = 300
	DefaultSessionTTLHours = 24
	DefaultDatabaseDriver  = "sqlite"
	DefaultDatabaseURL     = "gemini-pool.db"
	DefaultRateLimitRPS    = 10
	DefaultRateLimitBurst  = 20
	DefaultRedisPrefix     = "gemini-pool:"
)

// Defaults returns a configuration populated with built-in defaults only.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{ListenAddr: DefaultListenAddr},
		Upstream: UpstreamConfig{
			BaseURL:               DefaultGeminiBaseURL,
			TimeoutSeconds:        DefaultUpstreamTimeout,
			ModelsCacheTTLSeconds: DefaultModelsCacheTTL,
		},
		Database: DatabaseConfig{Driver: DefaultDatabaseDriver, URL: DefaultDatabaseURL},
		Admin:    AdminConfig{Username: "admin", SessionTTLHours: DefaultSessionTTLHours},
		RateLimit: RateLimitConfig{
			RPS:   DefaultRateLimitRPS,
			Burst: DefaultRateLimitBurst,
		},
		Redis: RedisConfig{Prefix: DefaultRedisPrefix},
	}
}
