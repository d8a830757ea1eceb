package config

import (
	"os"
	"strconv"
	"strings"
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func setStringFromEnv(key string, setter func(string)) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		setter(v)
	}
}

func setIntFromEnv(key string, setter func(int)) {
	if v := getenv(key, ""); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			setter(n)
		}
	}
}

func setToggleFromEnv(key string, setter func(bool)) {
	v := strings.ToLower(strings.TrimSpace(getenv(key, "")))
	if v == "" {
		return
	}
	switch v {
	case "1", "true", "yes", "on":
		setter(true)
	case "0", "false", "no", "off":
		setter(false)
	}
}

func splitAndTrim(input, sep string) []string {
	parts := strings.Split(input, sep)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func applyEnv(cfg *Config) {
	if v := getenv("GEMINI_API_KEYS", ""); v != "" {
		cfg.Upstream.APIKeys = splitAndTrim(v, ",")
	}
	setStringFromEnv("LISTEN_ADDR", func(v string) { cfg.Server.ListenAddr = v })
	setStringFromEnv("GEMINI_BASE_URL", func(v string) { cfg.Upstream.BaseURL = v })
	setIntFromEnv("UPSTREAM_TIMEOUT_SECONDS", func(n int) { cfg.Upstream.TimeoutSeconds = n })
	setIntFromEnv("MODELS_CACHE_TTL_SECONDS", func(n int) { cfg.Upstream.ModelsCacheTTLSeconds = n })

	setStringFromEnv("DATABASE_DRIVER", func(v string) { cfg.Database.Driver = v })
	setStringFromEnv("DATABASE_URL", func(v string) { cfg.Database.URL = v })

	setStringFromEnv("ADMIN_USERNAME", func(v string) { cfg.Admin.Username = v })
	setStringFromEnv("ADMIN_PASSWORD", func(v string) { cfg.Admin.Password = v })
	setStringFromEnv("ADMIN_PASSWORD_HASH", func(v string) { cfg.Admin.PasswordHash = v })
	setStringFromEnv("JWT_SECRET", func(v string) { cfg.Admin.JWTSecret = v })
	setIntFromEnv("SESSION_TTL_HOURS", func(n int) { cfg.Admin.SessionTTLHours = n })

	setToggleFromEnv("RATE_LIMIT_ENABLED", func(b bool) { cfg.RateLimit.Enabled = b })
	setIntFromEnv("RATE_LIMIT_RPS", func(n int) { cfg.RateLimit.RPS = n })
	setIntFromEnv("RATE_LIMIT_BURST", func(n int) { cfg.RateLimit.Burst = n })

	setStringFromEnv("REDIS_ADDR", func(v string) { cfg.Redis.Addr = v })
	setStringFromEnv("REDIS_PASSWORD", func(v string) { cfg.Redis.Password = v })
	setIntFromEnv("REDIS_DB", func(n int) { cfg.Redis.DB = n })
	setStringFromEnv("REDIS_PREFIX", func(v string) { cfg.Redis.Prefix = v })

	setToggleFromEnv("DEBUG", func(b bool) { cfg.Logging.Debug = b })
	setStringFromEnv("LOG_FILE", func(v string) { cfg.Logging.LogFile = v })
}
