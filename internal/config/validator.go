package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation error [%s]: %s", e.Field, e.Message)
}

const minJWTSecretLen = 16

// Validate checks the settings the gateway cannot start without.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []error
	add := func(field, msg string) { errs = append(errs, ValidationError{Field: field, Message: msg}) }

	if len(c.Upstream.APIKeys) == 0 {
		add("upstream.api_keys", "at least one Gemini API key is required (GEMINI_API_KEYS)")
	}
	for i, k := range c.Upstream.APIKeys {
		if strings.TrimSpace(k) == "" {
			add(fmt.Sprintf("upstream.api_keys[%d]", i), "must not be empty")
		}
	}
	if u, err := url.Parse(c.Upstream.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		add("upstream.base_url", "must be an absolute URL")
	}
	if c.Upstream.TimeoutSeconds <= 0 {
		add("upstream.timeout_seconds", "must be positive")
	}
	if c.Upstream.ModelsCacheTTLSeconds < 0 {
		add("upstream.models_cache_ttl_seconds", "must not be negative")
	}

	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		add("database.driver", fmt.Sprintf("unsupported driver %q (expected postgres or sqlite)", c.Database.Driver))
	}
	if strings.TrimSpace(c.Database.URL) == "" {
		add("database.url", "must not be empty")
	}

	if strings.TrimSpace(c.Admin.Username) == "" {
		add("admin.username", "must not be empty")
	}
	if c.Admin.Password == "" && c.Admin.PasswordHash == "" {
		add("admin.password", "either password or password_hash is required")
	}
	if len(c.Admin.JWTSecret) < minJWTSecretLen {
		add("admin.jwt_secret", fmt.Sprintf("must be at least %d bytes", minJWTSecretLen))
	}
	if c.Admin.SessionTTLHours <= 0 {
		add("admin.session_ttl_hours", "must be positive")
	}

	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		add("rate_limit", "rps and burst must be positive when enabled")
	}
	return errors.Join(errs...)
}
