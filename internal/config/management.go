package config

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// CheckAdminPassword reports whether username and password match the
// configured administrator. A bcrypt hash, when set, takes precedence over
// the plain password.
func CheckAdminPassword(cfg *Config, username, password string) bool {
	if cfg == nil || username == "" || password == "" {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(username), []byte(cfg.Admin.Username)) != 1 {
		return false
	}
	if cfg.Admin.PasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(cfg.Admin.PasswordHash), []byte(password)) == nil
	}
	if cfg.Admin.Password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(cfg.Admin.Password)) == 1
}
