// Package management serves the administrator console API.
package management

import (
	"errors"

	"gemini-pool-go/internal/config"
	apperrors "gemini-pool-go/internal/errors"
	"gemini-pool-go/internal/session"
	"gemini-pool-go/internal/storage"
	"github.com/gin-gonic/gin"
)

const (
	MsgKeyNotFound     = "API key not found"
	MsgDuplicateKey    = "API key already exists"
	MsgInvalidLogin    = "Invalid username or password"
	MsgInvalidToken    = "Invalid or expired token"
	MsgKeyNameRequired = "key_name is required"
	MsgInvalidLogLimit = "limit must be a positive integer"
	secretPrefix       = "sk-"
	secretRandomBytes  = 24
)

// AdminAPIHandler groups the console endpoints.
type AdminAPIHandler struct {
	cfg      *config.Config
	sessions *session.Manager
	store    storage.Store
}

func NewAdminAPIHandler(cfg *config.Config, sessions *session.Manager, st storage.Store) *AdminAPIHandler {
	return &AdminAPIHandler{cfg: cfg, sessions: sessions, store: st}
}

// RegisterRoutes mounts the console API on group (normally /admin/api).
// Login and verify do their own token handling; everything else sits behind
// auth.
func (h *AdminAPIHandler) RegisterRoutes(group *gin.RouterGroup, auth gin.HandlerFunc) {
	group.POST("/auth/login", h.Login)
	group.GET("/auth/verify", h.Verify)

	protected := group.Group("", auth)
	protected.GET("/dashboard", h.Dashboard)
	protected.GET("/api-keys", h.ListAPIKeys)
	protected.POST("/api-keys", h.CreateAPIKey)
	protected.GET("/api-keys/:id", h.GetAPIKey)
	protected.PUT("/api-keys/:id", h.UpdateAPIKey)
	protected.DELETE("/api-keys/:id", h.DeleteAPIKey)
	protected.GET("/api-keys/:id/logs", h.ListUsageLogs)
}

// storeError maps ledger sentinels onto the console's error contract.
func storeError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.NotFound(MsgKeyNotFound)
	case errors.Is(err, storage.ErrDuplicate):
		return apperrors.Validation(MsgDuplicateKey)
	default:
		return apperrors.Internal(err)
	}
}
