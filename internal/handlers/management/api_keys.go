package management

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	apperrors "gemini-pool-go/internal/errors"
	"gemini-pool-go/internal/logging"
	"gemini-pool-go/internal/storage"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func (h *AdminAPIHandler) Dashboard(c *gin.Context) {
	d, err := h.store.Dashboard(c.Request.Context())
	if err != nil {
		apperrors.Respond(c, storeError(err))
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *AdminAPIHandler) ListAPIKeys(c *gin.Context) {
	keys, err := h.store.ListAPIKeys(c.Request.Context())
	if err != nil {
		apperrors.Respond(c, storeError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"api_keys": keys})
}

type createKeyRequest struct {
	Name   string `json:"key_name"`
	Secret string `json:"api_key"`
}

// CreateAPIKey registers a caller credential. Without api_key a secret of
// the form sk-<48 hex> is generated and returned once.
func (h *AdminAPIHandler) CreateAPIKey(c *gin.Context) {
	var req createKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.Validation("Invalid request body"))
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		apperrors.Respond(c, apperrors.Validation(MsgKeyNameRequired))
		return
	}
	secret := strings.TrimSpace(req.Secret)
	if secret == "" {
		var err error
		if secret, err = GenerateSecret(); err != nil {
			apperrors.Respond(c, apperrors.Internal(err))
			return
		}
	}
	key, err := h.store.CreateAPIKey(c.Request.Context(), name, secret)
	if err != nil {
		apperrors.Respond(c, storeError(err))
		return
	}
	logging.WithReq(c, log.Fields{"api_key_id": key.ID, "key_name": key.Name}).Info("api key created")
	c.JSON(http.StatusOK, gin.H{"id": key.ID, "api_key": key.Secret})
}

func (h *AdminAPIHandler) GetAPIKey(c *gin.Context) {
	key, err := h.store.GetAPIKey(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperrors.Respond(c, storeError(err))
		return
	}
	c.JSON(http.StatusOK, key)
}

type updateKeyRequest struct {
	Name   *string `json:"key_name"`
	Active *bool   `json:"is_active"`
}

func (h *AdminAPIHandler) UpdateAPIKey(c *gin.Context) {
	var req updateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.Validation("Invalid request body"))
		return
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			apperrors.Respond(c, apperrors.Validation(MsgKeyNameRequired))
			return
		}
		req.Name = &trimmed
	}
	key, err := h.store.UpdateAPIKey(c.Request.Context(), c.Param("id"), storage.APIKeyUpdate{Name: req.Name, Active: req.Active})
	if err != nil {
		apperrors.Respond(c, storeError(err))
		return
	}
	logging.WithReq(c, log.Fields{"api_key_id": key.ID, "is_active": key.Active}).Info("api key updated")
	c.JSON(http.StatusOK, key)
}

// DeleteAPIKey removes the credential together with its usage history.
func (h *AdminAPIHandler) DeleteAPIKey(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.DeleteAPIKey(c.Request.Context(), id); err != nil {
		apperrors.Respond(c, storeError(err))
		return
	}
	logging.WithReq(c, log.Fields{"api_key_id": id}).Info("api key deleted")
	c.JSON(http.StatusOK, gin.H{"message": "API key deleted"})
}

func (h *AdminAPIHandler) ListUsageLogs(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			apperrors.Respond(c, apperrors.Validation(MsgInvalidLogLimit))
			return
		}
		limit = n
	}
	ctx := c.Request.Context()
	id := c.Param("id")
	if _, err := h.store.GetAPIKey(ctx, id); err != nil {
		apperrors.Respond(c, storeError(err))
		return
	}
	logs, err := h.store.ListUsageLogs(ctx, id, limit)
	if err != nil {
		apperrors.Respond(c, storeError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"api_key_id": id, "logs": logs})
}

// GenerateSecret returns "sk-" followed by 48 random hex characters.
func GenerateSecret() (string, error) {
	var b [secretRandomBytes]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return secretPrefix + hex.EncodeToString(b[:]), nil
}
