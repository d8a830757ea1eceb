package middleware

import (
	"context"
	"errors"
	"net/http"

	apperrors "gemini-pool-go/internal/errors"
	"gemini-pool-go/internal/logging"
	"gemini-pool-go/internal/session"
	"gemini-pool-go/internal/storage"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const (
	MsgInvalidAPIKey = "Invalid or missing API key"
	MsgInvalidToken  = "Invalid or expired token"
)

// KeyLookup resolves a caller secret to its credential record.
type KeyLookup interface {
	GetAPIKeyBySecret(ctx context.Context, secret string) (*storage.APIKey, error)
}

// CallerAuth admits requests whose bearer token is an active credential.
// Every rejection carries the same message.
func CallerAuth(keys KeyLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := BearerToken(c)
		if secret == "" {
			apperrors.Respond(c, apperrors.Auth(http.StatusBadRequest, MsgInvalidAPIKey))
			return
		}
		key, err := keys.GetAPIKeyBySecret(c.Request.Context(), secret)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			apperrors.Respond(c, apperrors.Auth(http.StatusBadRequest, MsgInvalidAPIKey))
			return
		case err != nil:
			logging.WithReq(c, log.Fields{"error": err}).Error("caller lookup failed")
			apperrors.Respond(c, apperrors.Internal(err))
			return
		case !key.Active:
			logging.WithReq(c, log.Fields{"api_key_id": key.ID}).Warn("inactive api key rejected")
			apperrors.Respond(c, apperrors.Auth(http.StatusBadRequest, MsgInvalidAPIKey))
			return
		}
		c.Set(CtxAPIKeyID, key.ID)
		c.Next()
	}
}

// AdminAuth admits requests carrying a valid admin session token.
func AdminAuth(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := sessions.Verify(BearerToken(c))
		if err != nil {
			logging.WithReq(c, log.Fields{"error": err}).Warn("admin token rejected")
			apperrors.Respond(c, apperrors.Auth(http.StatusUnauthorized, MsgInvalidToken))
			return
		}
		c.Set(CtxAdmin, claims.Subject)
		c.Next()
	}
}
