package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// Keys set on the gin context by this package.
const (
	CtxRequestID = "request_id"
	CtxAPIKeyID  = "api_key_id"
	CtxAdmin     = "admin_subject"
)

// APIKeyID returns the credential id stored by CallerAuth.
func APIKeyID(c *gin.Context) string {
	return c.GetString(CtxAPIKeyID)
}

// BearerToken returns the token of an "Authorization: Bearer <token>" header,
// or "" when the header is absent or malformed.
func BearerToken(c *gin.Context) string {
	auth := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(auth) < 7 || !strings.EqualFold(auth[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(auth[7:])
}
