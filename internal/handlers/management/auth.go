package management

import (
	"net/http"
	"strings"

	"gemini-pool-go/internal/config"
	apperrors "gemini-pool-go/internal/errors"
	"gemini-pool-go/internal/logging"
	"gemini-pool-go/internal/middleware"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges the administrator credentials for a session token.
func (h *AdminAPIHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.Validation("Invalid request body"))
		return
	}
	if !config.CheckAdminPassword(h.cfg, strings.TrimSpace(req.Username), req.Password) {
		logging.WithReq(c, log.Fields{"username": req.Username}).Warn("admin login rejected")
		apperrors.Respond(c, apperrors.Auth(http.StatusBadRequest, MsgInvalidLogin))
		return
	}
	token, exp, err := h.sessions.Issue(h.cfg.Admin.Username)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal(err))
		return
	}
	logging.WithReq(c, log.Fields{"username": h.cfg.Admin.Username}).Info("admin login")
	c.JSON(http.StatusOK, gin.H{"token": token, "expires_at": exp.UTC()})
}

// Verify reports whether the bearer token is still a valid session. It
// answers 400 rather than 401 on failure; the console relies on that.
func (h *AdminAPIHandler) Verify(c *gin.Context) {
	claims, err := h.sessions.Verify(middleware.BearerToken(c))
	if err != nil {
		apperrors.Respond(c, apperrors.Auth(http.StatusBadRequest, MsgInvalidToken))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "valid", "username": claims.Subject})
}
