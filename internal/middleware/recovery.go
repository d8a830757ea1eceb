package middleware

import (
	"net/http"
	"runtime/debug"

	apperrors "gemini-pool-go/internal/errors"
	"gemini-pool-go/internal/logging"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Recovery turns a handler panic into a 500 with the generic internal message.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logging.WithReq(c, log.Fields{
					"error":      rec,
					"stack":      string(debug.Stack()),
					"user_agent": c.Request.UserAgent(),
				}).Error("Panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, apperrors.Body{Error: apperrors.MsgInternal})
			}
		}()
		c.Next()
	}
}

// SafeGo runs fn in a goroutine and logs instead of crashing on panic.
func SafeGo(name string, fn func()) {
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				log.WithFields(log.Fields{
					"goroutine": name,
					"error":     rec,
					"stack":     string(debug.Stack()),
				}).Error("Goroutine panic recovered")
			}
		}()
		fn()
	}()
}
