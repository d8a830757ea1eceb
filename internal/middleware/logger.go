package middleware

import (
	"time"

	"gemini-pool-go/internal/logging"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// RequestLogger logs one http_request line per call. Secrets are never part
// of the entry; the caller is identified by its credential id.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := log.Fields{
			"status":     status,
			"latency_ms": logging.DurationMS(time.Since(start)),
			"user_agent": c.Request.UserAgent(),
		}
		if id := APIKeyID(c); id != "" {
			fields["api_key_id"] = id
		}
		if model := c.GetString("model"); model != "" {
			fields["model"] = model
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}
		entry := logging.WithReq(c, fields)
		switch {
		case status >= 500:
			entry.Error("http_request")
		case status >= 400:
			entry.Warn("http_request")
		default:
			entry.Info("http_request")
		}
	}
}
