package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var promHandler = promhttp.Handler()

// MetricsHandler serves the Prometheus exposition format.
func MetricsHandler(c *gin.Context) {
	promHandler.ServeHTTP(c.Writer, c.Request)
}
