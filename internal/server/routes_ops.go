package server

import (
	"context"
	"net/http"
	"time"

	"gemini-pool-go/internal/constants"
	"gemini-pool-go/internal/logging"
	mw "gemini-pool-go/internal/middleware"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type endpointInfo struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods"`
	Description string   `json:"description"`
}

var publicEndpoints = []endpointInfo{
	{Path: "/", Methods: []string{http.MethodGet}, Description: "Lists all available endpoints."},
	{Path: "/v1/chat/completions", Methods: []string{http.MethodPost}, Description: "OpenAI-compatible chat completions endpoint."},
	{Path: "/v1/models", Methods: []string{http.MethodGet}, Description: "Lists all available models."},
}

func registerOpsRoutes(engine *gin.Engine, db pinger) {
	engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message":   "Welcome to the Gemini API Pool!",
			"version":   constants.Version,
			"endpoints": publicEndpoints,
		})
	})
	engine.GET("/healthz", healthHandler(db))
	engine.GET("/metrics", mw.MetricsHandler)
}

func healthHandler(db pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				logging.WithReq(c, log.Fields{"error": err}).Warn("health check: database unreachable")
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "ok"})
	}
}
