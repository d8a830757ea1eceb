package server

import (
	"gemini-pool-go/internal/config"
	"gemini-pool-go/internal/credential"
	mgmt "gemini-pool-go/internal/handlers/management"
	oh "gemini-pool-go/internal/handlers/openai"
	mw "gemini-pool-go/internal/middleware"
	"gemini-pool-go/internal/session"
	"gemini-pool-go/internal/storage"
	upgem "gemini-pool-go/internal/upstream/gemini"
	"github.com/gin-gonic/gin"
)

// Dependencies encapsulates runtime services required to build the HTTP engine.
type Dependencies struct {
	Pool     *credential.Pool
	Store    storage.Store
	Upstream *upgem.Client
	Cache    storage.Cache
	Sessions *session.Manager
	// Limiter guards the gateway routes; nil disables rate limiting.
	Limiter mw.Limiter
}

// BuildEngine wires middleware and every route onto one gin engine.
func BuildEngine(cfg *config.Config, deps Dependencies) *gin.Engine {
	engine := gin.New()
	applyStandardEngineSettings(engine, cfg)

	registerOpsRoutes(engine, deps.Store)

	gateway := oh.New(deps.Pool, deps.Upstream, deps.Store, deps.Cache, oh.Options{
		UpstreamTimeout: cfg.UpstreamTimeout(),
		ModelsCacheTTL:  cfg.ModelsCacheTTL(),
	})
	RegisterOpenAIRoutes(engine.Group("/v1"), gateway, deps.Store, deps.Limiter)

	admin := mgmt.NewAdminAPIHandler(cfg, deps.Sessions, deps.Store)
	admin.RegisterRoutes(engine.Group("/admin/api"), mw.AdminAuth(deps.Sessions))
	return engine
}

func applyStandardEngineSettings(engine *gin.Engine, cfg *config.Config) {
	if !cfg.Logging.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	_ = engine.SetTrustedProxies(nil)
	engine.HandleMethodNotAllowed = true

	engine.Use(mw.Recovery(), mw.RequestID(), mw.Metrics(), mw.CORS(), mw.RequestLogger())
}

// RegisterOpenAIRoutes mounts the gateway behind the rate limiter and caller auth.
func RegisterOpenAIRoutes(group *gin.RouterGroup, h *oh.Handler, keys mw.KeyLookup, limiter mw.Limiter) {
	if limiter != nil {
		group.Use(mw.RateLimit(limiter))
	}
	group.Use(mw.CallerAuth(keys))
	group.POST("/chat/completions", h.ChatCompletions)
	group.GET("/models", h.ListModels)
}
