package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gemini-pool-go/internal/config"
	"gemini-pool-go/internal/logging"
	mw "gemini-pool-go/internal/middleware"
	store "gemini-pool-go/internal/storage"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// runtime holds the optional shared services: the models cache and the
// rate limiter, Redis-backed when an address is configured.
type runtime struct {
	cache   store.Cache
	limiter mw.Limiter
	redis   *redis.Client
}

func (r *runtime) close() {
	if r.redis != nil {
		_ = r.redis.Close()
	}
}

func buildRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	rt := &runtime{}
	if cfg.RedisEnabled() {
		client := store.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("ping redis %s: %w", cfg.Redis.Addr, err)
		}
		rt.redis = client
		rt.cache = store.NewRedisCache(client, cfg.Redis.Prefix)
		log.WithField("addr", cfg.Redis.Addr).Info("redis cache and rate limiter enabled")
	} else {
		rt.cache = store.NewMemoryCache()
	}

	if cfg.RateLimit.Enabled {
		if rt.redis != nil {
			rt.limiter = mw.NewRedisLimiter(rt.redis, cfg.Redis.Prefix, cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		} else {
			rt.limiter = mw.NewLocalLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		}
	}
	return rt, nil
}

// onConfigChange applies the hot-reloadable settings of a re-read config
// file and warns about the rest. Each reload is compared with the last one
// applied, not the startup config.
func onConfigChange(current *config.Config) func(*config.Config) {
	var mu sync.Mutex
	last := current
	return func(next *config.Config) {
		mu.Lock()
		defer mu.Unlock()
		if next.Logging.Debug != last.Logging.Debug {
			logging.SetDebug(next.Logging.Debug)
			log.WithField("debug", next.Logging.Debug).Info("log level reloaded")
		}
		if config.RequiresRestart(last, next) {
			log.Warn("configuration changed in settings that require a restart; the running values are kept")
		}
		last = next
	}
}
