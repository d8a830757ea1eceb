package openai

import (
	"encoding/json"
	"net/http"

	apperrors "gemini-pool-go/internal/errors"
	"gemini-pool-go/internal/logging"
	"gemini-pool-go/internal/monitoring"
	"gemini-pool-go/internal/translator"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const modelsCacheKey = "models:openai"

// ListModels handles GET /v1/models. The translated list is cached for
// ModelsCacheTTL; cache errors fall through to the upstream.
func (h *Handler) ListModels(c *gin.Context) {
	ctx := c.Request.Context()
	if h.cache != nil && h.opts.ModelsCacheTTL > 0 {
		data, ok, err := h.cache.Get(ctx, modelsCacheKey)
		switch {
		case err != nil:
			monitoring.ModelsCacheTotal.WithLabelValues("error").Inc()
			logging.WithReq(c, log.Fields{"error": err}).Warn("models cache read failed")
		case ok:
			monitoring.ModelsCacheTotal.WithLabelValues("hit").Inc()
			c.Data(http.StatusOK, "application/json; charset=utf-8", data)
			return
		default:
			monitoring.ModelsCacheTotal.WithLabelValues("miss").Inc()
		}
	}

	key := h.pool.Next()
	monitoring.PoolSelectionsTotal.Inc()

	upCtx, cancel := h.upstreamContext(ctx)
	defer cancel()
	upList, err := h.upstream.ListModels(upCtx, key)
	if err != nil {
		logging.WithReq(c, log.Fields{"error": err, "upstream_key": logging.MaskKey(key)}).Error("upstream list models failed")
		if !apperrors.IsKind(err, apperrors.KindUpstream) {
			err = apperrors.Upstream("upstream_failure", "", err)
		}
		apperrors.Respond(c, err)
		return
	}

	list := translator.ToModelList(upList)
	data, err := json.Marshal(list)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal(err))
		return
	}
	if h.cache != nil && h.opts.ModelsCacheTTL > 0 {
		if err := h.cache.Set(ctx, modelsCacheKey, data, h.opts.ModelsCacheTTL); err != nil {
			logging.WithReq(c, log.Fields{"error": err}).Warn("models cache write failed")
		}
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}
