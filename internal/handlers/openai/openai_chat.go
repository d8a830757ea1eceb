package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	apperrors "gemini-pool-go/internal/errors"
	"gemini-pool-go/internal/logging"
	"gemini-pool-go/internal/monitoring"
	"gemini-pool-go/internal/storage"
	"gemini-pool-go/internal/translator"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// EndpointChatCompletions is the endpoint label written to usage rows.
const EndpointChatCompletions = "chat_completions"

// ChatCompletions handles POST /v1/chat/completions.
func (h *Handler) ChatCompletions(c *gin.Context) {
	var req translator.ChatCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.Validation("Invalid request body: "+err.Error()))
		return
	}
	req.Model = strings.TrimSpace(req.Model)
	if req.Model == "" {
		apperrors.Respond(c, apperrors.Validation("model is required"))
		return
	}
	c.Set("model", req.Model)

	key := h.pool.Next()
	monitoring.PoolSelectionsTotal.Inc()
	entry := logging.WithReq(c, log.Fields{"model": req.Model, "upstream_key": logging.MaskKey(key)})

	upReq, err := translator.ToUpstream(&req)
	if err != nil {
		var vErr *translator.ValidationError
		if errors.As(err, &vErr) {
			apperrors.Respond(c, apperrors.Validation(vErr.Message))
			return
		}
		apperrors.Respond(c, apperrors.Internal(err))
		return
	}

	ctx, cancel := h.upstreamContext(c.Request.Context())
	defer cancel()
	upResp, err := h.upstream.GenerateContent(ctx, req.Model, key, upReq)
	if err != nil {
		fields := log.Fields{"error": err}
		if apiErr, ok := apperrors.As(err); ok {
			fields["code"] = apiErr.Code
			fields["detail"] = apiErr.Detail
		}
		entry.WithFields(fields).Error("upstream generateContent failed")
		if !apperrors.IsKind(err, apperrors.KindUpstream) {
			err = apperrors.Upstream("upstream_failure", "", err)
		}
		apperrors.Respond(c, err)
		return
	}

	resp, err := translator.FromUpstream(upResp, req.Model)
	if err != nil {
		entry.WithError(err).Error("upstream response could not be translated")
		apperrors.Respond(c, apperrors.Internal(err))
		return
	}

	rec := storage.UsageRecord{
		Endpoint:     EndpointChatCompletions,
		Model:        req.Model,
		InputTokens:  translator.EstimateMessages(req.Messages),
		OutputTokens: translator.EstimateTokens(string(resp.Choices[0].Message.Content)),
		Success:      true,
	}
	h.recordUsage(c.Request.Context(), entry, key, rec)

	c.JSON(http.StatusOK, resp)
}

// recordUsage attributes the call to the pool key that served it, registering
// that key in the directory on first use. Failures are logged and dropped.
func (h *Handler) recordUsage(parent context.Context, entry *log.Entry, key string, rec storage.UsageRecord) {
	if h.ledger == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), h.opts.LedgerTimeout)
	defer cancel()

	owner, err := h.ledger.EnsureAPIKey(ctx, key, AutoKeyName(key))
	if err == nil {
		rec.APIKeyID = owner.ID
		_, err = h.ledger.RecordUsage(ctx, rec)
	}
	if err != nil {
		monitoring.UsageWriteFailuresTotal.Inc()
		entry.WithError(err).Warn("usage ledger write failed")
	}
}

// AutoKeyName is the display name given to a pool key registered on first use.
func AutoKeyName(key string) string {
	if len(key) > 8 {
		key = key[:8]
	}
	return "auto-" + key
}
