package openai

import (
	"context"
	"time"

	"gemini-pool-go/internal/constants"
	"gemini-pool-go/internal/credential"
	"gemini-pool-go/internal/storage"
	"gemini-pool-go/internal/translator"
	upgem "gemini-pool-go/internal/upstream/gemini"
)

// geminiClient captures the subset of the upstream Gemini client used by the gateway.
type geminiClient interface {
	GenerateContent(ctx context.Context, model, key string, req *translator.GenerateContentRequest) (*translator.GenerateContentResponse, error)
	ListModels(ctx context.Context, key string) (*translator.GeminiModelList, error)
}

var _ geminiClient = (*upgem.Client)(nil)

// usageLedger is the part of the store the gateway writes to.
type usageLedger interface {
	EnsureAPIKey(ctx context.Context, secret, name string) (*storage.APIKey, error)
	RecordUsage(ctx context.Context, rec storage.UsageRecord) (*storage.UsageLog, error)
}

// Options tune the gateway handler. Zero values pick the defaults.
type Options struct {
	UpstreamTimeout time.Duration
	ModelsCacheTTL  time.Duration
	LedgerTimeout   time.Duration
}

// Handler serves the OpenAI-compatible gateway endpoints.
type Handler struct {
	pool     *credential.Pool
	upstream geminiClient
	ledger   usageLedger
	cache    storage.Cache
	opts     Options
}

// New constructs the gateway handler. A nil cache disables the models cache.
func New(pool *credential.Pool, up geminiClient, ledger usageLedger, cache storage.Cache, opts Options) *Handler {
	if opts.UpstreamTimeout <= 0 {
		opts.UpstreamTimeout = 60 * time.Second
	}
	if opts.LedgerTimeout <= 0 {
		opts.LedgerTimeout = constants.StoreOpTimeout
	}
	return &Handler{pool: pool, upstream: up, ledger: ledger, cache: cache, opts: opts}
}

// upstreamContext detaches from client cancellation and bounds the call.
func (h *Handler) upstreamContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), h.opts.UpstreamTimeout)
}
