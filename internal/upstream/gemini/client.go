package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"gemini-pool-go/internal/constants"
	apierrors "gemini-pool-go/internal/errors"
	"gemini-pool-go/internal/logging"
	"gemini-pool-go/internal/monitoring"
	"gemini-pool-go/internal/monitoring/tracing"
	"gemini-pool-go/internal/translator"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	opGenerate   = "generate_content"
	opListModels = "list_models"
	maxPages     = 10
)

// Client talks to the Gemini REST API with a per-call API key.
type Client struct {
	baseURL string
	cli     *http.Client
}

// New returns a client whose every call is bounded by timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

func NewWithHTTPClient(baseURL string, cli *http.Client) *Client {
	if cli == nil {
		cli = http.DefaultClient
	}
	return &Client{baseURL: baseURL, cli: cli}
}

// GenerateContent posts req to the model's generateContent action. Non-2xx
// statuses, transport failures and undecodable bodies all come back as
// UpstreamErrors; the raw body is logged here and not returned to callers.
func (c *Client) GenerateContent(ctx context.Context, model, key string, req *translator.GenerateContentRequest) (*translator.GenerateContentResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, apierrors.Internal(fmt.Errorf("encode upstream request: %w", err))
	}
	body, err := c.do(ctx, opGenerate, http.MethodPost, GenerateURL(c.baseURL, model, key), key, payload,
		attribute.String("gemini.model", model))
	if err != nil {
		return nil, err
	}
	var out translator.GenerateContentResponse
	if err := json.Unmarshal(body, &out); err != nil {
		log.WithFields(log.Fields{
			"operation": opGenerate,
			"model":     model,
			"key":       logging.MaskKey(key),
			"body":      string(body),
		}).WithError(err).Error("failed to decode upstream response")
		return nil, apierrors.Upstream("invalid_body", "undecodable generateContent response", err)
	}
	return &out, nil
}

// ListModels fetches every page of the model catalogue.
func (c *Client) ListModels(ctx context.Context, key string) (*translator.GeminiModelList, error) {
	all := &translator.GeminiModelList{}
	token := ""
	for page := 0; page < maxPages; page++ {
		body, err := c.do(ctx, opListModels, http.MethodGet, ModelsURL(c.baseURL, key, token), key, nil)
		if err != nil {
			return nil, err
		}
		var list translator.GeminiModelList
		if err := json.Unmarshal(body, &list); err != nil {
			log.WithFields(log.Fields{
				"operation": opListModels,
				"key":       logging.MaskKey(key),
				"body":      string(body),
			}).WithError(err).Error("failed to decode upstream response")
			return nil, apierrors.Upstream("invalid_body", "undecodable models response", err)
		}
		all.Models = append(all.Models, list.Models...)
		if list.NextPageToken == "" {
			break
		}
		token = list.NextPageToken
	}
	return all, nil
}

func (c *Client) do(ctx context.Context, op, method, target, key string, payload []byte, attrs ...attribute.KeyValue) ([]byte, error) {
	safeURL := RedactURL(target)
	ctx, span := tracing.StartSpan(ctx, "upstream/gemini", op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append(attrs,
			attribute.String("http.method", method),
			attribute.String("http.url", safeURL),
		)...))

	start := time.Now()
	status, body, err := c.roundTrip(ctx, method, target, payload)
	elapsed := time.Since(start)

	monitoring.UpstreamRequestDuration.WithLabelValues(op).Observe(elapsed.Seconds())
	monitoring.UpstreamRequestsTotal.WithLabelValues(op, logging.StatusClass(status)).Inc()
	tracing.End(span, status, err)

	fields := log.Fields{
		"operation":  op,
		"url":        safeURL,
		"key":        logging.MaskKey(key),
		"status":     status,
		"latency_ms": logging.DurationMS(elapsed),
		"kind":       logging.ErrorKind(status, err != nil),
	}
	if err != nil {
		log.WithFields(fields).WithError(err).Error("upstream request failed")
		return nil, apierrors.MapNetworkError(err)
	}
	if status < 200 || status > 299 {
		fields["body"] = string(body)
		log.WithFields(fields).Error("upstream returned error status")
		return nil, apierrors.MapHTTPError(status, body)
	}
	log.WithFields(fields).Debug("upstream request completed")
	return body, nil
}

func (c *Client) roundTrip(ctx context.Context, method, target string, payload []byte) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, nil, redactURLError(err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.cli.Do(req)
	if err != nil {
		return 0, nil, redactURLError(err)
	}
	defer resp.Body.Close()

	limit := int64(constants.UpstreamMaxBody)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		limit = constants.UpstreamMaxErrorBody
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return resp.StatusCode, nil, redactURLError(err)
	}
	return resp.StatusCode, body, nil
}

// redactURLError strips the API key from *url.Error messages.
func redactURLError(err error) error {
	var ue *url.Error
	if stderrors.As(err, &ue) {
		ue.URL = RedactURL(ue.URL)
	}
	return err
}
