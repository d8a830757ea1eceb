package storage

import (
	"context"
	"errors"
	"time"

	"gemini-pool-go/internal/monitoring"
	"gemini-pool-go/internal/monitoring/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// WithInstrumentation wraps a Store with tracing spans and latency metrics.
func WithInstrumentation(inner Store, label string) Store {
	if inner == nil {
		return nil
	}
	if label == "" {
		label = "unknown"
	}
	return &instrumentedStore{Store: inner, label: label}
}

type instrumentedStore struct {
	Store
	label string
}

func (i *instrumentedStore) CreateAPIKey(ctx context.Context, name, secret string) (*APIKey, error) {
	var out *APIKey
	err := i.instrument(ctx, "create_api_key", func(ctx context.Context) error {
		var err error
		out, err = i.Store.CreateAPIKey(ctx, name, secret)
		return err
	})
	return out, err
}

func (i *instrumentedStore) GetAPIKey(ctx context.Context, id string) (*APIKey, error) {
	var out *APIKey
	err := i.instrument(ctx, "get_api_key", func(ctx context.Context) error {
		var err error
		out, err = i.Store.GetAPIKey(ctx, id)
		return err
	})
	return out, err
}

func (i *instrumentedStore) GetAPIKeyBySecret(ctx context.Context, secret string) (*APIKey, error) {
	var out *APIKey
	err := i.instrument(ctx, "get_api_key_by_secret", func(ctx context.Context) error {
		var err error
		out, err = i.Store.GetAPIKeyBySecret(ctx, secret)
		return err
	})
	return out, err
}

func (i *instrumentedStore) ListAPIKeys(ctx context.Context) ([]APIKey, error) {
	var out []APIKey
	err := i.instrument(ctx, "list_api_keys", func(ctx context.Context) error {
		var err error
		out, err = i.Store.ListAPIKeys(ctx)
		return err
	})
	return out, err
}

func (i *instrumentedStore) UpdateAPIKey(ctx context.Context, id string, upd APIKeyUpdate) (*APIKey, error) {
	var out *APIKey
	err := i.instrument(ctx, "update_api_key", func(ctx context.Context) error {
		var err error
		out, err = i.Store.UpdateAPIKey(ctx, id, upd)
		return err
	})
	return out, err
}

func (i *instrumentedStore) DeleteAPIKey(ctx context.Context, id string) error {
	return i.instrument(ctx, "delete_api_key", func(ctx context.Context) error {
		return i.Store.DeleteAPIKey(ctx, id)
	})
}

func (i *instrumentedStore) EnsureAPIKey(ctx context.Context, secret, name string) (*APIKey, error) {
	var out *APIKey
	err := i.instrument(ctx, "ensure_api_key", func(ctx context.Context) error {
		var err error
		out, err = i.Store.EnsureAPIKey(ctx, secret, name)
		return err
	})
	return out, err
}

func (i *instrumentedStore) RecordUsage(ctx context.Context, rec UsageRecord) (*UsageLog, error) {
	var out *UsageLog
	err := i.instrument(ctx, "record_usage", func(ctx context.Context) error {
		var err error
		out, err = i.Store.RecordUsage(ctx, rec)
		return err
	})
	return out, err
}

func (i *instrumentedStore) ListUsageLogs(ctx context.Context, apiKeyID string, limit int) ([]UsageLog, error) {
	var out []UsageLog
	err := i.instrument(ctx, "list_usage_logs", func(ctx context.Context) error {
		var err error
		out, err = i.Store.ListUsageLogs(ctx, apiKeyID, limit)
		return err
	})
	return out, err
}

func (i *instrumentedStore) Dashboard(ctx context.Context) (*Dashboard, error) {
	var out *Dashboard
	err := i.instrument(ctx, "dashboard", func(ctx context.Context) error {
		var err error
		out, err = i.Store.Dashboard(ctx)
		return err
	})
	return out, err
}

func (i *instrumentedStore) instrument(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, span := tracing.StartSpan(ctx, "storage", i.label+"/"+op)
	span.SetAttributes(
		attribute.String("storage.backend", i.label),
		attribute.String("storage.operation", op),
	)
	start := time.Now()
	err := fn(ctx)
	result := "ok"
	switch {
	case err == nil:
		span.SetStatus(codes.Ok, "")
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrDuplicate):
		// Lookups that miss are normal traffic, not failures.
		result = "miss"
		span.SetStatus(codes.Ok, "")
	default:
		result = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	monitoring.StorageOpDuration.WithLabelValues(op, result).Observe(time.Since(start).Seconds())
	return err
}
