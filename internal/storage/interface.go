package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a credential id or secret is unknown.
	ErrNotFound = errors.New("storage: not found")
	// ErrDuplicate is returned when a secret is already registered.
	ErrDuplicate = errors.New("storage: duplicate api key")
)

// Store is the credential directory plus the usage ledger.
type Store interface {
	CreateAPIKey(ctx context.Context, name, secret string) (*APIKey, error)
	GetAPIKey(ctx context.Context, id string) (*APIKey, error)
	GetAPIKeyBySecret(ctx context.Context, secret string) (*APIKey, error)
	ListAPIKeys(ctx context.Context) ([]APIKey, error)
	UpdateAPIKey(ctx context.Context, id string, upd APIKeyUpdate) (*APIKey, error)
	// DeleteAPIKey removes the credential and all of its usage rows.
	DeleteAPIKey(ctx context.Context, id string) error
	// EnsureAPIKey returns the credential for secret, registering it under
	// name first if it does not exist yet.
	EnsureAPIKey(ctx context.Context, secret, name string) (*APIKey, error)

	// RecordUsage bumps the credential's counters and appends one usage row
	// in a single transaction.
	RecordUsage(ctx context.Context, rec UsageRecord) (*UsageLog, error)
	ListUsageLogs(ctx context.Context, apiKeyID string, limit int) ([]UsageLog, error)
	Dashboard(ctx context.Context) (*Dashboard, error)

	Ping(ctx context.Context) error
	Close() error
}

// Cache is a small byte cache with per-entry TTL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
