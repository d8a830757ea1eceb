package storage

import "time"

// APIKey is one entry of the credential directory with its cumulative usage.
type APIKey struct {
	ID                string    `db:"id" json:"id"`
	Name              string    `db:"key_name" json:"key_name"`
	Secret            string    `db:"api_key" json:"api_key"`
	Active            bool      `db:"is_active" json:"is_active"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	TotalRequests     int64     `db:"total_requests" json:"total_requests"`
	TotalInputTokens  int64     `db:"total_input_tokens" json:"total_input_tokens"`
	TotalOutputTokens int64     `db:"total_output_tokens" json:"total_output_tokens"`
}

// APIKeyUpdate carries the editable fields; nil leaves a field unchanged.
type APIKeyUpdate struct {
	Name   *string
	Active *bool
}

// UsageRecord describes one completed gateway call.
type UsageRecord struct {
	APIKeyID     string
	Endpoint     string
	Model        string
	InputTokens  int64
	OutputTokens int64
	Success      bool
}

type UsageLog struct {
	ID           string    `db:"id" json:"id"`
	APIKeyID     string    `db:"api_key_id" json:"api_key_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	Endpoint     string    `db:"endpoint" json:"endpoint"`
	Model        string    `db:"model" json:"model"`
	InputTokens  int64     `db:"input_tokens" json:"input_tokens"`
	OutputTokens int64     `db:"output_tokens" json:"output_tokens"`
	Success      bool      `db:"success" json:"success"`
}

// Dashboard holds the aggregates shown on the admin console.
type Dashboard struct {
	TotalAPIKeys  int64 `db:"total_api_keys" json:"total_api_keys"`
	ActiveKeys    int64 `db:"active_keys" json:"active_keys"`
	TotalRequests int64 `db:"total_requests" json:"total_requests"`
	TotalTokens   int64 `db:"total_tokens" json:"total_tokens"`
}
