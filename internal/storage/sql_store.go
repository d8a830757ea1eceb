package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 500
)

// SQLStore implements Store on postgres or sqlite. Queries are written with
// '?' placeholders and rebound for the driver.
type SQLStore struct {
	db      *sqlx.DB
	dialect string
	now     func() time.Time
}

// NewSQLStore wraps an already migrated database handle.
func NewSQLStore(db *sql.DB, dialect string) *SQLStore {
	return &SQLStore{
		db:      sqlx.NewDb(db, dialect),
		dialect: dialect,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Dialect reports the driver name the store was opened with.
func (s *SQLStore) Dialect() string { return s.dialect }

func (s *SQLStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLStore) Close() error { return s.db.Close() }

const apiKeyColumns = `id, key_name, api_key, is_active, created_at, total_requests, total_input_tokens, total_output_tokens`

func (s *SQLStore) CreateAPIKey(ctx context.Context, name, secret string) (*APIKey, error) {
	key := &APIKey{
		ID:        uuid.NewString(),
		Name:      name,
		Secret:    secret,
		Active:    true,
		CreatedAt: s.now(),
	}
	q := s.db.Rebind(`INSERT INTO api_keys (id, key_name, api_key, is_active, created_at) VALUES (?, ?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, q, key.ID, key.Name, key.Secret, key.Active, key.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert api key: %w", err)
	}
	return key, nil
}

func (s *SQLStore) GetAPIKey(ctx context.Context, id string) (*APIKey, error) {
	return s.getAPIKey(ctx, `SELECT `+apiKeyColumns+` FROM api_keys WHERE id = ?`, id)
}

func (s *SQLStore) GetAPIKeyBySecret(ctx context.Context, secret string) (*APIKey, error) {
	return s.getAPIKey(ctx, `SELECT `+apiKeyColumns+` FROM api_keys WHERE api_key = ?`, secret)
}

func (s *SQLStore) getAPIKey(ctx context.Context, query string, arg string) (*APIKey, error) {
	var key APIKey
	if err := s.db.GetContext(ctx, &key, s.db.Rebind(query), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get api key: %w", err)
	}
	return &key, nil
}

func (s *SQLStore) ListAPIKeys(ctx context.Context) ([]APIKey, error) {
	keys := []APIKey{}
	if err := s.db.SelectContext(ctx, &keys, `SELECT `+apiKeyColumns+` FROM api_keys ORDER BY created_at DESC, id`); err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	return keys, nil
}

func (s *SQLStore) UpdateAPIKey(ctx context.Context, id string, upd APIKeyUpdate) (*APIKey, error) {
	q := s.db.Rebind(`UPDATE api_keys SET key_name = COALESCE(?, key_name), is_active = COALESCE(?, is_active) WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, q, upd.Name, upd.Active, id)
	if err != nil {
		return nil, fmt.Errorf("update api key: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	return s.GetAPIKey(ctx, id)
}

func (s *SQLStore) DeleteAPIKey(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		// Explicit delete so the cascade does not depend on sqlite's foreign_keys pragma.
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM usage_logs WHERE api_key_id = ?`), id); err != nil {
			return fmt.Errorf("delete usage logs: %w", err)
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM api_keys WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("delete api key: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *SQLStore) EnsureAPIKey(ctx context.Context, secret, name string) (*APIKey, error) {
	if key, err := s.GetAPIKeyBySecret(ctx, secret); err == nil {
		return key, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	q := s.db.Rebind(`INSERT INTO api_keys (id, key_name, api_key, is_active, created_at) VALUES (?, ?, ?, ?, ?) ON CONFLICT (api_key) DO NOTHING`)
	if _, err := s.db.ExecContext(ctx, q, uuid.NewString(), name, secret, true, s.now()); err != nil {
		return nil, fmt.Errorf("register api key: %w", err)
	}
	return s.GetAPIKeyBySecret(ctx, secret)
}

func (s *SQLStore) RecordUsage(ctx context.Context, rec UsageRecord) (*UsageLog, error) {
	entry := &UsageLog{
		ID:           uuid.NewString(),
		APIKeyID:     rec.APIKeyID,
		CreatedAt:    s.now(),
		Endpoint:     rec.Endpoint,
		Model:        rec.Model,
		InputTokens:  rec.InputTokens,
		OutputTokens: rec.OutputTokens,
		Success:      rec.Success,
	}
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE api_keys
			SET total_requests = total_requests + 1,
			    total_input_tokens = total_input_tokens + ?,
			    total_output_tokens = total_output_tokens + ?
			WHERE id = ?`), rec.InputTokens, rec.OutputTokens, rec.APIKeyID)
		if err != nil {
			return fmt.Errorf("update counters: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrNotFound
		}
		_, err = tx.NamedExecContext(ctx, `INSERT INTO usage_logs
			(id, api_key_id, created_at, endpoint, model, input_tokens, output_tokens, success)
			VALUES (:id, :api_key_id, :created_at, :endpoint, :model, :input_tokens, :output_tokens, :success)`, entry)
		if err != nil {
			return fmt.Errorf("insert usage log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *SQLStore) ListUsageLogs(ctx context.Context, apiKeyID string, limit int) ([]UsageLog, error) {
	limit = clampLimit(limit)
	logs := []UsageLog{}
	q := s.db.Rebind(`SELECT id, api_key_id, created_at, endpoint, model, input_tokens, output_tokens, success
		FROM usage_logs WHERE api_key_id = ? ORDER BY created_at DESC, id LIMIT ?`)
	if err := s.db.SelectContext(ctx, &logs, q, apiKeyID, limit); err != nil {
		return nil, fmt.Errorf("list usage logs: %w", err)
	}
	return logs, nil
}

func (s *SQLStore) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	err := s.db.GetContext(ctx, &d, `SELECT
		COUNT(*) AS total_api_keys,
		COALESCE(SUM(CASE WHEN is_active THEN 1 ELSE 0 END), 0) AS active_keys,
		COALESCE(SUM(total_requests), 0) AS total_requests,
		COALESCE(SUM(total_input_tokens + total_output_tokens), 0) AS total_tokens
		FROM api_keys`)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	return &d, nil
}

func (s *SQLStore) withTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLogLimit
	}
	if limit > maxLogLimit {
		return maxLogLimit
	}
	return limit
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
