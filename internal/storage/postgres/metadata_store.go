package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AlexZinkM/token-dapp/internal/metadata"
	"github.com/AlexZinkM/token-dapp/internal/storage"
)

// MetadataStore implements metadata.Cache using PostgreSQL.
type MetadataStore struct {
	pool *Pool
	ttl  time.Duration
	now  func() time.Time
}

// NewMetadataStore creates a new MetadataStore. A ttl <= 0 never expires.
func NewMetadataStore(pool *Pool, ttl time.Duration) *MetadataStore {
	return &MetadataStore{pool: pool, ttl: ttl, now: time.Now}
}

// Compile-time interface check.
var _ metadata.Cache = (*MetadataStore)(nil)

// Get retrieves a cached record. Returns ErrNotFound on a miss or an expired row.
func (s *MetadataStore) Get(ctx context.Context, network, mint string) (*metadata.Record, error) {
	query := `
		SELECT record, fetched_at
		FROM metadata_cache
		WHERE network = $1 AND mint = $2
	`

	var (
		raw       []byte
		fetchedAt time.Time
	)
	err := s.pool.QueryRow(ctx, query, network, mint).Scan(&raw, &fetchedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get cached metadata: %w", err)
	}

	if s.ttl > 0 && s.now().Sub(fetchedAt) > s.ttl {
		return nil, storage.ErrNotFound
	}

	var rec metadata.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal cached metadata: %w", err)
	}
	return &rec, nil
}

// Put upserts a record.
func (s *MetadataStore) Put(ctx context.Context, network, mint string, rec *metadata.Record) error {
	if rec == nil || mint == "" {
		return storage.ErrInvalidInput
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := `
		INSERT INTO metadata_cache (network, mint, record, fetched_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (network, mint)
		DO UPDATE SET record = EXCLUDED.record, fetched_at = EXCLUDED.fetched_at
	`
	if _, err := s.pool.Exec(ctx, query, network, mint, raw, s.now()); err != nil {
		return fmt.Errorf("upsert cached metadata: %w", err)
	}
	return nil
}

// Purge deletes rows older than the TTL and returns how many were removed.
func (s *MetadataStore) Purge(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM metadata_cache WHERE fetched_at < $1`, s.now().Add(-s.ttl))
	if err != nil {
		return 0, fmt.Errorf("purge cached metadata: %w", err)
	}
	return tag.RowsAffected(), nil
}
