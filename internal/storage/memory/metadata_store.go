package memory

import (
	"context"
	"sync"
	"time"

	"github.com/AlexZinkM/token-dapp/internal/metadata"
	"github.com/AlexZinkM/token-dapp/internal/storage"
)

type metadataEntry struct {
	rec       metadata.Record
	fetchedAt time.Time
}

// MetadataStore is an in-memory TTL cache implementing metadata.Cache.
type MetadataStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]metadataEntry // keyed by network/mint
}

// NewMetadataStore creates a cache whose entries expire after ttl. A ttl <= 0 never expires.
func NewMetadataStore(ttl time.Duration) *MetadataStore {
	return &MetadataStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]metadataEntry),
	}
}

func metadataKey(network, mint string) string {
	return network + "/" + mint
}

// Get returns a copy of the cached record. Returns ErrNotFound on a miss or an expired entry.
func (s *MetadataStore) Get(_ context.Context, network, mint string) (*metadata.Record, error) {
	key := metadataKey(network, mint)

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, storage.ErrNotFound
	}
	if s.ttl > 0 && s.now().Sub(e.fetchedAt) > s.ttl {
		s.mu.Lock()
		if cur, still := s.entries[key]; still && cur.fetchedAt.Equal(e.fetchedAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, storage.ErrNotFound
	}

	return copyRecord(&e.rec), nil
}

// Put stores a copy of rec.
func (s *MetadataStore) Put(_ context.Context, network, mint string, rec *metadata.Record) error {
	if rec == nil || mint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[metadataKey(network, mint)] = metadataEntry{rec: *copyRecord(rec), fetchedAt: s.now()}
	return nil
}

func copyRecord(rec *metadata.Record) *metadata.Record {
	out := *rec
	if rec.Creators != nil {
		out.Creators = append([]metadata.Creator(nil), rec.Creators...)
	}
	return &out
}

var _ metadata.Cache = (*MetadataStore)(nil)
