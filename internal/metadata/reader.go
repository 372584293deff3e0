package metadata

import (
	"context"
	"errors"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/AlexZinkM/token-dapp/internal/client"
	"github.com/AlexZinkM/token-dapp/internal/observability"
	"github.com/AlexZinkM/token-dapp/internal/storage"
)

// AccountFetcher reads raw accounts. GetAccountInfoRaw is tried first,
// GetAccountInfo is the fallback. Both return nil, nil for a missing account.
type AccountFetcher interface {
	GetAccountInfoRaw(ctx context.Context, address solana.PublicKey) (*client.AccountInfo, error)
	GetAccountInfo(ctx context.Context, address solana.PublicKey) (*client.AccountInfo, error)
}

// LogoResolver turns a metadata URI into a logo URL.
type LogoResolver interface {
	ResolveLogo(ctx context.Context, uri string) string
}

// Cache stores decoded records keyed by network and mint.
// Get returns storage.ErrNotFound for a miss or an expired entry.
type Cache interface {
	Get(ctx context.Context, network, mint string) (*Record, error)
	Put(ctx context.Context, network, mint string, rec *Record) error
}

// Source returns the fetcher for the currently selected network and that network's name.
type Source func() (AccountFetcher, string)

// Reader fetches, decodes and enriches metadata records.
type Reader struct {
	source   Source
	resolver LogoResolver
	cache    Cache
	log      logrus.FieldLogger
	metrics  *observability.Metrics
}

// ReaderOption configures Reader.
type ReaderOption func(*Reader)

// WithCache enables record caching.
func WithCache(c Cache) ReaderOption {
	return func(r *Reader) { r.cache = c }
}

// WithReaderLogger sets the logger.
func WithReaderLogger(l logrus.FieldLogger) ReaderOption {
	return func(r *Reader) { r.log = l }
}

// WithReaderMetrics sets the metrics sink.
func WithReaderMetrics(m *observability.Metrics) ReaderOption {
	return func(r *Reader) { r.metrics = m }
}

// NewReader creates a Reader. resolver may be nil, in which case logos are not resolved.
func NewReader(source Source, resolver LogoResolver, opts ...ReaderOption) *Reader {
	r := &Reader{
		source:   source,
		resolver: resolver,
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fetch returns the metadata record of mint, or nil when the account is missing,
// owned by another program, or not decodable. The error is non-nil only when ctx
// ended before the account could be read.
func (r *Reader) Fetch(ctx context.Context, mint solana.PublicKey) (*Record, error) {
	fetcher, network := r.source()
	log := r.log.WithFields(logrus.Fields{"mint": mint.String(), "network": network})

	if r.cache != nil {
		rec, err := r.cache.Get(ctx, network, mint.String())
		switch {
		case err == nil:
			return rec, nil
		case !errors.Is(err, storage.ErrNotFound):
			log.WithError(err).Warn("Metadata cache read failed")
		}
	}

	addr, err := FindMetadataAddress(mint)
	if err != nil {
		log.WithError(err).Warn("Metadata address derivation failed")
		return nil, nil
	}

	info, err := fetcher.GetAccountInfoRaw(ctx, addr)
	if err != nil {
		log.WithError(err).Debug("Raw account fetch failed, falling back to RPC client")
		info, err = fetcher.GetAccountInfo(ctx, addr)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			log.WithError(err).Warn("Metadata account fetch failed")
			return nil, nil
		}
	}

	if info == nil || len(info.Data) == 0 {
		log.Debug("Metadata account does not exist")
		return nil, nil
	}
	if !info.Owner.Equals(ProgramID) {
		r.metrics.ObserveDecode("foreign_owner")
		log.WithField("owner", info.Owner.String()).Debug("Metadata account owner mismatch")
		return nil, nil
	}

	rec, err := DecodeAccount(info.Data)
	if err != nil {
		r.metrics.ObserveDecode("invalid")
		log.WithError(err).Debug("Metadata account not decodable")
		return nil, nil
	}
	if !rec.Mint.Equals(mint) {
		r.metrics.ObserveDecode("mint_mismatch")
		log.WithField("account_mint", rec.Mint.String()).Debug("Metadata account belongs to another mint")
		return nil, nil
	}
	r.metrics.ObserveDecode(string(rec.Layout))

	if r.resolver != nil && rec.URI != "" {
		rec.LogoURI = r.resolver.ResolveLogo(ctx, rec.URI)
	}

	if r.cache != nil {
		if rec.LogoURI == "" && ctx.Err() != nil {
			// The logo lookup was cut short; leave it to the next request.
			log.Debug("Skipping cache write after cancelled logo lookup")
			return rec, nil
		}
		// A cancelled request must not prevent caching what was already read.
		putCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := r.cache.Put(putCtx, network, mint.String(), rec); err != nil {
			log.WithError(err).Warn("Metadata cache write failed")
		}
	}

	return rec, nil
}
