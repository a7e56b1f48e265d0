package sourcecache

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/quartobooks/quarto/pkg/errcodes"
	"github.com/quartobooks/quarto/pkg/models"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

// Service caches external source responses by normalized request signature.
// Valid entries short-circuit live fetches; expired entries are kept around
// as a stale fallback for when the live fetch fails.
type Service struct {
	db  *bun.DB
	log logger.Logger
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db, log: logger.New()}
}

// Get returns the cached payload for the signature if a valid (non-expired)
// entry exists. An expired entry encountered here is deleted lazily and
// reported as a miss.
func (svc *Service) Get(ctx context.Context, signature string) ([]byte, bool, error) {
	entry, err := svc.retrieve(ctx, signature)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, errors.WithStack(err)
	}

	if entry.IsExpired(time.Now()) {
		_, err = svc.db.
			NewDelete().
			Model((*models.SourceCacheEntry)(nil)).
			Where("signature = ?", signature).
			Exec(ctx)
		if err != nil {
			return nil, false, errors.WithStack(err)
		}
		return nil, false, nil
	}

	return entry.Payload, true, nil
}

// Put stores the payload for the signature, overwriting any previous entry.
// Signatures for non-GET requests are rejected: mutating calls must never
// be cached.
func (svc *Service) Put(ctx context.Context, signature string, payload []byte, ttl time.Duration) error {
	if !isCacheable(signature) {
		return errors.Errorf("refusing to cache non-GET signature %q", signature)
	}

	ttlHours := int(ttl / time.Hour)
	if ttlHours <= 0 {
		ttlHours = models.DefaultCacheTTLHours
	}

	entry := &models.SourceCacheEntry{
		Signature:   signature,
		Payload:     payload,
		LastUpdated: time.Now(),
		TTLHours:    ttlHours,
	}
	_, err := svc.db.
		NewInsert().
		Model(entry).
		On("CONFLICT (signature) DO UPDATE").
		Set("payload = EXCLUDED.payload").
		Set("last_updated = EXCLUDED.last_updated").
		Set("ttl_hours = EXCLUDED.ttl_hours").
		Exec(ctx)
	return errors.WithStack(err)
}

// Fetch returns the cached payload for the signature when a valid entry
// exists; otherwise it invokes live. A successful live fetch is stored and
// returned. A failed live fetch falls back to any cached entry regardless
// of expiry; with no entry at all, the failure surfaces as
// ExternalSourceUnavailable.
func (svc *Service) Fetch(ctx context.Context, signature string, ttl time.Duration, live func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	// Deliberately not Get: an expired entry must survive until we know the
	// live fetch succeeded, or there's nothing left to fall back on.
	entry, err := svc.retrieve(ctx, signature)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, errors.WithStack(err)
	}
	cached := err == nil
	if cached && !entry.IsExpired(time.Now()) {
		return entry.Payload, nil
	}

	payload, liveErr := live(ctx)
	if liveErr == nil {
		if err := svc.Put(ctx, signature, payload, ttl); err != nil {
			// A failed store doesn't invalidate a successful fetch.
			svc.log.Err(err).Warn("failed to store source cache entry", logger.Data{"signature": signature})
		}
		return payload, nil
	}

	// Stale-if-error: serve whatever we still have, however old.
	if cached {
		svc.log.Err(liveErr).Warn("live fetch failed, serving stale cache entry", logger.Data{"signature": signature})
		return entry.Payload, nil
	}

	return nil, errors.Wrap(errcodes.ExternalSourceUnavailable(), liveErr.Error())
}

func (svc *Service) retrieve(ctx context.Context, signature string) (*models.SourceCacheEntry, error) {
	entry := &models.SourceCacheEntry{}
	err := svc.db.
		NewSelect().
		Model(entry).
		Where("signature = ?", signature).
		Scan(ctx)
	return entry, err
}
