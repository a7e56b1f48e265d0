package sourcecache

import (
	"context"
	"database/sql"
	"net/url"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/quartobooks/quarto/pkg/errcodes"
	"github.com/quartobooks/quarto/pkg/migrations"
	"github.com/quartobooks/quarto/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestSignatureNormalizesParameterOrder(t *testing.T) {
	a := Signature("get", "/search.json", url.Values{"title": {"dune"}, "author": {"herbert"}})
	b := Signature("GET", "/search.json", url.Values{"author": {"herbert"}, "title": {"dune"}})
	assert.Equal(t, a, b)
	assert.Equal(t, "GET /search.json?author=herbert&title=dune", a)
}

func TestSignatureWithoutParams(t *testing.T) {
	assert.Equal(t, "GET /authors/OL1A.json", Signature("GET", "/authors/OL1A.json", nil))
}

func TestPutRejectsNonGet(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	err := svc.Put(context.Background(), "POST /search.json", []byte(`{}`), time.Hour)
	require.Error(t, err)
}

func TestGetMissAndHit(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewService(db)
	sig := Signature("GET", "/authors/OL1A.json", nil)

	_, ok, err := svc.Get(ctx, sig)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.Put(ctx, sig, []byte(`{"name":"x"}`), time.Hour))

	payload, ok, err := svc.Get(ctx, sig)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`{"name":"x"}`), payload)
}

func expireEntry(t *testing.T, db *bun.DB, signature string) {
	t.Helper()

	_, err := db.NewUpdate().
		Model((*models.SourceCacheEntry)(nil)).
		Set("last_updated = ?", time.Now().Add(-48*time.Hour)).
		Where("signature = ?", signature).
		Exec(context.Background())
	require.NoError(t, err)
}

func TestGetDeletesExpiredEntryLazily(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewService(db)
	sig := Signature("GET", "/authors/OL1A.json", nil)

	require.NoError(t, svc.Put(ctx, sig, []byte(`{}`), time.Hour))
	expireEntry(t, db, sig)

	_, ok, err := svc.Get(ctx, sig)
	require.NoError(t, err)
	assert.False(t, ok)

	count, err := db.NewSelect().Model((*models.SourceCacheEntry)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestFetchValidHitSkipsLive(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewService(db)
	sig := Signature("GET", "/authors/OL1A.json", nil)

	require.NoError(t, svc.Put(ctx, sig, []byte(`{"cached":true}`), time.Hour))

	called := false
	payload, err := svc.Fetch(ctx, sig, time.Hour, func(_ context.Context) ([]byte, error) {
		called = true
		return nil, nil
	})
	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, []byte(`{"cached":true}`), payload)
}

func TestFetchMissStoresLiveResult(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewService(db)
	sig := Signature("GET", "/authors/OL1A.json", nil)

	payload, err := svc.Fetch(ctx, sig, time.Hour, func(_ context.Context) ([]byte, error) {
		return []byte(`{"live":true}`), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"live":true}`), payload)

	cached, ok, err := svc.Get(ctx, sig)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`{"live":true}`), cached)
}

func TestFetchExpiredRefreshes(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewService(db)
	sig := Signature("GET", "/authors/OL1A.json", nil)

	require.NoError(t, svc.Put(ctx, sig, []byte(`{"old":true}`), time.Hour))
	expireEntry(t, db, sig)

	payload, err := svc.Fetch(ctx, sig, time.Hour, func(_ context.Context) ([]byte, error) {
		return []byte(`{"new":true}`), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"new":true}`), payload)
}

func TestFetchServesStaleOnLiveFailure(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewService(db)
	sig := Signature("GET", "/authors/OL1A.json", nil)

	require.NoError(t, svc.Put(ctx, sig, []byte(`{"stale":true}`), time.Hour))
	expireEntry(t, db, sig)

	payload, err := svc.Fetch(ctx, sig, time.Hour, func(_ context.Context) ([]byte, error) {
		return nil, errors.New("connection refused")
	})
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"stale":true}`), payload)

	// The stale entry survives to serve the next failure too.
	count, err := db.NewSelect().Model((*models.SourceCacheEntry)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestFetchFailsWithNothingCached(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewService(db)
	sig := Signature("GET", "/authors/OL1A.json", nil)

	_, err := svc.Fetch(ctx, sig, time.Hour, func(_ context.Context) ([]byte, error) {
		return nil, errors.New("connection refused")
	})
	require.Error(t, err)
	assert.True(t, errcodes.HasCode(err, errcodes.CodeExternalSourceUnavailable))
}
