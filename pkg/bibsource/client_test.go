package bibsource

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quartobooks/quarto/pkg/config"
	"github.com/quartobooks/quarto/pkg/errcodes"
	"github.com/quartobooks/quarto/pkg/migrations"
	"github.com/quartobooks/quarto/pkg/sourcecache"
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

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg, err := config.New()
	require.NoError(t, err)
	cfg.SourceBaseURL = srv.URL

	return NewClient(cfg, sourcecache.NewService(setupTestDB(t))), srv
}

func TestAuthorByIDNormalizesDuckTypedFields(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/authors/OL1A.json", r.URL.Path)
		w.Write([]byte(`{
			"key": "/authors/OL1A",
			"name": {"type": "/type/text", "value": "Max Brand"},
			"personal_name": "Frederick Faust",
			"alternate_names": "George Owen Baxter"
		}`))
	}))

	detail, err := client.AuthorByID(context.Background(), "OL1A")
	require.NoError(t, err)
	assert.Equal(t, "OL1A", detail.ExternalID)
	assert.Equal(t, "Max Brand", detail.Name)
	assert.Equal(t, "Frederick Faust", detail.PersonalName)
	assert.Equal(t, []string{"George Owen Baxter"}, detail.AlternateNames)
	assert.Equal(t, "Frederick Faust", detail.RealName())
}

func TestAuthorByIDCachesResponse(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"key": "/authors/OL1A", "name": "Jane Austen"}`))
	}))

	ctx := context.Background()
	_, err := client.AuthorByID(ctx, "OL1A")
	require.NoError(t, err)
	_, err = client.AuthorByID(ctx, "OL1A")
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
}

func TestSearchAuthors(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/authors.json", r.URL.Path)
		assert.Equal(t, "twain", r.URL.Query().Get("q"))
		w.Write([]byte(`{"docs": [
			{"key": "/authors/OL2A", "name": "Mark Twain", "alternate_names": ["Samuel Clemens"]},
			{"key": "OL3A", "name": "Shania Twain"}
		]}`))
	}))

	results, err := client.SearchAuthors(context.Background(), "twain")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "OL2A", results[0].ExternalID)
	assert.Equal(t, []string{"Samuel Clemens"}, results[0].AlternateNames)
	assert.Equal(t, "OL3A", results[1].ExternalID)
}

func TestSearchWorks(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.json", r.URL.Path)
		assert.Equal(t, "dune", r.URL.Query().Get("title"))
		assert.Equal(t, "herbert", r.URL.Query().Get("author"))
		w.Write([]byte(`{"docs": [
			{"key": "/works/OL4W", "title": "Dune", "author_key": ["OL5A"], "author_name": "Frank Herbert"}
		]}`))
	}))

	results, err := client.SearchWorks(context.Background(), "dune", "herbert")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "OL4W", results[0].ExternalID)
	assert.Equal(t, "Dune", results[0].Title)
	assert.Equal(t, []string{"OL5A"}, results[0].AuthorExternalIDs)
	assert.Equal(t, []string{"Frank Herbert"}, results[0].AuthorNames)
}

func TestFetchErrorStatusIsUnavailable(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.AuthorByID(context.Background(), "OL1A")
	require.Error(t, err)
	assert.True(t, errcodes.HasCode(err, errcodes.CodeExternalSourceUnavailable))
}

func TestFetchInvalidJSONIsUnavailable(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))

	_, err := client.AuthorByID(context.Background(), "OL1A")
	require.Error(t, err)
	assert.True(t, errcodes.HasCode(err, errcodes.CodeExternalSourceUnavailable))
}
