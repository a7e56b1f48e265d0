package authors

import (
	"context"
	"database/sql"
	"testing"

	"github.com/pkg/errors"
	"github.com/quartobooks/quarto/pkg/bibsource"
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

type fakeSource struct {
	details map[string]*bibsource.AuthorDetail
	err     error
}

func (f *fakeSource) AuthorByID(_ context.Context, externalID string) (*bibsource.AuthorDetail, error) {
	if f.err != nil {
		return nil, f.err
	}
	detail, ok := f.details[externalID]
	if !ok {
		return nil, errors.New("author not found")
	}
	return detail, nil
}

func (f *fakeSource) SearchAuthors(_ context.Context, _ string) ([]*bibsource.AuthorSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return nil, nil
}

func TestResolveCreatesNewAuthor(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewService(db, &fakeSource{details: map[string]*bibsource.AuthorDetail{}})

	author, err := svc.Resolve(ctx, Reference{
		Candidates: []Candidate{{Name: "Leo Tolstoy", Role: RoleAuthor}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Leo Tolstoy", author.PrimaryName)
	assert.Equal(t, "leo tolstoy", author.SearchName)
	assert.Nil(t, author.ExternalID)
}

func TestResolveMatchesBySearchNameCaseInsensitively(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewService(db, &fakeSource{})

	first, err := svc.Resolve(ctx, Reference{
		Candidates: []Candidate{{Name: "Leo Tolstoy", Role: RoleAuthor}},
	})
	require.NoError(t, err)

	second, err := svc.Resolve(ctx, Reference{
		Candidates: []Candidate{{Name: "LEO TOLSTOY", Role: RoleAuthor}},
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestResolveMatchesByAlias(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	source := &fakeSource{details: map[string]*bibsource.AuthorDetail{
		"OL1A": {
			ExternalID:     "OL1A",
			Name:           "Mark Twain",
			PersonalName:   "Samuel Clemens",
			AlternateNames: []string{"Samuel Langhorne Clemens", "S. L. Clemens"},
		},
	}}
	svc := NewService(db, source)

	first, err := svc.Resolve(ctx, Reference{
		ExternalID: "OL1A",
		Candidates: []Candidate{{Name: "Mark Twain", Role: RoleAuthor}},
	})
	require.NoError(t, err)

	// Enrichment appended the declared alternates, so a later entry under
	// one of them resolves to the same record.
	second, err := svc.Resolve(ctx, Reference{
		Candidates: []Candidate{{Name: "s. l. clemens", Role: RoleAuthor}},
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestResolveByExternalID(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewService(db, &fakeSource{details: map[string]*bibsource.AuthorDetail{
		"OL2A": {ExternalID: "OL2A", Name: "Jane Austen"},
	}})

	first, err := svc.Resolve(ctx, Reference{
		ExternalID: "OL2A",
		Candidates: []Candidate{{Name: "Jane Austen", Role: RoleAuthor}},
	})
	require.NoError(t, err)
	require.NotNil(t, first.ExternalID)
	assert.Equal(t, "OL2A", *first.ExternalID)

	// A completely different candidate name still resolves through the
	// identifier.
	second, err := svc.Resolve(ctx, Reference{
		ExternalID: "OL2A",
		Candidates: []Candidate{{Name: "J. Austen", Role: RoleAuthor}},
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestResolveExplicitSelectionWins(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewService(db, &fakeSource{})

	selected, err := svc.Resolve(ctx, Reference{
		Candidates: []Candidate{{Name: "George Eliot", Role: RoleAuthor}},
	})
	require.NoError(t, err)

	// Even with a candidate name that would create a different author, the
	// pre-selected record is used as-is.
	resolved, err := svc.Resolve(ctx, Reference{
		Candidates: []Candidate{{Name: "Mary Ann Evans", Role: RoleAuthor}},
		Selected:   selected,
	})
	require.NoError(t, err)
	assert.Equal(t, selected.ID, resolved.ID)

	count, err := db.NewSelect().Model((*models.Author)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestResolvePenNameFormatsPrimaryName(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	source := &fakeSource{details: map[string]*bibsource.AuthorDetail{
		"OL3A": {
			ExternalID:     "OL3A",
			Name:           "Max Brand",
			PersonalName:   "Frederick Faust",
			AlternateNames: []string{"Max Brand", "George Owen Baxter"},
		},
	}}
	svc := NewService(db, source)

	author, err := svc.Resolve(ctx, Reference{
		ExternalID: "OL3A",
		Candidates: []Candidate{{Name: "Max Brand", Role: RoleAuthor}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Frederick 'Max Brand' Faust", author.PrimaryName)
	// The search name stays what was searched, so the next lookup by the
	// pen name still matches.
	assert.Equal(t, "max brand", author.SearchName)

	again, err := svc.Resolve(ctx, Reference{
		Candidates: []Candidate{{Name: "Max Brand", Role: RoleAuthor}},
	})
	require.NoError(t, err)
	assert.Equal(t, author.ID, again.ID)
	assert.Equal(t, "Frederick 'Max Brand' Faust", again.PrimaryName)
}

func TestResolveAlternateExternalIDRematch(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	source := &fakeSource{details: map[string]*bibsource.AuthorDetail{
		"OL4A": {
			ExternalID:     "OL4A",
			Name:           "Max Brand",
			PersonalName:   "Frederick Faust",
			AlternateNames: []string{"Max Brand"},
		},
		"OL5A": {
			ExternalID:     "OL5A",
			Name:           "George Owen Baxter",
			PersonalName:   "Frederick Faust",
			AlternateNames: []string{"Max Brand", "George Owen Baxter"},
		},
	}}
	svc := NewService(db, source)

	first, err := svc.Resolve(ctx, Reference{
		ExternalID: "OL4A",
		Candidates: []Candidate{{Name: "Max Brand", Role: RoleAuthor}},
	})
	require.NoError(t, err)

	// A second identifier for the same person: no local identifier or
	// candidate-name match, but the source's declared alternates include a
	// name we already hold, so the records unify.
	second, err := svc.Resolve(ctx, Reference{
		ExternalID: "OL5A",
		Candidates: []Candidate{{Name: "George Owen Baxter", Role: RoleAuthor}},
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// The second identifier is now an alternate, so resolving by it again
	// goes straight to the same record.
	third, err := svc.Resolve(ctx, Reference{ExternalID: "OL5A"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, third.ID)

	count, err := db.NewSelect().Model((*models.Author)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestResolveSourceUnreachableStillCreates(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewService(db, &fakeSource{err: errors.New("connection refused")})

	author, err := svc.Resolve(ctx, Reference{
		ExternalID: "OL6A",
		Candidates: []Candidate{{Name: "Emily Dickinson", Role: RoleAuthor}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Emily Dickinson", author.PrimaryName)
	require.NotNil(t, author.ExternalID)
	assert.Equal(t, "OL6A", *author.ExternalID)
}

func TestResolveNoUsableReference(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewService(db, &fakeSource{})

	_, err := svc.Resolve(ctx, Reference{})
	require.Error(t, err)
	assert.True(t, errcodes.HasCode(err, errcodes.CodeAmbiguousAuthorReference))
}

func TestAppendAliasesIsAppendOnly(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	source := &fakeSource{details: map[string]*bibsource.AuthorDetail{
		"OL7A": {
			ExternalID:     "OL7A",
			Name:           "Mark Twain",
			AlternateNames: []string{"Samuel Clemens"},
		},
	}}
	svc := NewService(db, source)

	author, err := svc.Resolve(ctx, Reference{
		ExternalID: "OL7A",
		Candidates: []Candidate{{Name: "Mark Twain", Role: RoleAuthor}},
	})
	require.NoError(t, err)

	// Shrink the source's declared alternates; the stored alias survives.
	source.details["OL7A"].AlternateNames = nil

	_, err = svc.Resolve(ctx, Reference{ExternalID: "OL7A"})
	require.NoError(t, err)

	refreshed, err := svc.RetrieveAuthor(ctx, RetrieveAuthorOptions{ID: &author.ID})
	require.NoError(t, err)
	require.Len(t, refreshed.Aliases, 1)
	assert.Equal(t, "Samuel Clemens", refreshed.Aliases[0].Name)
}

func TestListAuthorsWithTotal(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewService(db, &fakeSource{})

	for _, name := range []string{"Anne Bronte", "Charlotte Bronte", "Emily Bronte"} {
		_, err := svc.Resolve(ctx, Reference{Candidates: []Candidate{{Name: name, Role: RoleAuthor}}})
		require.NoError(t, err)
	}

	limit := 2
	search := "anne"
	authorList, total, err := svc.ListAuthorsWithTotal(ctx, ListAuthorsOptions{Limit: &limit, Search: &search})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, authorList, 1)
	assert.Equal(t, "Anne Bronte", authorList[0].PrimaryName)
}
