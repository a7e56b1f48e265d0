package catalog

import (
	"context"
	"database/sql"
	"testing"

	"github.com/quartobooks/quarto/pkg/errcodes"
	"github.com/quartobooks/quarto/pkg/migrations"
	"github.com/quartobooks/quarto/pkg/models"
	"github.com/quartobooks/quarto/pkg/shelving"
	"github.com/robinjoseph08/golib/logger"
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

func newTestService(t *testing.T, db *bun.DB) *Service {
	t.Helper()
	return NewService(db, shelving.NewService(db), logger.New())
}

func createWork(t *testing.T, db *bun.DB, title string) *models.Work {
	t.Helper()

	work := &models.Work{
		Title:      title,
		SearchName: title,
		Type:       models.WorkTypeNovel,
	}
	_, err := db.NewInsert().Model(work).Exec(context.Background())
	require.NoError(t, err)
	return work
}

func createShelf(t *testing.T, db *bun.DB) *models.Shelf {
	t.Helper()
	ctx := context.Background()

	location := &models.Location{Name: "Main House"}
	_, err := db.NewInsert().Model(location).Exec(ctx)
	require.NoError(t, err)

	room := &models.Room{LocationID: location.ID, Name: "Study"}
	_, err = db.NewInsert().Model(room).Exec(ctx)
	require.NoError(t, err)

	bookcase := &models.Bookcase{RoomID: room.ID, Name: "North Wall"}
	_, err = db.NewInsert().Model(bookcase).Exec(ctx)
	require.NoError(t, err)

	shelf := &models.Shelf{BookcaseID: bookcase.ID, Label: "Shelf 3"}
	_, err = db.NewInsert().Model(shelf).Exec(ctx)
	require.NoError(t, err)

	return shelf
}

func TestWriteCopyFirstCopy(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)
	work := createWork(t, db, "Middlemarch")
	shelf := createShelf(t, db)

	result, err := svc.WriteCopy(ctx, WriteCopyParams{
		WorkID:    work.ID,
		Publisher: "Penguin",
		Format:    "paperback",
		Condition: "good",
		ShelfID:   &shelf.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, work.ID, result.Edition.WorkID)
	assert.Equal(t, "Penguin", result.Edition.Publisher)
	assert.True(t, result.Copy.IsShelved())
	assert.Equal(t, shelf.ID, *result.Copy.ShelfID)
	assert.Equal(t, `Added "Middlemarch" to the library, shelved at Main House > Study > North Wall > Shelf 3.`, result.Message)
}

func TestWriteCopyDuplicateGate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)
	work := createWork(t, db, "Middlemarch")

	_, err := svc.WriteCopy(ctx, WriteCopyParams{WorkID: work.ID, Format: "hardcover", Condition: "good"})
	require.NoError(t, err)

	// Unconfirmed second entry is held, and nothing is written.
	_, err = svc.WriteCopy(ctx, WriteCopyParams{WorkID: work.ID, Format: "paperback", Condition: "fair"})
	require.Error(t, err)
	assert.True(t, errcodes.HasCode(err, errcodes.CodeDuplicateCopyPending))

	copies, err := svc.CountCopies(ctx, work.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, copies)

	editions, err := db.NewSelect().Model((*models.Edition)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, editions)

	// Confirmed entry goes through and gets its own edition.
	result, err := svc.WriteCopy(ctx, WriteCopyParams{
		WorkID:           work.ID,
		Format:           "paperback",
		Condition:        "fair",
		ConfirmDuplicate: true,
	})
	require.NoError(t, err)
	assert.Equal(t, `Added another copy of "Middlemarch", unshelved.`, result.Message)

	copies, err = svc.CountCopies(ctx, work.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, copies)

	editions, err = db.NewSelect().Model((*models.Edition)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, editions)
}

func TestWriteCopyBrokenShelfDowngradesToUnshelved(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)
	work := createWork(t, db, "Bleak House")

	missing := 9999
	result, err := svc.WriteCopy(ctx, WriteCopyParams{
		WorkID:    work.ID,
		Format:    "hardcover",
		Condition: "good",
		ShelfID:   &missing,
	})
	require.NoError(t, err)

	assert.False(t, result.Copy.IsShelved())
	assert.Nil(t, result.Copy.ShelfID)
	assert.Equal(t, `Added "Bleak House" to the library, unshelved.`, result.Message)
}

func TestListCopiesByWork(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)
	first := createWork(t, db, "Middlemarch")
	second := createWork(t, db, "Bleak House")

	_, err := svc.WriteCopy(ctx, WriteCopyParams{WorkID: first.ID, Format: "hardcover", Condition: "good"})
	require.NoError(t, err)
	_, err = svc.WriteCopy(ctx, WriteCopyParams{WorkID: first.ID, Format: "paperback", Condition: "fair", ConfirmDuplicate: true})
	require.NoError(t, err)
	_, err = svc.WriteCopy(ctx, WriteCopyParams{WorkID: second.ID, Format: "paperback", Condition: "good"})
	require.NoError(t, err)

	copyList, total, err := svc.ListCopiesWithTotal(ctx, ListCopiesOptions{WorkID: &first.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, copyList, 2)
}
