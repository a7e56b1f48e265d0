package shelving

import (
	"context"
	"database/sql"
	"testing"

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

func TestResolveShelfPath(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewService(db)

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

	path, err := svc.ResolveShelfPath(ctx, shelf.ID)
	require.NoError(t, err)
	assert.Equal(t, "Main House > Study > North Wall > Shelf 3", path.String())
	assert.Equal(t, location.ID, path.Location.ID)
	assert.Equal(t, shelf.ID, path.Shelf.ID)
}

func TestResolveShelfPathMissingShelf(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	_, err := svc.ResolveShelfPath(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, errcodes.HasCode(err, errcodes.CodeShelfResolutionFailure))
}

func TestResolveShelfPathBrokenChain(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewService(db)

	// A shelf whose bookcase doesn't exist.
	shelf := &models.Shelf{BookcaseID: 999, Label: "Orphan"}
	_, err := db.NewInsert().Model(shelf).Exec(ctx)
	require.NoError(t, err)

	_, err = svc.ResolveShelfPath(ctx, shelf.ID)
	require.Error(t, err)
	assert.True(t, errcodes.HasCode(err, errcodes.CodeShelfResolutionFailure))
}
