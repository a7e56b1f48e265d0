package shelving

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"
	"github.com/quartobooks/quarto/pkg/errcodes"
	"github.com/quartobooks/quarto/pkg/models"
	"github.com/uptrace/bun"
)

// ShelfPath is a fully resolved physical placement, from building down to
// shelf label.
type ShelfPath struct {
	Location *models.Location
	Room     *models.Room
	Bookcase *models.Bookcase
	Shelf    *models.Shelf
}

// String renders the path the way it appears in cataloging messages, e.g.
// "Main House > Study > North Wall > Shelf 3".
func (p *ShelfPath) String() string {
	return fmt.Sprintf("%s > %s > %s > %s", p.Location.Name, p.Room.Name, p.Bookcase.Name, p.Shelf.Label)
}

type ListShelvesOptions struct {
	BookcaseID *int
	Limit      *int
	Offset     *int

	includeTotal bool
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// ResolveShelfPath walks the shelf's containment chain up to its location.
// A broken link anywhere in the chain is a ShelfResolutionFailure; callers
// decide whether that is fatal for their operation.
func (svc *Service) ResolveShelfPath(ctx context.Context, shelfID int) (*ShelfPath, error) {
	shelf := &models.Shelf{}
	err := svc.db.
		NewSelect().
		Model(shelf).
		Relation("Bookcase").
		Relation("Bookcase.Room").
		Relation("Bookcase.Room.Location").
		Where("sh.id = ?", shelfID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.ShelfResolutionFailure(shelfID)
		}
		return nil, errors.WithStack(err)
	}
	if shelf.Bookcase == nil || shelf.Bookcase.Room == nil || shelf.Bookcase.Room.Location == nil {
		return nil, errcodes.ShelfResolutionFailure(shelfID)
	}

	return &ShelfPath{
		Location: shelf.Bookcase.Room.Location,
		Room:     shelf.Bookcase.Room,
		Bookcase: shelf.Bookcase,
		Shelf:    shelf,
	}, nil
}

func (svc *Service) RetrieveShelf(ctx context.Context, id int) (*models.Shelf, error) {
	shelf := &models.Shelf{}
	err := svc.db.
		NewSelect().
		Model(shelf).
		Relation("Bookcase").
		Relation("Bookcase.Room").
		Relation("Bookcase.Room.Location").
		Where("sh.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Shelf")
		}
		return nil, errors.WithStack(err)
	}
	return shelf, nil
}

func (svc *Service) ListShelves(ctx context.Context, opts ListShelvesOptions) ([]*models.Shelf, error) {
	s, _, err := svc.listShelvesWithTotal(ctx, opts)
	return s, errors.WithStack(err)
}

func (svc *Service) ListShelvesWithTotal(ctx context.Context, opts ListShelvesOptions) ([]*models.Shelf, int, error) {
	opts.includeTotal = true
	return svc.listShelvesWithTotal(ctx, opts)
}

func (svc *Service) listShelvesWithTotal(ctx context.Context, opts ListShelvesOptions) ([]*models.Shelf, int, error) {
	var shelfList []*models.Shelf
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&shelfList).
		Relation("Bookcase").
		Order("sh.id ASC")

	if opts.BookcaseID != nil {
		q = q.Where("sh.bookcase_id = ?", *opts.BookcaseID)
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return shelfList, total, nil
}

func (svc *Service) ListLocations(ctx context.Context) ([]*models.Location, error) {
	var locationList []*models.Location
	err := svc.db.
		NewSelect().
		Model(&locationList).
		Order("loc.name ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return locationList, nil
}
