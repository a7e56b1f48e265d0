package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/quartobooks/quarto/pkg/database"
	"github.com/quartobooks/quarto/pkg/errcodes"
	"github.com/quartobooks/quarto/pkg/models"
	"github.com/quartobooks/quarto/pkg/shelving"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

// ShelfResolver resolves a shelf id to its full physical path.
type ShelfResolver interface {
	ResolveShelfPath(ctx context.Context, shelfID int) (*shelving.ShelfPath, error)
}

// WriteCopyParams describes one confirmed catalog entry.
type WriteCopyParams struct {
	WorkID    int
	Publisher string
	Format    string
	Condition string
	ShelfID   *int

	// ConfirmDuplicate acknowledges that copies of the work already exist
	// and a duplicate copy is wanted anyway.
	ConfirmDuplicate bool
}

// WriteCopyResult reports what was written and how to describe it.
type WriteCopyResult struct {
	Edition *models.Edition
	Copy    *models.Copy
	Message string
}

type Service struct {
	db      *bun.DB
	shelves ShelfResolver
	log     logger.Logger
}

func NewService(db *bun.DB, shelves ShelfResolver, log logger.Logger) *Service {
	return &Service{db, shelves, log}
}

// CountCopies returns how many physical copies of the work already exist,
// across all of its editions.
func (svc *Service) CountCopies(ctx context.Context, workID int) (int, error) {
	count, err := svc.db.
		NewSelect().
		Model((*models.Copy)(nil)).
		Join("JOIN editions AS e ON e.id = c.edition_id").
		Where("e.work_id = ?", workID).
		Count(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return count, nil
}

// WriteCopy creates an edition and a copy for the work. When copies of the
// work already exist and the entry isn't confirmed as a deliberate
// duplicate, nothing is written and a DuplicateCopyPending error carries the
// existing count back to the caller; this is a control signal, not a
// failure. Shelf resolution problems downgrade the copy to unshelved rather
// than losing the entry.
func (svc *Service) WriteCopy(ctx context.Context, params WriteCopyParams) (*WriteCopyResult, error) {
	existing, err := svc.CountCopies(ctx, params.WorkID)
	if err != nil {
		return nil, err
	}
	if existing > 0 && !params.ConfirmDuplicate {
		return nil, errcodes.DuplicateCopyPending(existing)
	}

	var path *shelving.ShelfPath
	if params.ShelfID != nil {
		resolved, err := svc.shelves.ResolveShelfPath(ctx, *params.ShelfID)
		if err != nil {
			if !errcodes.HasCode(err, errcodes.CodeShelfResolutionFailure) {
				return nil, err
			}
			svc.log.Err(err).Warn("shelf resolution failed, cataloging copy unshelved", logger.Data{"shelf_id": *params.ShelfID, "work_id": params.WorkID})
		} else {
			path = resolved
		}
	}

	now := time.Now()
	edition := &models.Edition{
		CreatedAt: now,
		UpdatedAt: now,
		WorkID:    params.WorkID,
		Publisher: params.Publisher,
		Format:    params.Format,
	}
	copy := &models.Copy{
		CreatedAt: now,
		UpdatedAt: now,
		Condition: params.Condition,
	}
	if path != nil {
		copy.LocationID = &path.Location.ID
		copy.RoomID = &path.Room.ID
		copy.BookcaseID = &path.Bookcase.ID
		copy.ShelfID = &path.Shelf.ID
	}

	err = database.RunInTx(ctx, svc.db, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(edition).Returning("*").Exec(ctx); err != nil {
			return errors.WithStack(err)
		}
		copy.EditionID = edition.ID
		if _, err := tx.NewInsert().Model(copy).Returning("*").Exec(ctx); err != nil {
			return errors.WithStack(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &WriteCopyResult{
		Edition: edition,
		Copy:    copy,
		Message: svc.message(ctx, params, existing, path),
	}, nil
}

// message describes the outcome: whether the entry added the work's first
// copy to the library or a deliberate duplicate, and where the copy ended
// up.
func (svc *Service) message(ctx context.Context, params WriteCopyParams, existing int, path *shelving.ShelfPath) string {
	work := &models.Work{}
	title := "the work"
	if err := svc.db.NewSelect().Model(work).Where("w.id = ?", params.WorkID).Scan(ctx); err == nil {
		title = fmt.Sprintf("%q", work.Title)
	}

	var entry string
	if existing == 0 {
		entry = fmt.Sprintf("Added %s to the library", title)
	} else {
		entry = fmt.Sprintf("Added another copy of %s", title)
	}

	if path != nil {
		return fmt.Sprintf("%s, shelved at %s.", entry, path)
	}
	return fmt.Sprintf("%s, unshelved.", entry)
}

type RetrieveCopyOptions struct {
	ID *int
}

type ListCopiesOptions struct {
	WorkID *int
	Limit  *int
	Offset *int

	includeTotal bool
}

func (svc *Service) RetrieveCopy(ctx context.Context, opts RetrieveCopyOptions) (*models.Copy, error) {
	copy := &models.Copy{}

	q := svc.db.
		NewSelect().
		Model(copy).
		Relation("Edition").
		Relation("Edition.Work")

	if opts.ID != nil {
		q = q.Where("c.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Copy")
		}
		return nil, errors.WithStack(err)
	}
	return copy, nil
}

func (svc *Service) ListCopies(ctx context.Context, opts ListCopiesOptions) ([]*models.Copy, error) {
	c, _, err := svc.listCopiesWithTotal(ctx, opts)
	return c, errors.WithStack(err)
}

func (svc *Service) ListCopiesWithTotal(ctx context.Context, opts ListCopiesOptions) ([]*models.Copy, int, error) {
	opts.includeTotal = true
	return svc.listCopiesWithTotal(ctx, opts)
}

func (svc *Service) listCopiesWithTotal(ctx context.Context, opts ListCopiesOptions) ([]*models.Copy, int, error) {
	var copyList []*models.Copy
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&copyList).
		Relation("Edition").
		Relation("Edition.Work").
		Order("c.id ASC")

	if opts.WorkID != nil {
		q = q.Join("JOIN editions AS ce ON ce.id = c.edition_id").Where("ce.work_id = ?", *opts.WorkID)
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

	return copyList, total, nil
}
