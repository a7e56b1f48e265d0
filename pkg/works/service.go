package works

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/quartobooks/quarto/pkg/database"
	"github.com/quartobooks/quarto/pkg/errcodes"
	"github.com/quartobooks/quarto/pkg/models"
	"github.com/uptrace/bun"
)

// Entry types for multi-volume assembly.
const (
	EntryTypeStandalone = "standalone"
	EntryTypeComplete   = "complete"
	EntryTypeSingle     = "single"
	EntryTypePartial    = "partial"
)

// volumeSuffixRE matches a trailing volume suffix like ", Volume 3" or
// "Volume 3". "Volume" is case-sensitive on purpose: lowercase "volume" in
// a title is part of the title.
var volumeSuffixRE = regexp.MustCompile(`(?:,\s*)?Volume\s+\d+\s*$`)

// Reference identifies the work to resolve.
type Reference struct {
	ExternalID string
	Title      string
	Type       string
}

type RetrieveWorkOptions struct {
	ID         *int
	ExternalID *string
}

type ListWorksOptions struct {
	Limit  *int
	Offset *int
	Search *string

	includeTotal bool
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// NormalizeTitle strips a trailing volume suffix so "War and Peace,
// Volume 2" and "War and Peace" resolve to the same stored title.
func NormalizeTitle(title string) string {
	return strings.TrimSpace(volumeSuffixRE.ReplaceAllString(strings.TrimSpace(title), ""))
}

// Resolve produces exactly one canonical local work for the reference.
// A known external identifier returns the existing work with its author and
// editor sets wholesale replaced by the newly resolved ones; this is a
// deliberate last-writer-wins policy that lets a session correct
// misattribution discovered while re-confirming.
func (svc *Service) Resolve(ctx context.Context, ref Reference, authorSet, editorSet []*models.Author) (*models.Work, error) {
	if ref.ExternalID != "" {
		work, err := svc.findByExternalID(ctx, ref.ExternalID)
		if err == nil {
			if err := svc.replaceAttribution(ctx, work, authorSet, editorSet); err != nil {
				return nil, err
			}
			return work, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}

	return svc.createWork(ctx, ref, authorSet, editorSet, false, nil)
}

// AssembleComplete creates a set parent plus volumes 1..volumeCount, all
// sharing the resolved authors and editors.
func (svc *Service) AssembleComplete(ctx context.Context, ref Reference, authorSet, editorSet []*models.Author, volumeCount int) (*models.Work, error) {
	if volumeCount < 1 {
		return nil, errcodes.InvalidMultiVolumeRequest("A complete set needs at least one volume.")
	}

	numbers := make([]int, volumeCount)
	for i := range numbers {
		numbers[i] = i + 1
	}
	return svc.assembleSet(ctx, ref, authorSet, editorSet, numbers)
}

// AssemblePartial creates a set parent for an explicit list of volume
// numbers, supporting out-of-order entry of a set of uncertain length. The
// parent is always freshly created in this path.
func (svc *Service) AssemblePartial(ctx context.Context, ref Reference, authorSet, editorSet []*models.Author, volumeNumbers []int) (*models.Work, error) {
	if len(volumeNumbers) == 0 {
		return nil, errcodes.InvalidMultiVolumeRequest("A partial set needs at least one volume number.")
	}
	seen := map[int]bool{}
	for _, n := range volumeNumbers {
		if n < 1 {
			return nil, errcodes.InvalidMultiVolumeRequest(fmt.Sprintf("Volume number %d is invalid.", n))
		}
		if seen[n] {
			return nil, errcodes.InvalidMultiVolumeRequest(fmt.Sprintf("Volume number %d appears more than once.", n))
		}
		seen[n] = true
	}
	return svc.assembleSet(ctx, ref, authorSet, editorSet, volumeNumbers)
}

// AssembleSingle adds one volume to an existing set parent, creating the
// parent when no work with the set title exists yet.
func (svc *Service) AssembleSingle(ctx context.Context, setTitle string, volumeNumber int, ref Reference, authorSet, editorSet []*models.Author) (*models.Work, error) {
	if volumeNumber < 1 {
		return nil, errcodes.InvalidMultiVolumeRequest("A single volume entry needs a volume number.")
	}
	setTitle = NormalizeTitle(setTitle)
	if setTitle == "" {
		return nil, errcodes.InvalidMultiVolumeRequest("A single volume entry needs a set title.")
	}

	parent, err := svc.findSetParentByTitle(ctx, setTitle)
	if errors.Is(err, sql.ErrNoRows) {
		parentRef := Reference{Title: setTitle, Type: ref.Type}
		parent, err = svc.createWork(ctx, parentRef, authorSet, editorSet, true, nil)
	}
	if err != nil {
		return nil, err
	}

	volNumber := volumeNumber
	volRef := Reference{
		ExternalID: ref.ExternalID,
		Title:      fmt.Sprintf("%s, Volume %d", setTitle, volumeNumber),
		Type:       ref.Type,
	}
	volume, err := svc.createWork(ctx, volRef, authorSet, editorSet, true, &volNumber)
	if err != nil {
		return nil, err
	}

	if err := svc.linkComponent(ctx, parent, volume); err != nil {
		return nil, err
	}
	return parent, nil
}

// AssembleAnthology creates a collection work from two or more
// independently resolved component works bound together physically. The
// title is caller-supplied, never derived; the author set is the union of
// all component authors; editors describe the bound volume itself and come
// from the caller.
func (svc *Service) AssembleAnthology(ctx context.Context, title string, components []*models.Work, editorSet []*models.Author) (*models.Work, error) {
	if len(components) < 2 {
		return nil, errcodes.InvalidMultiVolumeRequest("An anthology needs at least two component works.")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errcodes.InvalidMultiVolumeRequest("An anthology needs a title.")
	}

	var authorUnion []*models.Author
	seen := map[int]bool{}
	for _, component := range components {
		for _, wa := range component.Authors {
			if wa.Author == nil || seen[wa.AuthorID] {
				continue
			}
			seen[wa.AuthorID] = true
			authorUnion = append(authorUnion, wa.Author)
		}
	}

	now := time.Now()
	anthology := &models.Work{
		CreatedAt:  now,
		UpdatedAt:  now,
		Title:      title,
		SearchName: strings.ToLower(title),
		Type:       models.WorkTypeCollection,
	}

	err := database.RunInTx(ctx, svc.db, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(anthology).Returning("*").Exec(ctx); err != nil {
			return errors.WithStack(err)
		}
		if err := insertAttribution(ctx, tx, anthology, authorUnion, editorSet); err != nil {
			return err
		}
		for _, component := range components {
			link := &models.WorkComponent{
				ParentWorkID:    anthology.ID,
				ComponentWorkID: component.ID,
			}
			if _, err := tx.NewInsert().Model(link).On("CONFLICT (parent_work_id, component_work_id) DO NOTHING").Exec(ctx); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return svc.RetrieveWork(ctx, RetrieveWorkOptions{ID: &anthology.ID})
}

func (svc *Service) RetrieveWork(ctx context.Context, opts RetrieveWorkOptions) (*models.Work, error) {
	work := &models.Work{}

	q := svc.db.
		NewSelect().
		Model(work).
		Relation("Authors").
		Relation("Authors.Author").
		Relation("Editors").
		Relation("Editors.Author").
		Relation("Components").
		Relation("Components.Component")

	if opts.ID != nil {
		q = q.Where("w.id = ?", *opts.ID)
	}
	if opts.ExternalID != nil {
		q = q.Where("w.external_id = ?", *opts.ExternalID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Work")
		}
		return nil, errors.WithStack(err)
	}
	return work, nil
}

func (svc *Service) ListWorks(ctx context.Context, opts ListWorksOptions) ([]*models.Work, error) {
	w, _, err := svc.listWorksWithTotal(ctx, opts)
	return w, errors.WithStack(err)
}

func (svc *Service) ListWorksWithTotal(ctx context.Context, opts ListWorksOptions) ([]*models.Work, int, error) {
	opts.includeTotal = true
	return svc.listWorksWithTotal(ctx, opts)
}

func (svc *Service) listWorksWithTotal(ctx context.Context, opts ListWorksOptions) ([]*models.Work, int, error) {
	var workList []*models.Work
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&workList).
		Relation("Authors").
		Relation("Authors.Author").
		Order("w.search_name ASC")

	if opts.Search != nil && *opts.Search != "" {
		q = q.Where("LOWER(w.search_name) LIKE ?", strings.ToLower(*opts.Search)+"%")
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

	return workList, total, nil
}

// assembleSet creates a fresh parent work and one volume per number, all
// inside one transaction so a failed volume never leaves a half-built set.
func (svc *Service) assembleSet(ctx context.Context, ref Reference, authorSet, editorSet []*models.Author, volumeNumbers []int) (*models.Work, error) {
	title := NormalizeTitle(ref.Title)
	if title == "" {
		return nil, errcodes.InvalidMultiVolumeRequest("A multi-volume set needs a title.")
	}

	now := time.Now()
	parent := &models.Work{
		CreatedAt:     now,
		UpdatedAt:     now,
		Title:         title,
		SearchName:    strings.ToLower(title),
		ExternalID:    nilIfEmpty(ref.ExternalID),
		Type:          ref.Type,
		IsMultivolume: true,
	}

	err := database.RunInTx(ctx, svc.db, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(parent).Returning("*").Exec(ctx); err != nil {
			return errors.WithStack(err)
		}
		if err := insertAttribution(ctx, tx, parent, authorSet, editorSet); err != nil {
			return err
		}

		for _, n := range volumeNumbers {
			number := n
			volume := &models.Work{
				CreatedAt:    now,
				UpdatedAt:    now,
				Title:        fmt.Sprintf("%s, Volume %d", title, n),
				SearchName:   strings.ToLower(fmt.Sprintf("%s, volume %d", title, n)),
				Type:         ref.Type,
				VolumeNumber: &number,
			}
			if _, err := tx.NewInsert().Model(volume).Returning("*").Exec(ctx); err != nil {
				return errors.WithStack(err)
			}
			if err := insertAttribution(ctx, tx, volume, authorSet, editorSet); err != nil {
				return err
			}

			link := &models.WorkComponent{
				ParentWorkID:    parent.ID,
				ComponentWorkID: volume.ID,
			}
			if _, err := tx.NewInsert().Model(link).Exec(ctx); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return svc.RetrieveWork(ctx, RetrieveWorkOptions{ID: &parent.ID})
}

// createWork inserts a new work with its attribution join rows. When an
// external identifier is present the insert is an insert-or-get: losing the
// unique-constraint race re-resolves through the winner's record.
func (svc *Service) createWork(ctx context.Context, ref Reference, authorSet, editorSet []*models.Author, multivolumeContext bool, volumeNumber *int) (*models.Work, error) {
	title := ref.Title
	if volumeNumber == nil {
		title = NormalizeTitle(title)
	} else {
		title = strings.TrimSpace(title)
	}
	if title == "" {
		return nil, errcodes.ValidationError("Work title can't be empty.")
	}

	now := time.Now()
	work := &models.Work{
		CreatedAt:     now,
		UpdatedAt:     now,
		Title:         title,
		SearchName:    strings.ToLower(title),
		ExternalID:    nilIfEmpty(ref.ExternalID),
		Type:          ref.Type,
		IsMultivolume: multivolumeContext && volumeNumber == nil,
		VolumeNumber:  volumeNumber,
	}

	raceLost := false
	err := database.RunInTx(ctx, svc.db, func(ctx context.Context, tx bun.Tx) error {
		raceLost = false
		q := tx.NewInsert().Model(work).Returning("*")
		if work.ExternalID != nil {
			q = q.On("CONFLICT (external_id) WHERE external_id IS NOT NULL DO NOTHING")
		}
		res, err := q.Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if work.ExternalID != nil {
			if n, raErr := res.RowsAffected(); raErr == nil && n == 0 {
				raceLost = true
				return nil
			}
		}
		return insertAttribution(ctx, tx, work, authorSet, editorSet)
	})
	if err != nil {
		return nil, err
	}
	if raceLost {
		// A concurrent entry created this work first; re-resolve so the
		// attribution replacement applies to the surviving record.
		existing, err := svc.findByExternalID(ctx, ref.ExternalID)
		if err != nil {
			return nil, err
		}
		if err := svc.replaceAttribution(ctx, existing, authorSet, editorSet); err != nil {
			return nil, err
		}
		return existing, nil
	}

	return svc.RetrieveWork(ctx, RetrieveWorkOptions{ID: &work.ID})
}

// replaceAttribution swaps the work's author and editor sets for the given
// ones in one transaction. Last writer wins.
func (svc *Service) replaceAttribution(ctx context.Context, work *models.Work, authorSet, editorSet []*models.Author) error {
	err := database.RunInTx(ctx, svc.db, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*models.WorkAuthor)(nil)).Where("work_id = ?", work.ID).Exec(ctx); err != nil {
			return errors.WithStack(err)
		}
		if _, err := tx.NewDelete().Model((*models.WorkEditor)(nil)).Where("work_id = ?", work.ID).Exec(ctx); err != nil {
			return errors.WithStack(err)
		}
		return insertAttribution(ctx, tx, work, authorSet, editorSet)
	})
	if err != nil {
		return err
	}

	refreshed, err := svc.RetrieveWork(ctx, RetrieveWorkOptions{ID: &work.ID})
	if err != nil {
		return err
	}
	work.Authors = refreshed.Authors
	work.Editors = refreshed.Editors
	return nil
}

func (svc *Service) linkComponent(ctx context.Context, parent, component *models.Work) error {
	link := &models.WorkComponent{
		ParentWorkID:    parent.ID,
		ComponentWorkID: component.ID,
	}
	_, err := svc.db.
		NewInsert().
		Model(link).
		On("CONFLICT (parent_work_id, component_work_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	parent.Components = append(parent.Components, &models.WorkComponent{
		ParentWorkID:    parent.ID,
		ComponentWorkID: component.ID,
		Component:       component,
	})
	return nil
}

func (svc *Service) findByExternalID(ctx context.Context, externalID string) (*models.Work, error) {
	work := &models.Work{}
	err := svc.db.
		NewSelect().
		Model(work).
		Relation("Authors").
		Relation("Authors.Author").
		Relation("Editors").
		Relation("Editors.Author").
		Relation("Components").
		Relation("Components.Component").
		Where("w.external_id = ?", externalID).
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return work, nil
}

// findSetParentByTitle locates an existing set parent by exact title.
func (svc *Service) findSetParentByTitle(ctx context.Context, title string) (*models.Work, error) {
	work := &models.Work{}
	err := svc.db.
		NewSelect().
		Model(work).
		Relation("Authors").
		Relation("Authors.Author").
		Relation("Components").
		Relation("Components.Component").
		Where("w.title = ? AND w.is_multivolume AND w.volume_number IS NULL", title).
		OrderExpr("w.id ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return work, nil
}

func insertAttribution(ctx context.Context, tx bun.Tx, work *models.Work, authorSet, editorSet []*models.Author) error {
	for i, author := range authorSet {
		row := &models.WorkAuthor{
			WorkID:    work.ID,
			AuthorID:  author.ID,
			SortOrder: i + 1,
		}
		if _, err := tx.NewInsert().Model(row).On("CONFLICT (work_id, author_id) DO NOTHING").Exec(ctx); err != nil {
			return errors.WithStack(err)
		}
	}
	for i, editor := range editorSet {
		row := &models.WorkEditor{
			WorkID:    work.ID,
			AuthorID:  editor.ID,
			SortOrder: i + 1,
		}
		if _, err := tx.NewInsert().Model(row).On("CONFLICT (work_id, author_id) DO NOTHING").Exec(ctx); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
