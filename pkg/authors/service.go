package authors

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/quartobooks/quarto/pkg/bibsource"
	"github.com/quartobooks/quarto/pkg/errcodes"
	"github.com/quartobooks/quarto/pkg/models"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

const (
	RoleAuthor = "author"
	RoleEditor = "editor"
)

// SourceClient is the slice of the external source client the resolver
// needs. Satisfied by *bibsource.Client.
type SourceClient interface {
	AuthorByID(ctx context.Context, externalID string) (*bibsource.AuthorDetail, error)
	SearchAuthors(ctx context.Context, namePrefix string) ([]*bibsource.AuthorSummary, error)
}

// Candidate is one possible display name for the author being resolved,
// tagged with the role it was supplied under.
type Candidate struct {
	Name string
	Role string
}

// Reference identifies the author to resolve: an external identifier, one
// or more candidate names, a pre-selected author, or any combination. A
// pre-selected author always wins; it models a caller-held value from an
// earlier step of a multi-step flow and is threaded explicitly, never
// ambient.
type Reference struct {
	ExternalID string
	Candidates []Candidate
	Selected   *models.Author
}

type RetrieveAuthorOptions struct {
	ID         *int
	ExternalID *string
	Name       *string
}

type ListAuthorsOptions struct {
	Limit  *int
	Offset *int
	Search *string

	includeTotal bool
}

type Service struct {
	db     *bun.DB
	source SourceClient
	log    logger.Logger
}

func NewService(db *bun.DB, source SourceClient) *Service {
	return &Service{db: db, source: source, log: logger.New()}
}

// Resolve produces exactly one canonical local author for the reference,
// creating, matching, or enriching records as needed. Resolution order:
// explicit override, external-identifier match, name match against search
// names and accumulated aliases, re-match against the source's declared
// alternates, creation.
func (svc *Service) Resolve(ctx context.Context, ref Reference) (*models.Author, error) {
	// Explicit override: used as-is, enrichment never replaces its identity.
	if ref.Selected != nil {
		svc.enrich(ctx, ref.Selected, coalesce(ref.ExternalID, derefOrEmpty(ref.Selected.ExternalID)))
		return ref.Selected, nil
	}

	if ref.ExternalID != "" {
		author, err := svc.findByExternalID(ctx, ref.ExternalID)
		if err == nil {
			svc.enrich(ctx, author, ref.ExternalID)
			return author, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}

	for _, candidate := range ref.Candidates {
		author, err := svc.findByName(ctx, candidate.Name)
		if err == nil {
			svc.enrich(ctx, author, coalesce(ref.ExternalID, derefOrEmpty(author.ExternalID)))
			return author, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}

	// Nothing local matched. If the source knows this identifier, its
	// declared alternate names may still point at an author we already
	// have under a different external record.
	if ref.ExternalID != "" {
		detail, err := svc.source.AuthorByID(ctx, ref.ExternalID)
		if err != nil {
			svc.log.Err(err).Warn("author detail fetch failed during resolution", logger.Data{"external_id": ref.ExternalID})
		} else {
			names := append([]string{detail.Name, detail.RealName()}, detail.AlternateNames...)
			for _, name := range names {
				author, err := svc.findByName(ctx, name)
				if err == nil {
					svc.applyDetail(ctx, author, detail)
					return author, nil
				}
				if !errors.Is(err, sql.ErrNoRows) {
					return nil, err
				}
			}

			// Genuinely new author, known to the source.
			primary := coalesce(detail.Name, firstCandidateName(ref.Candidates))
			searched := coalesce(firstCandidateName(ref.Candidates), detail.Name)
			author, err := svc.create(ctx, primary, searched, &ref.ExternalID)
			if err != nil {
				return nil, err
			}
			svc.applyDetail(ctx, author, detail)
			return author, nil
		}

		// The source is unreachable but the identifier is usable on its own.
		if name := firstCandidateName(ref.Candidates); name != "" {
			return svc.create(ctx, name, name, &ref.ExternalID)
		}
	}

	name := firstCandidateName(ref.Candidates)
	if name == "" {
		return nil, errcodes.AmbiguousAuthorReference()
	}
	return svc.create(ctx, name, name, nil)
}

func (svc *Service) RetrieveAuthor(ctx context.Context, opts RetrieveAuthorOptions) (*models.Author, error) {
	if opts.ExternalID != nil {
		author, err := svc.findByExternalID(ctx, *opts.ExternalID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Author")
		}
		return author, err
	}
	if opts.Name != nil {
		author, err := svc.findByName(ctx, *opts.Name)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Author")
		}
		return author, err
	}

	author := &models.Author{}
	q := svc.db.
		NewSelect().
		Model(author).
		Relation("Aliases").
		Relation("ExternalIDs")
	if opts.ID != nil {
		q = q.Where("a.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Author")
		}
		return nil, errors.WithStack(err)
	}
	return author, nil
}

func (svc *Service) ListAuthors(ctx context.Context, opts ListAuthorsOptions) ([]*models.Author, error) {
	a, _, err := svc.listAuthorsWithTotal(ctx, opts)
	return a, errors.WithStack(err)
}

func (svc *Service) ListAuthorsWithTotal(ctx context.Context, opts ListAuthorsOptions) ([]*models.Author, int, error) {
	opts.includeTotal = true
	return svc.listAuthorsWithTotal(ctx, opts)
}

func (svc *Service) listAuthorsWithTotal(ctx context.Context, opts ListAuthorsOptions) ([]*models.Author, int, error) {
	var authorList []*models.Author
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&authorList).
		Relation("Aliases").
		Order("a.search_name ASC")

	if opts.Search != nil && *opts.Search != "" {
		prefix := strings.ToLower(*opts.Search) + "%"
		q = q.Where("LOWER(a.search_name) LIKE ? OR a.id IN (SELECT author_id FROM author_aliases WHERE LOWER(name) LIKE ?)", prefix, prefix)
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

	return authorList, total, nil
}

// findByExternalID matches on the author's own external identifier or any
// alternate identifier accumulated by enrichment.
func (svc *Service) findByExternalID(ctx context.Context, externalID string) (*models.Author, error) {
	author := &models.Author{}
	err := svc.db.
		NewSelect().
		Model(author).
		Relation("Aliases").
		Relation("ExternalIDs").
		Where("a.external_id = ? OR a.id IN (SELECT author_id FROM author_external_ids WHERE external_id = ?)", externalID, externalID).
		OrderExpr("a.id ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return author, nil
}

// findByName matches name against search names and aliases,
// case-insensitively. Ties break toward the oldest record.
func (svc *Service) findByName(ctx context.Context, name string) (*models.Author, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.WithStack(sql.ErrNoRows)
	}

	author := &models.Author{}
	err := svc.db.
		NewSelect().
		Model(author).
		Relation("Aliases").
		Relation("ExternalIDs").
		Where("a.search_name = ? COLLATE NOCASE OR a.id IN (SELECT author_id FROM author_aliases WHERE name = ? COLLATE NOCASE)", name, name).
		OrderExpr("a.id ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return author, nil
}

// create inserts a new author. When an external identifier is supplied the
// insert is an insert-or-get: losing a unique-constraint race falls back to
// the record the winner created.
func (svc *Service) create(ctx context.Context, primaryName, searchedName string, externalID *string) (*models.Author, error) {
	now := time.Now()
	author := &models.Author{
		CreatedAt:   now,
		UpdatedAt:   now,
		ExternalID:  externalID,
		PrimaryName: strings.TrimSpace(primaryName),
		SearchName:  strings.ToLower(strings.TrimSpace(searchedName)),
	}

	q := svc.db.
		NewInsert().
		Model(author).
		Returning("*")
	if externalID != nil {
		q = q.On("CONFLICT (external_id) WHERE external_id IS NOT NULL DO NOTHING")
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if externalID != nil {
		if n, raErr := res.RowsAffected(); raErr == nil && n == 0 {
			// Lost the creation race; resolve to the winner's record.
			return svc.findByExternalID(ctx, *externalID)
		}
	}
	return author, nil
}

// enrich fetches external details for the author and merges them in.
// Failures are non-fatal: the base identity is already established, so
// errors are logged and resolution continues with unenriched data.
func (svc *Service) enrich(ctx context.Context, author *models.Author, externalID string) {
	if externalID == "" {
		return
	}

	detail, err := svc.source.AuthorByID(ctx, externalID)
	if err != nil {
		svc.log.Err(err).Warn("author enrichment fetch failed", logger.Data{"author_id": author.ID, "external_id": externalID})
		return
	}

	svc.applyDetail(ctx, author, detail)
}

// applyDetail merges fetched source details into the author: missing
// alternate names are appended (never removed), differing external
// identifiers are recorded as alternates, and the primary name is run
// through pen-name formatting. The search name is never touched, so
// lookups by the originally searched name keep matching.
func (svc *Service) applyDetail(ctx context.Context, author *models.Author, detail *bibsource.AuthorDetail) {
	if err := svc.appendAliases(ctx, author, detail.AlternateNames); err != nil {
		svc.log.Err(err).Warn("failed to append author aliases", logger.Data{"author_id": author.ID})
	}

	if detail.ExternalID != "" {
		if err := svc.recordExternalID(ctx, author, detail.ExternalID); err != nil {
			svc.log.Err(err).Warn("failed to record author external id", logger.Data{"author_id": author.ID, "external_id": detail.ExternalID})
		}
	}

	real := detail.RealName()
	if real != "" && real != author.PrimaryName {
		alternates := append(author.AliasNames(), detail.AlternateNames...)
		formatted := FormatPenName(real, author.PrimaryName, alternates)
		if formatted != author.PrimaryName {
			author.PrimaryName = formatted
			author.UpdatedAt = time.Now()
			_, err := svc.db.
				NewUpdate().
				Model(author).
				Column("primary_name", "updated_at").
				WherePK().
				Exec(ctx)
			if err != nil {
				svc.log.Err(err).Warn("failed to update author primary name", logger.Data{"author_id": author.ID})
			}
		}
	}
}

func (svc *Service) appendAliases(ctx context.Context, author *models.Author, names []string) error {
	next := len(author.Aliases) + 1
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || author.HasAlias(name) {
			continue
		}

		alias := &models.AuthorAlias{
			CreatedAt: time.Now(),
			AuthorID:  author.ID,
			Name:      name,
			SortOrder: next,
		}
		_, err := svc.db.
			NewInsert().
			Model(alias).
			On("CONFLICT (author_id, name) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		author.Aliases = append(author.Aliases, alias)
		next++
	}
	return nil
}

func (svc *Service) recordExternalID(ctx context.Context, author *models.Author, externalID string) error {
	if author.ExternalID == nil {
		author.ExternalID = &externalID
		author.UpdatedAt = time.Now()
		_, err := svc.db.
			NewUpdate().
			Model(author).
			Column("external_id", "updated_at").
			WherePK().
			Exec(ctx)
		if err == nil {
			return nil
		}
		// Another author already holds this identifier; fall through and
		// record it as an alternate instead.
		author.ExternalID = nil
	} else if *author.ExternalID == externalID {
		return nil
	}
	for _, known := range author.ExternalIDs {
		if known.ExternalID == externalID {
			return nil
		}
	}

	alt := &models.AuthorExternalID{
		CreatedAt:  time.Now(),
		AuthorID:   author.ID,
		ExternalID: externalID,
	}
	_, err := svc.db.
		NewInsert().
		Model(alt).
		On("CONFLICT (external_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	author.ExternalIDs = append(author.ExternalIDs, alt)
	return nil
}

func firstCandidateName(candidates []Candidate) string {
	for _, c := range candidates {
		if c.Role != RoleEditor && strings.TrimSpace(c.Name) != "" {
			return strings.TrimSpace(c.Name)
		}
	}
	return ""
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
