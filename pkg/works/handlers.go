package works

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/quartobooks/quarto/pkg/authors"
	"github.com/quartobooks/quarto/pkg/errcodes"
	"github.com/quartobooks/quarto/pkg/models"
)

type handler struct {
	workService   *Service
	authorService *authors.Service
	source        SourceClient
}

// search queries the external catalog for candidate works; results are
// cached upstream, so repeated lookups during one cataloging session stay
// cheap.
func (h *handler) search(c echo.Context) error {
	ctx := c.Request().Context()

	params := SearchWorksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	results, err := h.source.SearchWorks(ctx, params.Title, derefOrEmpty(params.Author))
	if err != nil {
		return errors.WithStack(err)
	}

	response := map[string]interface{}{
		"results": results,
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}

func (h *handler) resolve(c echo.Context) error {
	ctx := c.Request().Context()

	params := ResolveWorkPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	authorSet, editorSet, err := h.resolveAttribution(c, params.Authors, params.Editors)
	if err != nil {
		return errors.WithStack(err)
	}

	work, err := h.workService.Resolve(ctx, Reference{
		ExternalID: derefOrEmpty(params.ExternalID),
		Title:      params.Title,
		Type:       params.Type,
	}, authorSet, editorSet)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, work))
}

func (h *handler) assemble(c echo.Context) error {
	ctx := c.Request().Context()

	params := AssembleSetPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	authorSet, editorSet, err := h.resolveAttribution(c, params.Authors, params.Editors)
	if err != nil {
		return errors.WithStack(err)
	}

	ref := Reference{
		ExternalID: derefOrEmpty(params.ExternalID),
		Title:      params.Title,
		Type:       params.Type,
	}

	var parent *models.Work
	switch params.EntryType {
	case EntryTypeComplete:
		if params.VolumeCount == nil {
			return errcodes.InvalidMultiVolumeRequest("A complete set needs a volume count.")
		}
		parent, err = h.workService.AssembleComplete(ctx, ref, authorSet, editorSet, *params.VolumeCount)
	case EntryTypeSingle:
		if params.VolumeNumber == nil {
			return errcodes.InvalidMultiVolumeRequest("A single volume entry needs a volume number.")
		}
		parent, err = h.workService.AssembleSingle(ctx, params.Title, *params.VolumeNumber, ref, authorSet, editorSet)
	case EntryTypePartial:
		parent, err = h.workService.AssemblePartial(ctx, ref, authorSet, editorSet, params.VolumeNumbers)
	}
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, parent))
}

func (h *handler) anthology(c echo.Context) error {
	ctx := c.Request().Context()

	params := AssembleAnthologyPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	components := make([]*models.Work, 0, len(params.ComponentWorkIDs))
	for _, id := range params.ComponentWorkIDs {
		workID := id
		component, err := h.workService.RetrieveWork(ctx, RetrieveWorkOptions{ID: &workID})
		if err != nil {
			return errors.WithStack(err)
		}
		components = append(components, component)
	}

	_, editorSet, err := h.resolveAttribution(c, nil, params.Editors)
	if err != nil {
		return errors.WithStack(err)
	}

	anthology, err := h.workService.AssembleAnthology(ctx, params.Title, components, editorSet)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, anthology))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Work")
	}

	work, err := h.workService.RetrieveWork(ctx, RetrieveWorkOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, work))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListWorksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	workList, total, err := h.workService.ListWorksWithTotal(ctx, ListWorksOptions{
		Limit:  &params.Limit,
		Offset: &params.Offset,
		Search: params.Search,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	response := map[string]interface{}{
		"works": workList,
		"total": total,
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}

// resolveAttribution turns the request's author and editor references into
// canonical author records, resolving each through the author service.
func (h *handler) resolveAttribution(c echo.Context, authorRefs, editorRefs []AttributionPayload) ([]*models.Author, []*models.Author, error) {
	ctx := c.Request().Context()

	resolveAll := func(refs []AttributionPayload, role string) ([]*models.Author, error) {
		resolved := make([]*models.Author, 0, len(refs))
		for _, ref := range refs {
			authorRef := authors.Reference{
				ExternalID: derefOrEmpty(ref.ExternalID),
			}
			if ref.Name != nil {
				authorRef.Candidates = []authors.Candidate{{Name: *ref.Name, Role: role}}
			}
			if ref.SelectedID != nil {
				selected, err := h.authorService.RetrieveAuthor(ctx, authors.RetrieveAuthorOptions{ID: ref.SelectedID})
				if err != nil {
					return nil, err
				}
				authorRef.Selected = selected
			}

			author, err := h.authorService.Resolve(ctx, authorRef)
			if err != nil {
				return nil, err
			}
			resolved = append(resolved, author)
		}
		return resolved, nil
	}

	authorSet, err := resolveAll(authorRefs, authors.RoleAuthor)
	if err != nil {
		return nil, nil, err
	}
	editorSet, err := resolveAll(editorRefs, authors.RoleEditor)
	if err != nil {
		return nil, nil, err
	}
	return authorSet, editorSet, nil
}
