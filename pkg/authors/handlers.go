package authors

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/quartobooks/quarto/pkg/errcodes"
)

type handler struct {
	authorService *Service
}

func (h *handler) resolve(c echo.Context) error {
	ctx := c.Request().Context()

	params := ResolveAuthorPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	ref := Reference{}
	if params.ExternalID != nil {
		ref.ExternalID = *params.ExternalID
	}
	for _, candidate := range params.Candidates {
		ref.Candidates = append(ref.Candidates, Candidate{
			Name: candidate.Name,
			Role: candidate.Role,
		})
	}
	if params.SelectedID != nil {
		selected, err := h.authorService.RetrieveAuthor(ctx, RetrieveAuthorOptions{ID: params.SelectedID})
		if err != nil {
			return errors.WithStack(err)
		}
		ref.Selected = selected
	}

	author, err := h.authorService.Resolve(ctx, ref)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, author))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Author")
	}

	author, err := h.authorService.RetrieveAuthor(ctx, RetrieveAuthorOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, author))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListAuthorsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	authorList, total, err := h.authorService.ListAuthorsWithTotal(ctx, ListAuthorsOptions{
		Limit:  &params.Limit,
		Offset: &params.Offset,
		Search: params.Search,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	response := map[string]interface{}{
		"authors": authorList,
		"total":   total,
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}
