package shelving

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/quartobooks/quarto/pkg/errcodes"
)

type handler struct {
	shelfService *Service
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Shelf")
	}

	shelf, err := h.shelfService.RetrieveShelf(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, shelf))
}

// path resolves the shelf's full containment chain. Unlike the catalog
// writer, this surfaces a broken chain to the caller directly.
func (h *handler) path(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Shelf")
	}

	shelfPath, err := h.shelfService.ResolveShelfPath(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	response := map[string]interface{}{
		"location": shelfPath.Location,
		"room":     shelfPath.Room,
		"bookcase": shelfPath.Bookcase,
		"shelf":    shelfPath.Shelf,
		"path":     shelfPath.String(),
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}

func (h *handler) locations(c echo.Context) error {
	ctx := c.Request().Context()

	locationList, err := h.shelfService.ListLocations(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	response := map[string]interface{}{
		"locations": locationList,
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListShelvesQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	shelfList, total, err := h.shelfService.ListShelvesWithTotal(ctx, ListShelvesOptions{
		Limit:      &params.Limit,
		Offset:     &params.Offset,
		BookcaseID: params.BookcaseID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	response := map[string]interface{}{
		"shelves": shelfList,
		"total":   total,
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}
