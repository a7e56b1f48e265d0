package catalog

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/quartobooks/quarto/pkg/errcodes"
)

type handler struct {
	catalogService *Service
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateCopyPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.catalogService.WriteCopy(ctx, WriteCopyParams{
		WorkID:           params.WorkID,
		Publisher:        params.Publisher,
		Format:           params.Format,
		Condition:        params.Condition,
		ShelfID:          params.ShelfID,
		ConfirmDuplicate: params.ConfirmDuplicate,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	response := map[string]interface{}{
		"edition": result.Edition,
		"copy":    result.Copy,
		"message": result.Message,
	}

	return errors.WithStack(c.JSON(http.StatusCreated, response))
}

// duplicateCheck reports how many copies of a work already exist, so the
// entry flow can ask for confirmation before writing a duplicate.
func (h *handler) duplicateCheck(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Work")
	}

	count, err := h.catalogService.CountCopies(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	response := map[string]interface{}{
		"work_id":    id,
		"copy_count": count,
		"duplicate":  count > 0,
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Copy")
	}

	copy, err := h.catalogService.RetrieveCopy(ctx, RetrieveCopyOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, copy))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListCopiesQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	copyList, total, err := h.catalogService.ListCopiesWithTotal(ctx, ListCopiesOptions{
		Limit:  &params.Limit,
		Offset: &params.Offset,
		WorkID: params.WorkID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	response := map[string]interface{}{
		"copies": copyList,
		"total":  total,
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}
