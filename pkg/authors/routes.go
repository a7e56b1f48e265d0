package authors

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers author routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, source SourceClient) {
	h := &handler{
		authorService: NewService(db, source),
	}

	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
	g.POST("/resolve", h.resolve)
}
