package shelving

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers shelf routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB) {
	h := &handler{
		shelfService: NewService(db),
	}

	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
	g.GET("/:id/path", h.path)
}

// RegisterLocationRoutesWithGroup registers location routes on a
// pre-configured group.
func RegisterLocationRoutesWithGroup(g *echo.Group, db *bun.DB) {
	h := &handler{
		shelfService: NewService(db),
	}

	g.GET("", h.locations)
}
