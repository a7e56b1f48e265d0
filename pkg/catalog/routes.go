package catalog

import (
	"github.com/labstack/echo/v4"
	"github.com/quartobooks/quarto/pkg/shelving"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers copy routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB) {
	h := &handler{
		catalogService: NewService(db, shelving.NewService(db), logger.New()),
	}

	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
	g.POST("", h.create)
}

// RegisterWorkRoutesWithGroup registers the copy routes that hang off a
// work, on the works group.
func RegisterWorkRoutesWithGroup(g *echo.Group, db *bun.DB) {
	h := &handler{
		catalogService: NewService(db, shelving.NewService(db), logger.New()),
	}

	g.GET("/:id/duplicate-check", h.duplicateCheck)
}
