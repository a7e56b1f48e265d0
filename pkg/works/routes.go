package works

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/quartobooks/quarto/pkg/authors"
	"github.com/quartobooks/quarto/pkg/bibsource"
	"github.com/uptrace/bun"
)

// SourceClient is the slice of the external source client the work routes
// need. Satisfied by *bibsource.Client.
type SourceClient interface {
	authors.SourceClient
	SearchWorks(ctx context.Context, title, authorRef string) ([]*bibsource.WorkResult, error)
}

// RegisterRoutesWithGroup registers work routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, source SourceClient) {
	h := &handler{
		workService:   NewService(db),
		authorService: authors.NewService(db, source),
		source:        source,
	}

	g.GET("", h.list)
	g.GET("/search", h.search)
	g.GET("/:id", h.retrieve)
	g.POST("/resolve", h.resolve)
	g.POST("/assemble", h.assemble)
	g.POST("/anthology", h.anthology)
}
