package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/quartobooks/quarto/pkg/authors"
	"github.com/quartobooks/quarto/pkg/bibsource"
	"github.com/quartobooks/quarto/pkg/binder"
	"github.com/quartobooks/quarto/pkg/catalog"
	"github.com/quartobooks/quarto/pkg/config"
	"github.com/quartobooks/quarto/pkg/errcodes"
	"github.com/quartobooks/quarto/pkg/shelving"
	"github.com/quartobooks/quarto/pkg/sourcecache"
	"github.com/quartobooks/quarto/pkg/works"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

func New(cfg *config.Config, db *bun.DB) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	// One source client serves every package that resolves against the
	// external catalog, so they share the response cache.
	source := bibsource.NewClient(cfg, sourcecache.NewService(db))

	authorsGroup := e.Group("/authors")
	authors.RegisterRoutesWithGroup(authorsGroup, db, source)

	worksGroup := e.Group("/works")
	works.RegisterRoutesWithGroup(worksGroup, db, source)
	catalog.RegisterWorkRoutesWithGroup(worksGroup, db)

	copiesGroup := e.Group("/copies")
	catalog.RegisterRoutesWithGroup(copiesGroup, db)

	shelvesGroup := e.Group("/shelves")
	shelving.RegisterRoutesWithGroup(shelvesGroup, db)

	locationsGroup := e.Group("/locations")
	shelving.RegisterLocationRoutesWithGroup(locationsGroup, db)

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
