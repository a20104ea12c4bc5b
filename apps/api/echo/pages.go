package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type pagesApi struct {
	deps ServerDeps
}

func registerPagesAPI(g *echo.Group, deps ServerDeps) {
	api := pagesApi{deps: deps}

	pg := g.Group("/pages")
	pg.GET("", api.list)
	pg.GET("/:slug", api.retrieve)
}

func (api *pagesApi) list(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.deps.Pages.Slugs())
}

func (api *pagesApi) retrieve(ctx echo.Context) error {
	page, err := api.deps.Pages.Get(ctx.Param("slug"))
	if err != nil {
		return errors.Wrap(err, "finding page")
	}
	return ctx.JSON(http.StatusOK, page)
}
