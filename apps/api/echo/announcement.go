package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core/announcement"
)

type announcementApi struct {
	deps ServerDeps
}

func registerAnnouncementAPI(g *echo.Group, deps ServerDeps) {
	api := announcementApi{deps: deps}

	ag := g.Group("/announcements")
	ag.GET("", api.list)
	ag.POST("", api.create, staffMiddleware())
	ag.DELETE("/:id", api.destroy, staffMiddleware())
}

// Handlers

func (api *announcementApi) list(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))
	views, err := api.deps.Announcements.Visible(ctx.Request().Context(), usr, max(limit, 0))
	if err != nil {
		return errors.Wrap(err, "querying announcements")
	}
	if views == nil {
		views = []announcement.View{}
	}
	return ctx.JSON(http.StatusOK, views)
}

func (api *announcementApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data announcement.NewAnnouncement
	if err = bindForm(ctx, api.deps.Validate, &data); err != nil {
		return err
	}
	a, err := api.deps.Announcements.Create(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating announcement")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *announcementApi) destroy(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if err = api.deps.Announcements.Delete(ctx.Request().Context(), usr, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting announcement")
	}
	return ctx.NoContent(http.StatusNoContent)
}
