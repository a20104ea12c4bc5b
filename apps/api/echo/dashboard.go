package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type dashboardApi struct {
	deps ServerDeps
}

func registerDashboardAPI(g *echo.Group, deps ServerDeps) {
	api := dashboardApi{deps: deps}

	g.GET("", api.overview)
	g.GET("/performance", api.performance)
}

func (api *dashboardApi) overview(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	ov, err := api.deps.Dashboard.Overview(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "building overview")
	}
	return ctx.JSON(http.StatusOK, ov)
}

func (api *dashboardApi) performance(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	perf, err := api.deps.Dashboard.Performance(ctx.Request().Context(), usr, ctx.QueryParam("term"))
	if err != nil {
		return errors.Wrap(err, "building performance summary")
	}
	return ctx.JSON(http.StatusOK, perf)
}
