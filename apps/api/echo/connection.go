package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core/connection"
)

type connectionApi struct {
	deps ServerDeps
}

// registerConnectionAPI mounts the network of the user twice: students call it friends, staff colleagues.
func registerConnectionAPI(g *echo.Group, deps ServerDeps) {
	api := connectionApi{deps: deps}

	for _, prefix := range []string{"/friends", "/colleagues"} {
		cg := g.Group(prefix)
		cg.GET("", api.list)
		cg.GET("/search", api.search)
		cg.GET("/requests", api.requests)
		cg.POST("/requests", api.send)
		cg.POST("/requests/:id/accept", api.accept)
		cg.POST("/requests/:id/decline", api.decline)
		cg.DELETE("/requests/:id", api.cancel)
		cg.DELETE("/:user_id", api.remove)
	}
}

// Handlers

func (api *connectionApi) list(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	views, err := api.deps.Connections.Connections(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying connections")
	}
	if views == nil {
		views = []connection.View{}
	}
	return ctx.JSON(http.StatusOK, views)
}

func (api *connectionApi) search(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	results, err := api.deps.Connections.Search(ctx.Request().Context(), usr, ctx.QueryParam("q"))
	if err != nil {
		return errors.Wrap(err, "searching people")
	}
	if results == nil {
		results = []connection.SearchResult{}
	}
	return ctx.JSON(http.StatusOK, results)
}

func (api *connectionApi) requests(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	dir := connection.Direction(ctx.QueryParam("direction"))
	switch dir {
	case "":
		dir = connection.DirectionIncoming
	case connection.DirectionIncoming, connection.DirectionOutgoing:
	default:
		return newFieldError("direction", "must be one of incoming outgoing")
	}
	views, err := api.deps.Connections.Requests(ctx.Request().Context(), usr.ID, dir)
	if err != nil {
		return errors.Wrap(err, "querying requests")
	}
	if views == nil {
		views = []connection.RequestView{}
	}
	return ctx.JSON(http.StatusOK, views)
}

func (api *connectionApi) send(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data SendRequestRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SendRequestRequest")
	}
	if err = api.deps.Validate.Struct(&data); err != nil {
		return err
	}
	req, err := api.deps.Connections.SendRequest(ctx.Request().Context(), usr, data.ToUserID)
	if err != nil {
		return errors.Wrap(err, "sending request")
	}
	return ctx.JSON(http.StatusCreated, req)
}

func (api *connectionApi) accept(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	conn, err := api.deps.Connections.AcceptRequest(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "accepting request")
	}
	return ctx.JSON(http.StatusOK, conn)
}

func (api *connectionApi) decline(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if err = api.deps.Connections.DeclineRequest(ctx.Request().Context(), usr, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "declining request")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *connectionApi) cancel(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if err = api.deps.Connections.CancelRequest(ctx.Request().Context(), usr, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "cancelling request")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *connectionApi) remove(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if err = api.deps.Connections.RemoveConnection(ctx.Request().Context(), usr, ctx.Param("user_id")); err != nil {
		return errors.Wrap(err, "removing connection")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type SendRequestRequest struct {
	ToUserID string `json:"to_user_id" validate:"required,uuid"`
}
