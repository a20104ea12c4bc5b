package echoapi

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core/messaging"
)

type messengerApi struct {
	deps     ServerDeps
	upgrader websocket.Upgrader
}

func registerMessengerAPI(g *echo.Group, deps ServerDeps) {
	api := messengerApi{
		deps: deps,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(deps.Conf.Server.AllowedOrigins),
		},
	}

	mg := g.Group("/messenger")
	mg.GET("/contacts", api.contacts)
	mg.GET("/unread", api.unread)
	mg.POST("/messages", api.send)
	mg.GET("/threads/:contact_id", api.thread)
	mg.POST("/threads/:contact_id/read", api.markRead)
	mg.GET("/stream", api.stream)
}

// Handlers

func (api *messengerApi) contacts(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	contacts, err := api.deps.Messages.Contacts(ctx.Request().Context(), usr, ctx.QueryParam("search"))
	if err != nil {
		return errors.Wrap(err, "querying contacts")
	}
	if contacts == nil {
		contacts = []messaging.Contact{}
	}
	return ctx.JSON(http.StatusOK, contacts)
}

func (api *messengerApi) unread(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	total, err := api.deps.Messages.UnreadTotal(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "counting unread messages")
	}
	return ctx.JSON(http.StatusOK, UnreadResponse{Unread: total})
}

func (api *messengerApi) thread(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	msgs, err := api.deps.Messages.Thread(ctx.Request().Context(), usr.ID, ctx.Param("contact_id"))
	if err != nil {
		return errors.Wrap(err, "loading thread")
	}
	if msgs == nil {
		msgs = []messaging.Message{}
	}
	return ctx.JSON(http.StatusOK, msgs)
}

func (api *messengerApi) markRead(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data MarkReadRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkReadRequest")
	}
	read, err := api.deps.Messages.MarkRead(ctx.Request().Context(), usr.ID, ctx.Param("contact_id"), data.IDs...)
	if err != nil {
		return err
	}
	if read == nil {
		read = []string{}
	}
	return ctx.JSON(http.StatusOK, MarkReadResponse{Read: read})
}

func (api *messengerApi) send(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data messaging.NewMessage
	if err = bindForm(ctx, api.deps.Validate, &data); err != nil {
		return err
	}
	m, err := api.deps.Messages.Send(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "sending message")
	}
	return ctx.JSON(http.StatusCreated, m)
}

type (
	UnreadResponse struct {
		Unread int `json:"unread"`
	}

	MarkReadRequest struct {
		IDs []string `json:"ids"`
	}

	MarkReadResponse struct {
		Read []string `json:"read"`
	}
)
