package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core/contact"
)

type contactApi struct {
	deps ServerDeps
}

func registerContactAPI(public, admin *echo.Group, deps ServerDeps) {
	api := contactApi{deps: deps}

	// TODO: rate limit `/contact`
	public.POST("/contact", api.submit)

	cg := admin.Group("/contact-submissions")
	cg.GET("", api.query)
	cg.PUT("/:id", api.update)
}

// Handlers

func (api *contactApi) submit(ctx echo.Context) error {
	var data contact.NewSubmission
	if err := bindForm(ctx, api.deps.Validate, &data); err != nil {
		return err
	}
	sub, err := api.deps.Contacts.Submit(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "submitting contact form")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *contactApi) query(ctx echo.Context) error {
	var filter contact.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []contact.Submission{})
	}
	subs, err := api.deps.Contacts.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying contact submissions")
	}
	if subs == nil {
		subs = []contact.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *contactApi) update(ctx echo.Context) error {
	var data contact.UpdateStatus
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStatus")
	}
	if err := api.deps.Validate.Struct(&data); err != nil {
		return err
	}
	sub, err := api.deps.Contacts.SetStatus(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating contact submission")
	}
	return ctx.JSON(http.StatusOK, sub)
}
