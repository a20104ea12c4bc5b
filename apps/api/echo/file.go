package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core/file"
)

var errFileUnavailable = echo.NewHTTPError(http.StatusNotFound, "file content unavailable")

type fileApi struct {
	deps ServerDeps
}

func registerFileAPI(g *echo.Group, deps ServerDeps) {
	api := fileApi{deps: deps}

	fg := g.Group("/files")
	fg.GET("", api.list)
	fg.GET("/usage", api.usage)
	fg.POST("", api.upload)
	fg.GET("/:id/download", api.download)
	fg.DELETE("/:id", api.destroy)
}

// Handlers

func (api *fileApi) list(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	filter := file.QueryFilter{
		Search: ctx.QueryParam("search"),
		Folder: ctx.QueryParam("folder"),
		Type:   file.Type(ctx.QueryParam("type")),
	}
	files, err := api.deps.Files.List(ctx.Request().Context(), usr, filter)
	if err != nil {
		return errors.Wrap(err, "querying files")
	}
	if files == nil {
		files = []file.File{}
	}
	return ctx.JSON(http.StatusOK, files)
}

func (api *fileApi) usage(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	usage, err := api.deps.Files.Usage(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "computing storage usage")
	}
	return ctx.JSON(http.StatusOK, usage)
}

func (api *fileApi) upload(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data file.NewFile
	if err = bindForm(ctx, api.deps.Validate, &data); err != nil {
		return err
	}
	up, release, err := formUpload(ctx)
	if err != nil {
		return err
	}
	defer release()
	if up == nil {
		return newFieldError(uploadField, "this field is required")
	}

	f, err := api.deps.Files.Upload(ctx.Request().Context(), usr, data, *up)
	if err != nil {
		return errors.Wrap(err, "uploading file")
	}
	return ctx.JSON(http.StatusCreated, f)
}

func (api *fileApi) download(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	url, err := api.deps.Files.DownloadURL(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "resolving download url")
	}
	if strings.HasPrefix(url, file.PlaceholderScheme) {
		return errFileUnavailable
	}
	return ctx.JSON(http.StatusOK, DownloadResponse{URL: url})
}

func (api *fileApi) destroy(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if err = api.deps.Files.Delete(ctx.Request().Context(), usr, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting file")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type DownloadResponse struct {
	URL string `json:"url"`
}
