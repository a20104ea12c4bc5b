package echoapi

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core/user"
)

var errUsrNotFoundInCtx = errors.New("user object not found in echo.Context")

// userApi is the account administration of the admins.
type userApi struct {
	deps ServerDeps
}

func registerUserAPI(admin *echo.Group, deps ServerDeps) {
	api := userApi{deps: deps}

	ug := admin.Group("/users")
	ug.GET("", api.query)
	ug.POST("", api.create)
	ug.DELETE("", api.destroyMultiple)

	// detail endpoints
	dg := ug.Group("/:id", api.objectMiddleware())
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

// Handlers

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewAccount
	if err := bindForm(ctx, api.deps.Validate, &data); err != nil {
		return err
	}

	id, err := api.deps.Sessions.CreateAccount(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating account")
	}
	return ctx.JSON(http.StatusCreated, id.User)
}

func (api *userApi) query(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []user.User{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	users, err := api.deps.Users.Query(ctx.Request().Context(), *filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) retrieve(ctx echo.Context) error {
	usr, ok := ctx.Get("object").(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) update(ctx echo.Context) error {
	usr, ok := ctx.Get("object").(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}
	var data user.UpdateUser
	if err := bindForm(ctx, api.deps.Validate, &data); err != nil {
		return err
	}

	// Say No to Suicide! ctxUser cannot demote or deactivate themselves
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if usr.ID == ctxUsr.ID && ((data.Role != "" && data.Role != usr.Role) || (data.IsActive != nil && !*data.IsActive)) {
		return errHttpForbidden
	}

	reqCtx := ctx.Request().Context()
	usr, err = api.deps.Users.Update(reqCtx, usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	api.deps.Sessions.ProfileChanged(reqCtx, usr.ID)
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) destroy(ctx echo.Context) error {
	usr, ok := ctx.Get("object").(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}
	return api.delete(ctx, usr.ID)
}

func (api *userApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	return api.delete(ctx, query.IDs...)
}

func (api *userApi) delete(ctx echo.Context, ids ...string) error {
	// Say No to Suicide! ctxUser cannot delete themselves
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if slices.Contains(ids, ctxUsr.ID) {
		return errHttpForbidden
	}

	reqCtx := ctx.Request().Context()
	if err = api.deps.Users.Delete(reqCtx, ids...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	for _, id := range ids {
		api.deps.Sessions.ProfileChanged(reqCtx, id)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// objectMiddleware loads the user of the `:id` path param as the "object" of the request.
func (api *userApi) objectMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := api.deps.Users.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == user.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding user by ID")
			}
			ctx.Set("object", usr)
			return next(ctx)
		}
	}
}

type DestroyMultipleRequest struct {
	IDs []string `query:"id"`
}
