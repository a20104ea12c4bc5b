package echoapi

import (
	"slices"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core/user"
)

// roleMiddleware lets through the users having one of roles.
func roleMiddleware(roles ...user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if slices.Contains(roles, usr.Role) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func adminMiddleware() echo.MiddlewareFunc { return roleMiddleware(user.RoleAdmin) }

func studentMiddleware() echo.MiddlewareFunc { return roleMiddleware(user.RoleStudent) }

func staffMiddleware() echo.MiddlewareFunc { return roleMiddleware(user.RoleTeacher, user.RoleAdmin) }
