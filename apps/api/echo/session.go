package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/profile"
	"github.com/akia2466/PMNTS-Lovable/core/session"
	"github.com/akia2466/PMNTS-Lovable/core/user"
)

const passwordResetSent = "If the email address supplied is associated with an active account on this system, " +
	"an email will arrive in your inbox shortly with instructions to reset your password."

type sessionApi struct {
	deps ServerDeps
}

func registerSessionAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := sessionApi{deps: deps}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/signup", api.signUp)
	ag.POST("/signin", api.signIn)
	ag.POST("/password-reset", api.resetPassword)
	ag.POST("/password-reset-confirm", api.confirmPasswordReset)
	ag.GET("/roles", api.queryRoles)

	// authed endpoints
	ag.GET("/session", api.current, jwt)
	ag.POST("/signout", api.signOut, jwt)
	ag.POST("/token-refresh", api.refreshToken, jwt)
	ag.PUT("/profile", api.updateProfile, jwt)
}

// Handlers

func (api *sessionApi) signUp(ctx echo.Context) error {
	var data user.SignUp
	if err := bindForm(ctx, api.deps.Validate, &data); err != nil {
		return err
	}
	id, err := api.deps.Sessions.SignUp(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "signing up")
	}
	return api.respondSession(ctx, http.StatusCreated, id)
}

func (api *sessionApi) signIn(ctx echo.Context) error {
	var data SignInRequest
	if err := bindForm(ctx, api.deps.Validate, &data); err != nil {
		return err
	}
	id, err := api.deps.Sessions.SignIn(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return errors.Wrap(err, "signing in")
	}
	return api.respondSession(ctx, http.StatusOK, id)
}

func (api *sessionApi) respondSession(ctx echo.Context, code int, id session.Identity) error {
	token, _, err := api.deps.Tokens.Issue(id.User)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(code, SessionResponse{Token: token, Identity: id})
}

func (api *sessionApi) current(ctx echo.Context) error {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, id)
}

func (api *sessionApi) signOut(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if err = api.deps.Sessions.SignOut(ctx.Request().Context(), claims.Subject, claims.ID, claims.ExpiresAt.Time); err != nil {
		return errors.Wrap(err, "signing out")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *sessionApi) refreshToken(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if api.deps.Tokens.RefreshExpired(claims) {
		return errRefreshExpired
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	token, _, err := api.deps.Tokens.Issue(usr, claims.OrigIssuedAt)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	if err = api.deps.Sessions.Refreshed(ctx.Request().Context(), usr.ID, claims.ID, claims.ExpiresAt.Time); err != nil {
		return errors.Wrap(err, "refreshing session")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

func (api *sessionApi) updateProfile(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data profile.UpdateProfile
	if err = bindForm(ctx, api.deps.Validate, &data); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	prof, err := api.deps.Profiles.Update(reqCtx, usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	api.deps.Sessions.ProfileChanged(reqCtx, usr.ID)
	return ctx.JSON(http.StatusOK, prof)
}

func (api *sessionApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := bindForm(ctx, api.deps.Validate, &data); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	var name string
	if usr, err := api.deps.Users.GetByEmail(reqCtx, data.Email); err == nil {
		if prof, err := api.deps.Profiles.GetByUserID(reqCtx, usr.ID); err == nil {
			name = prof.FullName
		}
	}
	if err := api.deps.Users.RequestPasswordReset(reqCtx, data.Email, name); err != nil && !core.IsNotFound(err) {
		// do not return errors to attackers
		api.deps.Logger.Error("requesting password reset", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: passwordResetSent})
}

func (api *sessionApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := bindForm(ctx, api.deps.Validate, &data); err != nil {
		return err
	}
	if _, err := api.deps.Users.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

func (api *sessionApi) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, user.Roles)
}

type (
	SignInRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	SessionResponse struct {
		Token string `json:"token"`
		session.Identity
	}

	TokenResponse struct {
		Token string `json:"token"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (sr *SignInRequest) Validate(validate *validator.Validate) error {
	sr.Email = core.CleanString(sr.Email, true /* lower */)
	return validate.Struct(sr)
}

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}
