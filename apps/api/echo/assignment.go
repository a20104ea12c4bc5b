package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core/assignment"
)

type assignmentApi struct {
	deps ServerDeps
}

func registerAssignmentAPI(g *echo.Group, deps ServerDeps) {
	api := assignmentApi{deps: deps}

	ag := g.Group("/assignments")
	ag.GET("", api.list)
	ag.POST("", api.create, staffMiddleware())
	ag.DELETE("/:id", api.destroy, staffMiddleware())
	ag.POST("/:id/submissions", api.submit, studentMiddleware())
	ag.GET("/:id/submissions", api.submissions, staffMiddleware())
	ag.PUT("/submissions/:id/grade", api.grade, staffMiddleware())
}

// Handlers

// list returns the assignments of the student's courses, or those a teacher set with their progress.
func (api *assignmentApi) list(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	if usr.IsStudent() {
		views, err := api.deps.Assignments.ForStudent(reqCtx, usr.ID)
		if err != nil {
			return errors.Wrap(err, "querying student assignments")
		}
		if views == nil {
			views = []assignment.StudentView{}
		}
		return ctx.JSON(http.StatusOK, views)
	}

	views, err := api.deps.Assignments.ForTeacher(reqCtx, usr)
	if err != nil {
		return errors.Wrap(err, "querying teacher assignments")
	}
	if views == nil {
		views = []assignment.TeacherView{}
	}
	return ctx.JSON(http.StatusOK, views)
}

func (api *assignmentApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data assignment.NewAssignment
	if err = bindForm(ctx, api.deps.Validate, &data); err != nil {
		return err
	}
	up, release, err := formUpload(ctx)
	if err != nil {
		return err
	}
	defer release()

	a, err := api.deps.Assignments.Create(ctx.Request().Context(), usr, data, up)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if err = api.deps.Assignments.Delete(ctx.Request().Context(), usr, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *assignmentApi) submit(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data assignment.NewSubmission
	if err = bindForm(ctx, api.deps.Validate, &data); err != nil {
		return err
	}
	up, release, err := formUpload(ctx)
	if err != nil {
		return err
	}
	defer release()
	if up == nil && data.FileURL == "" {
		return newFieldError("file", "a file or a file url is required")
	}

	sub, err := api.deps.Assignments.Submit(ctx.Request().Context(), usr, ctx.Param("id"), data, up)
	if err != nil {
		return errors.Wrap(err, "submitting assignment")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *assignmentApi) submissions(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	subs, err := api.deps.Assignments.Submissions(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	if subs == nil {
		subs = []assignment.SubmissionView{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *assignmentApi) grade(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data assignment.Grade
	if err = bindForm(ctx, api.deps.Validate, &data); err != nil {
		return err
	}
	sub, err := api.deps.Assignments.Grade(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "grading submission")
	}
	return ctx.JSON(http.StatusOK, sub)
}
