package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/course"
	"github.com/akia2466/PMNTS-Lovable/core/user"
)

type courseApi struct {
	deps ServerDeps
}

func registerCourseAPI(dash, admin *echo.Group, deps ServerDeps) {
	api := courseApi{deps: deps}

	dash.GET("/courses", api.mine)

	admin.GET("/courses", api.query)
	admin.POST("/courses", api.create)
	admin.GET("/enrollments", api.queryEnrollments)
	admin.POST("/enrollments", api.enroll)
	admin.PUT("/enrollments/:id/grade", api.grade)
}

// Handlers

// mine lists the courses a student is enrolled in, those a teacher teaches, or every course for admins.
func (api *courseApi) mine(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	var courses []course.Course
	switch usr.Role {
	case user.RoleStudent:
		var ids []string
		if ids, err = api.deps.Courses.StudentCourseIDs(reqCtx, usr.ID); err != nil {
			return errors.Wrap(err, "querying enrollments")
		}
		if len(ids) > 0 {
			courses, err = api.deps.Courses.Query(reqCtx, course.QueryFilter{IDs: ids})
		}
	case user.RoleTeacher:
		courses, err = api.deps.Courses.Taught(reqCtx, usr.ID)
	default:
		courses, err = api.deps.Courses.Query(reqCtx, course.QueryFilter{})
	}
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) query(ctx echo.Context) error {
	filter := course.QueryFilter{
		TeacherID:  ctx.QueryParam("teacher_id"),
		Department: ctx.QueryParam("department"),
	}
	courses, err := api.deps.Courses.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := bindForm(ctx, api.deps.Validate, &data); err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	if err := api.checkRole(ctx, data.TeacherID, "teacher_id", user.RoleTeacher, user.RoleAdmin); err != nil {
		return err
	}
	c, err := api.deps.Courses.Create(reqCtx, data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *courseApi) queryEnrollments(ctx echo.Context) error {
	var filter course.EnrollmentFilter
	if id := ctx.QueryParam("course_id"); id != "" {
		filter.CourseIDs = []string{id}
	}
	if id := ctx.QueryParam("student_id"); id != "" {
		filter.StudentIDs = []string{id}
	}
	filter.Term = ctx.QueryParam("term")

	enrollments, err := api.deps.Courses.Enrollments(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	if enrollments == nil {
		enrollments = []course.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrollments)
}

func (api *courseApi) enroll(ctx echo.Context) error {
	var data course.NewEnrollment
	if err := bindForm(ctx, api.deps.Validate, &data); err != nil {
		return err
	}
	if err := api.checkRole(ctx, data.StudentID, "student_id", user.RoleStudent); err != nil {
		return err
	}
	e, err := api.deps.Courses.Enroll(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "enrolling student")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *courseApi) grade(ctx echo.Context) error {
	var data course.GradeEnrollment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeEnrollment")
	}
	if err := api.deps.Validate.Struct(&data); err != nil {
		return err
	}
	e, err := api.deps.Courses.Grade(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "grading enrollment")
	}
	return ctx.JSON(http.StatusOK, e)
}

// checkRole fails with a field error unless userID belongs to a user having one of roles.
func (api *courseApi) checkRole(ctx echo.Context, userID, field string, roles ...user.Role) error {
	usr, err := api.deps.Users.GetByID(ctx.Request().Context(), userID)
	if err != nil && !core.IsNotFound(err) {
		return errors.Wrap(err, "finding user by ID")
	}
	if err == nil {
		for _, r := range roles {
			if usr.Role == r {
				return nil
			}
		}
	}
	return newFieldError(field, "must be a "+string(roles[0]))
}
