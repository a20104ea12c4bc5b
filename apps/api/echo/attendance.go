package echoapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/attendance"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type attendanceApi struct {
	deps ServerDeps
}

func registerAttendanceAPI(g *echo.Group, deps ServerDeps) {
	api := attendanceApi{deps: deps}

	ag := g.Group("/attendance")
	ag.GET("", api.report)
	ag.GET("/export", api.exportReport)
	ag.POST("", api.mark, staffMiddleware())
	ag.GET("/courses/:id", api.roster, staffMiddleware())
	ag.GET("/courses/:id/export", api.exportRoster, staffMiddleware())
}

// Handlers

func (api *attendanceApi) report(ctx echo.Context) error {
	studentID, err := reportStudentID(ctx)
	if err != nil {
		return err
	}
	report, err := api.deps.Attendance.StudentReport(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "building attendance report")
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *attendanceApi) exportReport(ctx echo.Context) error {
	studentID, err := reportStudentID(ctx)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err = api.deps.Attendance.ExportStudent(ctx.Request().Context(), &buf, api.deps.Exporter, studentID); err != nil {
		return errors.Wrap(err, "exporting attendance report")
	}
	return sendWorkbook(ctx, "attendance.xlsx", buf.Bytes())
}

func (api *attendanceApi) mark(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data attendance.Mark
	if err = bindForm(ctx, api.deps.Validate, &data); err != nil {
		return err
	}
	records, err := api.deps.Attendance.Mark(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) roster(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	roster, err := api.deps.Attendance.Roster(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "building roster")
	}
	return ctx.JSON(http.StatusOK, roster)
}

func (api *attendanceApi) exportRoster(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err = api.deps.Attendance.ExportRoster(ctx.Request().Context(), &buf, api.deps.Exporter, usr, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "exporting roster")
	}
	return sendWorkbook(ctx, "roster.xlsx", buf.Bytes())
}

// reportStudentID returns the student whose report is requested: staff may ask for any student, students only for themselves.
func reportStudentID(ctx echo.Context) (string, error) {
	usr, err := getContextUser(ctx)
	if err != nil {
		return "", err
	}
	id := ctx.QueryParam("student_id")
	if id == "" || id == usr.ID {
		return usr.ID, nil
	}
	if !usr.IsStaff() {
		return "", core.ErrPermissionDenied
	}
	return id, nil
}

func sendWorkbook(ctx echo.Context, name string, data []byte) error {
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return ctx.Blob(http.StatusOK, xlsxContentType, data)
}
