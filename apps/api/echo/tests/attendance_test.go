package tests

import (
	"bytes"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/akia2466/PMNTS-Lovable/core/attendance"
	"github.com/akia2466/PMNTS-Lovable/core/user"
	"github.com/akia2466/PMNTS-Lovable/services/spreadsheet"
)

func markBody(courseID string, entries ...string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `{"course_id": %q, "date": "2026-03-02", "entries": [`, courseID)
	for i := 0; i+1 < len(entries); i += 2 {
		if i > 0 {
			buf.WriteString(",")
		}
		fmt.Fprintf(&buf, `{"student_id": %q, "status": %q}`, entries[i], entries[i+1])
	}
	buf.WriteString("]}")
	return buf.Bytes()
}

func Test_attendanceApi_mark(t *testing.T) {
	e := setup(t)
	teacher := e.CreateUser(t, user.RoleTeacher, "Teacher", "teacher@pmnts.test")
	other := e.CreateUser(t, user.RoleTeacher, "Other", "other@pmnts.test")
	ana := e.CreateUser(t, user.RoleStudent, "Ana", "ana@pmnts.test")
	cal := e.CreateUser(t, user.RoleStudent, "Cal", "cal@pmnts.test")
	bio := e.CreateCourse(t, teacher, "BIO101", "Biology")
	e.Enroll(t, bio, ana, "2026-S1")

	teacherToken := e.getToken(t, teacher)
	runTests(t, e, []httpTest{
		{name: "student", method: http.MethodPost, path: "/v1/dashboard/attendance", token: e.getToken(t, ana), body: markBody(bio.ID, ana.ID, "present"), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "empty form", method: http.MethodPost, path: "/v1/dashboard/attendance", token: teacherToken, body: []byte(`{}`), wantCode: http.StatusBadRequest},
		{name: "bad status", method: http.MethodPost, path: "/v1/dashboard/attendance", token: teacherToken, body: markBody(bio.ID, ana.ID, "asleep"), wantCode: http.StatusBadRequest},
		{name: "not the teacher", method: http.MethodPost, path: "/v1/dashboard/attendance", token: e.getToken(t, other), body: markBody(bio.ID, ana.ID, "present"), wantCode: http.StatusForbidden},
		{name: "not enrolled", method: http.MethodPost, path: "/v1/dashboard/attendance", token: teacherToken, body: markBody(bio.ID, cal.ID, "present"), wantCode: http.StatusBadRequest},
		{name: "marked", method: http.MethodPost, path: "/v1/dashboard/attendance", token: teacherToken, body: markBody(bio.ID, ana.ID, "late"), wantCode: http.StatusOK},
		// same session again replaces the record
		{name: "re-marked", method: http.MethodPost, path: "/v1/dashboard/attendance", token: teacherToken, body: markBody(bio.ID, ana.ID, "present"), wantCode: http.StatusOK},
	})

	req, rec := newAuthRequest(http.MethodGet, "/v1/dashboard/attendance", e.getToken(t, ana))
	e.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)

	var report attendance.StudentReport
	decode(t, rec, &report)
	require.Len(t, report.Records, 1)
	assert.Equal(t, attendance.StatusPresent, report.Records[0].Status)
	assert.Equal(t, "BIO101", report.Records[0].CourseCode)
	assert.Equal(t, 1, report.Summary.Overall.Total)
	assert.Equal(t, 100, report.Summary.AttendanceRate)
	assert.False(t, report.Summary.BelowThreshold)
}

func Test_attendanceApi_report(t *testing.T) {
	e := setup(t)
	teacher := e.CreateUser(t, user.RoleTeacher, "Teacher", "teacher@pmnts.test")
	ana := e.CreateUser(t, user.RoleStudent, "Ana", "ana@pmnts.test")
	cal := e.CreateUser(t, user.RoleStudent, "Cal", "cal@pmnts.test")
	bio := e.CreateCourse(t, teacher, "BIO101", "Biology")
	e.Enroll(t, bio, ana, "2026-S1")
	e.Enroll(t, bio, cal, "2026-S1")

	req, rec := newAuthRequest(http.MethodPost, "/v1/dashboard/attendance", e.getToken(t, teacher), markBody(bio.ID, ana.ID, "present", cal.ID, "absent"))
	e.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)

	anaToken := e.getToken(t, ana)
	tests := []struct {
		name     string
		path     string
		token    string
		wantCode int
		wantRate int
	}{
		{name: "no token", path: "/v1/dashboard/attendance", wantCode: http.StatusUnauthorized},
		{name: "own report", path: "/v1/dashboard/attendance", token: anaToken, wantCode: http.StatusOK, wantRate: 100},
		{name: "own report by id", path: "/v1/dashboard/attendance?student_id=" + ana.ID, token: anaToken, wantCode: http.StatusOK, wantRate: 100},
		{name: "classmate report", path: "/v1/dashboard/attendance?student_id=" + cal.ID, token: anaToken, wantCode: http.StatusForbidden},
		{name: "staff report", path: "/v1/dashboard/attendance?student_id=" + cal.ID, token: e.getToken(t, teacher), wantCode: http.StatusOK, wantRate: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			e.serve(req, rec)
			if rec.Code != tt.wantCode {
				t.Fatalf("code = %v; want %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var report attendance.StudentReport
			decode(t, rec, &report)
			if report.Summary.AttendanceRate != tt.wantRate {
				t.Errorf("AttendanceRate = %v; want %v", report.Summary.AttendanceRate, tt.wantRate)
			}
		})
	}
}

func Test_attendanceApi_roster(t *testing.T) {
	e := setup(t)
	teacher := e.CreateUser(t, user.RoleTeacher, "Teacher", "teacher@pmnts.test")
	other := e.CreateUser(t, user.RoleTeacher, "Other", "other@pmnts.test")
	admin := e.CreateUser(t, user.RoleAdmin, "Admin", "admin@pmnts.test")
	ana := e.CreateUser(t, user.RoleStudent, "Ana", "ana@pmnts.test")
	cal := e.CreateUser(t, user.RoleStudent, "Cal", "cal@pmnts.test")
	bio := e.CreateCourse(t, teacher, "BIO101", "Biology")
	e.Enroll(t, bio, cal, "2026-S1")
	e.Enroll(t, bio, ana, "2026-S1")

	teacherToken := e.getToken(t, teacher)
	req, rec := newAuthRequest(http.MethodPost, "/v1/dashboard/attendance", teacherToken, markBody(bio.ID, ana.ID, "present", cal.ID, "late"))
	e.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)

	path := "/v1/dashboard/attendance/courses/" + bio.ID
	runTests(t, e, []httpTest{
		{name: "student", method: http.MethodGet, path: path, token: e.getToken(t, ana), wantCode: http.StatusForbidden},
		{name: "other teacher", method: http.MethodGet, path: path, token: e.getToken(t, other), wantCode: http.StatusForbidden},
		{name: "unknown course", method: http.MethodGet, path: "/v1/dashboard/attendance/courses/nope", token: teacherToken, wantCode: http.StatusNotFound},
		{name: "admin", method: http.MethodGet, path: path, token: e.getToken(t, admin), wantCode: http.StatusOK},
	})

	req, rec = newAuthRequest(http.MethodGet, path, teacherToken)
	e.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)

	var roster attendance.Roster
	decode(t, rec, &roster)
	assert.Equal(t, bio.ID, roster.Course.ID)
	assert.Equal(t, 100, roster.Rate)
	require.Len(t, roster.Students, 2)
	assert.Equal(t, "Ana", roster.Students[0].Student.FullName)
	assert.Equal(t, "Cal", roster.Students[1].Student.FullName)
	assert.Equal(t, 1, roster.Students[1].Stats.Late)
}

func Test_attendanceApi_export(t *testing.T) {
	e := setup(t)
	teacher := e.CreateUser(t, user.RoleTeacher, "Teacher", "teacher@pmnts.test")
	ana := e.CreateUser(t, user.RoleStudent, "Ana", "ana@pmnts.test")
	bio := e.CreateCourse(t, teacher, "BIO101", "Biology")
	e.Enroll(t, bio, ana, "2026-S1")

	teacherToken := e.getToken(t, teacher)
	req, rec := newAuthRequest(http.MethodPost, "/v1/dashboard/attendance", teacherToken, markBody(bio.ID, ana.ID, "absent"))
	e.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)

	tests := []struct {
		name       string
		path       string
		token      string
		wantFile   string
		wantSheets []string
	}{
		{name: "student records", path: "/v1/dashboard/attendance/export", token: e.getToken(t, ana), wantFile: "attendance.xlsx", wantSheets: []string{spreadsheet.SummarySheet, spreadsheet.RecordsSheet}},
		{name: "course roster", path: "/v1/dashboard/attendance/courses/" + bio.ID + "/export", token: teacherToken, wantFile: "roster.xlsx", wantSheets: []string{spreadsheet.RosterSheet}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			e.serve(req, rec)
			require.Equal(t, http.StatusOK, rec.Code)

			assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
			assert.Equal(t, fmt.Sprintf("attachment; filename=%q", tt.wantFile), rec.Header().Get("Content-Disposition"))

			f, err := excelize.OpenReader(rec.Body)
			require.NoError(t, err)
			defer f.Close()
			assert.Equal(t, tt.wantSheets, f.GetSheetList())
		})
	}
}
