package tests

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akia2466/PMNTS-Lovable/core/course"
	"github.com/akia2466/PMNTS-Lovable/core/user"
)

func Test_courseApi_mine(t *testing.T) {
	e := setup(t)
	ana := e.CreateUser(t, user.RoleStudent, "Ana", "ana@pmnts.test")
	cal := e.CreateUser(t, user.RoleStudent, "Cal", "cal@pmnts.test")
	teacher := e.CreateUser(t, user.RoleTeacher, "Teacher", "teacher@pmnts.test")
	other := e.CreateUser(t, user.RoleTeacher, "Other", "other@pmnts.test")
	admin := e.CreateUser(t, user.RoleAdmin, "Admin", "admin@pmnts.test")

	bio := e.CreateCourse(t, teacher, "BIO11", "Biology")
	chem := e.CreateCourse(t, teacher, "CHEM11", "Chemistry")
	art := e.CreateCourse(t, other, "ART11", "Art")
	e.Enroll(t, bio, ana, "2026-T1")
	e.Enroll(t, bio, ana, "2026-T2")
	e.Enroll(t, art, ana, "2026-T1")

	runTests(t, e, []httpTest{
		{name: "student", method: http.MethodGet, path: "/v1/dashboard/courses", token: e.getToken(t, ana), wantCode: http.StatusOK, wantData: marchallList(t, art, bio)},
		{name: "student without courses", method: http.MethodGet, path: "/v1/dashboard/courses", token: e.getToken(t, cal), wantCode: http.StatusOK, wantData: marchallList(t)},
		{name: "teacher", method: http.MethodGet, path: "/v1/dashboard/courses", token: e.getToken(t, teacher), wantCode: http.StatusOK, wantData: marchallList(t, bio, chem)},
		{name: "admin", method: http.MethodGet, path: "/v1/dashboard/courses", token: e.getToken(t, admin), wantCode: http.StatusOK, wantData: marchallList(t, art, bio, chem)},
	})
}

func Test_courseApi_admin(t *testing.T) {
	e := setup(t)
	ana := e.CreateUser(t, user.RoleStudent, "Ana", "ana@pmnts.test")
	teacher := e.CreateUser(t, user.RoleTeacher, "Teacher", "teacher@pmnts.test")
	admin := e.CreateUser(t, user.RoleAdmin, "Admin", "admin@pmnts.test")
	token := e.getToken(t, admin)

	newCourse := func(code, teacherID string) []byte {
		return []byte(fmt.Sprintf(`{"code": %q, "name": "Biology", "department": "Science", "credits": 3, "teacher_id": %q}`, code, teacherID))
	}
	runTests(t, e, []httpTest{
		{name: "teacher", method: http.MethodPost, path: "/v1/admin/courses", token: e.getToken(t, teacher), body: newCourse("BIO11", teacher.ID), wantCode: http.StatusForbidden},
		{name: "bad code", method: http.MethodPost, path: "/v1/admin/courses", token: token, body: newCourse("BIO 11!", teacher.ID), wantCode: http.StatusBadRequest},
		{name: "student teacher", method: http.MethodPost, path: "/v1/admin/courses", token: token, body: newCourse("BIO11", ana.ID), wantCode: http.StatusBadRequest, wantData: []byte(`{"teacher_id": "must be a teacher"}`)},
		{name: "unknown teacher", method: http.MethodPost, path: "/v1/admin/courses", token: token, body: newCourse("BIO11", uuid.NewString()), wantCode: http.StatusBadRequest},
		{name: "created", method: http.MethodPost, path: "/v1/admin/courses", token: token, body: newCourse("BIO11", teacher.ID), wantCode: http.StatusCreated},
		{name: "code taken", method: http.MethodPost, path: "/v1/admin/courses", token: token, body: newCourse("bio11", teacher.ID), wantCode: http.StatusBadRequest},
	})

	courses, err := e.Courses.Query(context.Background(), course.QueryFilter{TeacherID: teacher.ID})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	bio := courses[0]

	enroll := func(courseID, studentID string) []byte {
		return []byte(fmt.Sprintf(`{"course_id": %q, "student_id": %q, "term": "2026-T1"}`, courseID, studentID))
	}
	runTests(t, e, []httpTest{
		{name: "enroll a teacher", method: http.MethodPost, path: "/v1/admin/enrollments", token: token, body: enroll(bio.ID, teacher.ID), wantCode: http.StatusBadRequest, wantData: []byte(`{"student_id": "must be a student"}`)},
		{name: "unknown course", method: http.MethodPost, path: "/v1/admin/enrollments", token: token, body: enroll(uuid.NewString(), ana.ID), wantCode: http.StatusNotFound},
		{name: "enrolled", method: http.MethodPost, path: "/v1/admin/enrollments", token: token, body: enroll(bio.ID, ana.ID), wantCode: http.StatusCreated},
		{name: "enrolled twice", method: http.MethodPost, path: "/v1/admin/enrollments", token: token, body: enroll(bio.ID, ana.ID), wantCode: http.StatusBadRequest},
	})

	req, rec := newAuthRequest(http.MethodGet, "/v1/admin/enrollments?course_id="+bio.ID, token)
	e.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var enrollments []course.Enrollment
	decode(t, rec, &enrollments)
	require.Len(t, enrollments, 1)
	enrollment := enrollments[0]
	assert.Equal(t, ana.ID, enrollment.StudentID)
	assert.Nil(t, enrollment.Percentage)

	pct := 81.5
	graded := enrollment
	graded.Grade = "A"
	graded.Percentage = &pct
	path := "/v1/admin/enrollments/" + enrollment.ID + "/grade"
	runTests(t, e, []httpTest{
		{name: "no grade", method: http.MethodPut, path: path, token: token, body: []byte(`{"percentage": 50}`), wantCode: http.StatusBadRequest},
		{name: "over 100", method: http.MethodPut, path: path, token: token, body: []byte(`{"grade": "A", "percentage": 120}`), wantCode: http.StatusBadRequest},
		{name: "unknown", method: http.MethodPut, path: "/v1/admin/enrollments/nope/grade", token: token, body: []byte(`{"grade": "A"}`), wantCode: http.StatusNotFound},
		{name: "graded", method: http.MethodPut, path: path, token: token, body: []byte(`{"grade": "A", "percentage": 81.5}`), wantCode: http.StatusOK, wantData: marchallObj(t, graded)},
		{name: "other term", method: http.MethodGet, path: "/v1/admin/enrollments?term=2026-T2", token: token, wantCode: http.StatusOK, wantData: marchallList(t)},
	})
}
