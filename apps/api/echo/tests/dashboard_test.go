package tests

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akia2466/PMNTS-Lovable/core/announcement"
	"github.com/akia2466/PMNTS-Lovable/core/assignment"
	"github.com/akia2466/PMNTS-Lovable/core/course"
	"github.com/akia2466/PMNTS-Lovable/core/dashboard"
	"github.com/akia2466/PMNTS-Lovable/core/user"
)

func (e *env) overview(t *testing.T, token string) dashboard.Overview {
	t.Helper()

	req, rec := newAuthRequest(http.MethodGet, "/v1/dashboard", token)
	e.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var ov dashboard.Overview
	decode(t, rec, &ov)
	return ov
}

func (e *env) performance(t *testing.T, token, term string) dashboard.Performance {
	t.Helper()

	path := "/v1/dashboard/performance"
	if term != "" {
		path += "?term=" + term
	}
	req, rec := newAuthRequest(http.MethodGet, path, token)
	e.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var perf dashboard.Performance
	decode(t, rec, &perf)
	return perf
}

func Test_dashboardApi_overview(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	ana := e.CreateUser(t, user.RoleStudent, "Ana", "ana@pmnts.test")
	teacher := e.CreateUser(t, user.RoleTeacher, "Teacher", "teacher@pmnts.test")
	admin := e.CreateUser(t, user.RoleAdmin, "Admin", "admin@pmnts.test")
	teacherToken := e.getToken(t, teacher)

	bio := e.CreateCourse(t, teacher, "BIO11", "Biology")
	e.Enroll(t, bio, ana, "2026-T1")
	later := e.CreateAssignment(t, teacher, bio, "Cells essay", time.Now().Add(48*time.Hour))
	sooner := e.CreateAssignment(t, teacher, bio, "Lab report", time.Now().Add(24*time.Hour))
	_, err := e.Assignments.Submit(ctx, ana, sooner.ID, assignment.NewSubmission{FileURL: "https://example.com/lab.pdf"}, nil)
	require.NoError(t, err)

	e.message(t, teacherToken, ana.ID, "see me after class")
	e.announce(t, teacherToken, announcement.PriorityHigh, announcement.AudienceEveryone, "Exams")
	e.submitContact(t, "Enrolment")

	t.Run("student", func(t *testing.T) {
		ov := e.overview(t, e.getToken(t, ana))
		assert.Equal(t, user.RoleStudent, ov.Role)
		require.NotNil(t, ov.Student)
		assert.Nil(t, ov.Teacher)
		assert.Equal(t, 1, ov.Student.PendingAssignments)
		require.Len(t, ov.Student.UpcomingDeadlines, 1)
		assert.Equal(t, later.ID, ov.Student.UpcomingDeadlines[0].ID)
		assert.Equal(t, 1, ov.Student.UnreadMessages)
		assert.Equal(t, 0, ov.Student.Connections)
		require.Len(t, ov.Student.Announcements, 1)
		assert.Equal(t, "Exams", ov.Student.Announcements[0].Title)
	})
	t.Run("teacher", func(t *testing.T) {
		ov := e.overview(t, teacherToken)
		require.NotNil(t, ov.Teacher)
		assert.Equal(t, dashboard.TeacherOverview{
			Courses:         1,
			Students:        1,
			AwaitingGrading: 1,
			Announcements:   ov.Teacher.Announcements,
		}, *ov.Teacher)
		assert.Len(t, ov.Teacher.Announcements, 1)
	})
	t.Run("admin", func(t *testing.T) {
		ov := e.overview(t, e.getToken(t, admin))
		require.NotNil(t, ov.Admin)
		assert.Equal(t, 1, ov.Admin.Courses)
		assert.Equal(t, 1, ov.Admin.NewContactForms)
		assert.Equal(t, 0, ov.Admin.UnreadMessages)
	})
	t.Run("no token", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/dashboard")
		e.serve(req, rec)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func Test_dashboardApi_performance(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	ana := e.CreateUser(t, user.RoleStudent, "Ana", "ana@pmnts.test")
	cal := e.CreateUser(t, user.RoleStudent, "Cal", "cal@pmnts.test")
	teacher := e.CreateUser(t, user.RoleTeacher, "Teacher", "teacher@pmnts.test")
	anaToken := e.getToken(t, ana)

	bio := e.CreateCourse(t, teacher, "BIO11", "Biology")
	art := e.CreateCourse(t, teacher, "ART11", "Art")
	grade := func(en course.Enrollment, g string, p float64) {
		_, err := e.Courses.Grade(ctx, en.ID, course.GradeEnrollment{Grade: g, Percentage: &p})
		require.NoError(t, err)
	}
	grade(e.Enroll(t, bio, ana, "2026-T1"), "B", 70)
	grade(e.Enroll(t, art, ana, "2026-T2"), "A", 85)
	grade(e.Enroll(t, bio, cal, "2026-T1"), "D", 40)

	t.Run("student", func(t *testing.T) {
		perf := e.performance(t, anaToken, "")
		require.NotNil(t, perf.Student)
		assert.Equal(t, []string{"2026-T1", "2026-T2"}, perf.Student.Terms)
		require.Len(t, perf.Student.Courses, 2)
		assert.Equal(t, "Art", perf.Student.Courses[0].CourseName)
		assert.Equal(t, "Biology", perf.Student.Courses[1].CourseName)
		require.NotNil(t, perf.Student.OverallAverage)
		assert.Equal(t, 77.5, *perf.Student.OverallAverage)
		assert.Empty(t, perf.Student.Recent)
	})
	t.Run("student term", func(t *testing.T) {
		perf := e.performance(t, anaToken, "2026-T1")
		require.NotNil(t, perf.Student)
		require.Len(t, perf.Student.Courses, 1)
		assert.Equal(t, "B", perf.Student.Courses[0].Grade)
		require.NotNil(t, perf.Student.OverallAverage)
		assert.Equal(t, 70.0, *perf.Student.OverallAverage)
	})
	t.Run("student unknown term", func(t *testing.T) {
		perf := e.performance(t, anaToken, "2025-T3")
		require.NotNil(t, perf.Student)
		assert.Empty(t, perf.Student.Courses)
		assert.Nil(t, perf.Student.OverallAverage)
	})
	t.Run("teacher", func(t *testing.T) {
		perf := e.performance(t, e.getToken(t, teacher), "2026-T1")
		require.NotNil(t, perf.Teacher)
		assert.Nil(t, perf.Student)
		require.Len(t, perf.Teacher.Courses, 2)

		artPerf, bioPerf := perf.Teacher.Courses[0], perf.Teacher.Courses[1]
		assert.Equal(t, 0, artPerf.Students)
		assert.Nil(t, artPerf.Average)
		assert.Equal(t, 2, bioPerf.Students)
		assert.Equal(t, 2, bioPerf.Graded)
		require.NotNil(t, bioPerf.Average)
		assert.Equal(t, 55.0, *bioPerf.Average)
		assert.Equal(t, 70.0, *bioPerf.Highest)
		assert.Equal(t, 40.0, *bioPerf.Lowest)
		assert.Equal(t, 50, bioPerf.PassRate)
	})
}
