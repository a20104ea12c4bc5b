package course_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/course"
	"github.com/akia2466/PMNTS-Lovable/core/user"
	"github.com/akia2466/PMNTS-Lovable/tests"
)

func TestService_Create(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	teacher := f.CreateUser(t, user.RoleTeacher, "Ben Tau", "ben@pmnts.edu")

	_, err := f.Courses.Create(ctx, course.NewCourse{Code: "MATH101", Name: "Algebra", Department: "Maths", TeacherID: teacher.ID})
	require.NoError(t, err)

	_, err = f.Courses.Create(ctx, course.NewCourse{Code: "math101", Name: "Algebra bis", Department: "Maths", TeacherID: teacher.ID})
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "code", verr.Fields[0].Field)
}

func TestService_Enroll(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	teacher := f.CreateUser(t, user.RoleTeacher, "Ben Tau", "ben@pmnts.edu")
	student := f.CreateUser(t, user.RoleStudent, "Ana Kila", "ana@pmnts.edu")
	c := f.CreateCourse(t, teacher, "MATH101", "Algebra")

	tests := []struct {
		name    string
		ne      course.NewEnrollment
		wantErr bool
	}{
		{"first term", course.NewEnrollment{CourseID: c.ID, StudentID: student.ID, Term: "2026-T1"}, false},
		{"same term twice", course.NewEnrollment{CourseID: c.ID, StudentID: student.ID, Term: "2026-T1"}, true},
		{"next term", course.NewEnrollment{CourseID: c.ID, StudentID: student.ID, Term: "2026-T2"}, false},
		{"unknown course", course.NewEnrollment{CourseID: "00000000-0000-0000-0000-000000000000", StudentID: student.ID, Term: "2026-T1"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Courses.Enroll(ctx, tt.ne)
			if (err != nil) != tt.wantErr {
				t.Errorf("Enroll() error = %v; wantErr %v", err, tt.wantErr)
			}
		})
	}

	ids, err := f.Courses.StudentCourseIDs(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID}, ids)

	roster, err := f.Courses.RosterIDs(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{student.ID}, roster)
}

func TestService_GetTaught(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	teacher := f.CreateUser(t, user.RoleTeacher, "Ben Tau", "ben@pmnts.edu")
	other := f.CreateUser(t, user.RoleTeacher, "Dan Oro", "dan@pmnts.edu")
	c := f.CreateCourse(t, teacher, "MATH101", "Algebra")

	tests := []struct {
		name      string
		teacherID string
		isAdmin   bool
		wantErr   error
	}{
		{"own course", teacher.ID, false, nil},
		{"colleague's course", other.ID, false, core.ErrPermissionDenied},
		{"admin", other.ID, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Courses.GetTaught(ctx, c.ID, tt.teacherID, tt.isAdmin)
			if err != tt.wantErr {
				t.Errorf("GetTaught() error = %v; want %v", err, tt.wantErr)
			}
		})
	}
}

func TestService_Grade(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	teacher := f.CreateUser(t, user.RoleTeacher, "Ben Tau", "ben@pmnts.edu")
	student := f.CreateUser(t, user.RoleStudent, "Ana Kila", "ana@pmnts.edu")
	e := f.Enroll(t, f.CreateCourse(t, teacher, "MATH101", "Algebra"), student, "2026-T1")

	pct := 87.5
	graded, err := f.Courses.Grade(ctx, e.ID, course.GradeEnrollment{Grade: "A", Percentage: &pct})
	require.NoError(t, err)
	assert.Equal(t, "A", graded.Grade)
	require.NotNil(t, graded.Percentage)
	assert.Equal(t, 87.5, *graded.Percentage)

	_, err = f.Courses.Grade(ctx, "00000000-0000-0000-0000-000000000000", course.GradeEnrollment{Grade: "B"})
	assert.Equal(t, course.ErrEnrollmentNotFound, err)
}
