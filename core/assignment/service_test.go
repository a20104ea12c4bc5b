package assignment_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/assignment"
	"github.com/akia2466/PMNTS-Lovable/core/user"
	"github.com/akia2466/PMNTS-Lovable/tests"
)

func score(n int) *int { return &n }

func TestService_lifecycle(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	teacher := f.CreateUser(t, user.RoleTeacher, "Ben Tau", "ben@pmnts.edu")
	colleague := f.CreateUser(t, user.RoleTeacher, "Dan Oro", "dan@pmnts.edu")
	ana := f.CreateUser(t, user.RoleStudent, "Ana Kila", "ana@pmnts.edu")
	cal := f.CreateUser(t, user.RoleStudent, "Cal Moi", "cal@pmnts.edu")
	outsider := f.CreateUser(t, user.RoleStudent, "Dee Rua", "dee@pmnts.edu")
	c := f.CreateCourse(t, teacher, "MATH101", "Algebra")
	f.Enroll(t, c, ana, "2026-T1")
	f.Enroll(t, c, cal, "2026-T1")

	_, err := f.Assignments.Create(ctx, colleague, assignment.NewAssignment{CourseID: c.ID, Title: "x", DueDate: time.Now(), MaxScore: 10}, nil)
	assert.Equal(t, core.ErrPermissionDenied, err, "only the course teacher assigns work")

	past := f.CreateAssignment(t, teacher, c, "Past", time.Now().Add(-24*time.Hour))
	upcoming := f.CreateAssignment(t, teacher, c, "Upcoming", time.Now().Add(24*time.Hour))

	views, err := f.Assignments.ForStudent(ctx, ana.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, past.ID, views[0].ID, "ordered by due date")
	assert.True(t, views[0].Overdue)
	assert.False(t, views[1].Overdue)
	assert.Equal(t, assignment.StatusPending, views[1].Status)
	assert.Equal(t, "Algebra", views[1].CourseName)
	assert.Equal(t, "Ben Tau", views[1].TeacherName)

	_, err = f.Assignments.Submit(ctx, outsider, upcoming.ID, assignment.NewSubmission{}, nil)
	assert.Equal(t, core.ErrPermissionDenied, err, "only enrolled students submit")

	up := core.Upload{Name: "answers.pdf", Size: 3, Content: strings.NewReader("abc")}
	first, err := f.Assignments.Submit(ctx, ana, upcoming.ID, assignment.NewSubmission{}, &up)
	require.NoError(t, err)
	assert.NotEmpty(t, first.FileURL)
	second, err := f.Assignments.Submit(ctx, ana, upcoming.ID, assignment.NewSubmission{FileURL: "https://docs.example.com/answers"}, nil)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "a resubmission replaces the previous one")
	_, err = f.Assignments.Submit(ctx, cal, upcoming.ID, assignment.NewSubmission{}, nil)
	require.NoError(t, err)

	teacherViews, err := f.Assignments.ForTeacher(ctx, teacher)
	require.NoError(t, err)
	require.Len(t, teacherViews, 2)
	assert.Equal(t, 2, teacherViews[1].Enrolled)
	assert.Equal(t, 2, teacherViews[1].Submitted)
	assert.Zero(t, teacherViews[1].Graded)

	n, err := f.Assignments.AwaitingGrading(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	subs, err := f.Assignments.Submissions(ctx, teacher, upcoming.ID)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "Ana Kila", subs[0].Student.FullName)

	tests := []struct {
		name    string
		grader  user.User
		score   int
		wantErr bool
	}{
		{"over max score", teacher, 101, true},
		{"colleague", colleague, 80, true},
		{"valid", teacher, 80, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Assignments.Grade(ctx, tt.grader, second.ID, assignment.Grade{Score: score(tt.score), Feedback: "ok"})
			if (err != nil) != tt.wantErr {
				t.Errorf("Grade() error = %v; wantErr %v", err, tt.wantErr)
			}
		})
	}

	views, err = f.Assignments.ForStudent(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, assignment.StatusGraded, views[1].Status)
	require.NotNil(t, views[1].Score)
	assert.Equal(t, 80, *views[1].Score)
	assert.Equal(t, 80, views[1].Submission.Percentage(upcoming.MaxScore))

	_, err = f.Assignments.Submit(ctx, ana, upcoming.ID, assignment.NewSubmission{}, nil)
	var verr *core.ValidationError
	assert.ErrorAs(t, err, &verr, "graded work cannot be resubmitted")

	graded, err := f.Assignments.Graded(ctx, ana.ID, 5)
	require.NoError(t, err)
	require.Len(t, graded, 1)
	assert.Equal(t, upcoming.ID, graded[0].ID)

	n, err = f.Assignments.AwaitingGrading(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, core.ErrPermissionDenied, f.Assignments.Delete(ctx, colleague, past.ID))
	require.NoError(t, f.Assignments.Delete(ctx, teacher, past.ID))
	_, err = f.Assignments.GetByID(ctx, past.ID)
	assert.Equal(t, assignment.ErrNotFound, err)
}

func TestSubmission_Percentage(t *testing.T) {
	tests := []struct {
		name     string
		score    *int
		maxScore int
		want     int
	}{
		{"ungraded", nil, 100, 0},
		{"rounded", score(2), 3, 67},
		{"full", score(20), 20, 100},
		{"no max score", score(5), 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := assignment.Submission{Score: tt.score}
			if got := s.Percentage(tt.maxScore); got != tt.want {
				t.Errorf("Percentage() = %v; want %v", got, tt.want)
			}
		})
	}
}
