package attendance_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/attendance"
	"github.com/akia2466/PMNTS-Lovable/core/user"
	"github.com/akia2466/PMNTS-Lovable/services/spreadsheet"
	"github.com/akia2466/PMNTS-Lovable/tests"
)

func TestService_Mark(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	teacher := f.CreateUser(t, user.RoleTeacher, "Ben Tau", "ben@pmnts.edu")
	colleague := f.CreateUser(t, user.RoleTeacher, "Dan Oro", "dan@pmnts.edu")
	ana := f.CreateUser(t, user.RoleStudent, "Ana Kila", "ana@pmnts.edu")
	cal := f.CreateUser(t, user.RoleStudent, "Cal Moi", "cal@pmnts.edu")
	c := f.CreateCourse(t, teacher, "MATH101", "Algebra")
	f.Enroll(t, c, ana, "2026-T1")

	mark := func(date string, entries ...attendance.MarkEntry) attendance.Mark {
		return attendance.Mark{CourseID: c.ID, Date: date, Entries: entries}
	}

	tests := []struct {
		name    string
		by      user.User
		m       attendance.Mark
		wantErr bool
	}{
		{"teacher marks", teacher, mark("2026-03-02", attendance.MarkEntry{StudentID: ana.ID, Status: attendance.StatusLate}), false},
		{"remarking replaces", teacher, mark("2026-03-02", attendance.MarkEntry{StudentID: ana.ID, Status: attendance.StatusPresent, Notes: "bus"}), false},
		{"another day", teacher, mark("2026-03-03", attendance.MarkEntry{StudentID: ana.ID, Status: attendance.StatusAbsent}), false},
		{"colleague", colleague, mark("2026-03-04", attendance.MarkEntry{StudentID: ana.ID, Status: attendance.StatusPresent}), true},
		{"student not enrolled", teacher, mark("2026-03-04", attendance.MarkEntry{StudentID: cal.ID, Status: attendance.StatusPresent}), true},
		{"bad date", teacher, mark("03/04/2026", attendance.MarkEntry{StudentID: ana.ID, Status: attendance.StatusPresent}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Attendance.Mark(ctx, tt.by, tt.m)
			if (err != nil) != tt.wantErr {
				t.Errorf("Mark() error = %v; wantErr %v", err, tt.wantErr)
			}
		})
	}

	report, err := f.Attendance.StudentReport(ctx, ana.ID)
	require.NoError(t, err)
	require.Len(t, report.Records, 2)
	assert.Equal(t, "2026-03-03", report.Records[0].Date.Format(attendance.DateLayout), "most recent first")
	assert.Equal(t, attendance.StatusPresent, report.Records[1].Status)
	assert.Equal(t, "bus", report.Records[1].Notes)
	assert.Equal(t, "Algebra", report.Records[1].CourseName)
	assert.Equal(t, 50, report.Summary.AttendanceRate)
	assert.True(t, report.Summary.BelowThreshold)
	assert.Equal(t, 75, report.Summary.Threshold)
}

func TestService_Roster(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	teacher := f.CreateUser(t, user.RoleTeacher, "Ben Tau", "ben@pmnts.edu")
	admin := f.CreateUser(t, user.RoleAdmin, "Eve Admin", "eve@pmnts.edu")
	ana := f.CreateUser(t, user.RoleStudent, "Ana Kila", "ana@pmnts.edu")
	cal := f.CreateUser(t, user.RoleStudent, "Cal Moi", "cal@pmnts.edu")
	c := f.CreateCourse(t, teacher, "MATH101", "Algebra")
	f.Enroll(t, c, cal, "2026-T1")
	f.Enroll(t, c, ana, "2026-T1")

	for _, day := range []string{"2026-03-02", "2026-03-03"} {
		_, err := f.Attendance.Mark(ctx, teacher, attendance.Mark{CourseID: c.ID, Date: day, Entries: []attendance.MarkEntry{
			{StudentID: ana.ID, Status: attendance.StatusPresent},
			{StudentID: cal.ID, Status: attendance.StatusAbsent},
		}})
		require.NoError(t, err)
	}

	roster, err := f.Attendance.Roster(ctx, admin, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, roster.Overall.Total)
	assert.Equal(t, 50, roster.Rate)
	require.Len(t, roster.Students, 2)
	assert.Equal(t, "Ana Kila", roster.Students[0].Student.FullName)
	assert.Equal(t, attendance.BadgeGood, roster.Students[0].Badge)
	assert.Equal(t, attendance.BadgeAtRisk, roster.Students[1].Badge)

	_, err = f.Attendance.Roster(ctx, ana, c.ID)
	assert.Equal(t, core.ErrPermissionDenied, err)

	var buf bytes.Buffer
	require.NoError(t, f.Attendance.ExportRoster(ctx, &buf, spreadsheet.NewExporter(), teacher, c.ID))
	assert.NotZero(t, buf.Len())
	buf.Reset()
	require.NoError(t, f.Attendance.ExportStudent(ctx, &buf, spreadsheet.NewExporter(), ana.ID))
	assert.NotZero(t, buf.Len())
}
