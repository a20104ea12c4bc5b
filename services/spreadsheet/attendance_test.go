package spreadsheet

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/akia2466/PMNTS-Lovable/core/attendance"
	"github.com/akia2466/PMNTS-Lovable/core/course"
	"github.com/akia2466/PMNTS-Lovable/core/directory"
	"github.com/akia2466/PMNTS-Lovable/core/user"
)

func openWorkbook(t *testing.T, buf *bytes.Buffer) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestExporter_ExportRoster(t *testing.T) {
	roster := attendance.Roster{
		Course:  course.Course{Code: "MATH101", Name: "Algebra"},
		Overall: attendance.Stats{Total: 4, Present: 2, Late: 1, Absent: 1},
		Rate:    75,
		Students: []attendance.RosterEntry{{
			Student: directory.Person{FullName: "Ana Kila", Role: user.RoleStudent, GradeLevel: "Grade 11"},
			Stats:   attendance.Stats{Total: 4, Present: 2, Late: 1, Absent: 1},
			Rate:    75,
			Badge:   attendance.BadgeAtRisk,
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, NewExporter().ExportRoster(&buf, roster))

	f := openWorkbook(t, &buf)
	assert.Equal(t, []string{RosterSheet}, f.GetSheetList())
	rows, err := f.GetRows(RosterSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"MATH101", "Algebra"}, rows[0])
	assert.Equal(t, "Student", rows[1][0])
	assert.Equal(t, "Ana Kila", rows[2][0])
	assert.Equal(t, "75", rows[2][6])
	assert.Equal(t, "at_risk", rows[2][7])
	assert.Equal(t, "Overall", rows[3][0])
}

func TestExporter_ExportRecords(t *testing.T) {
	report := attendance.StudentReport{
		Summary: attendance.Summary{
			Overall:        attendance.Stats{Total: 2, Present: 1, Absent: 1},
			AttendanceRate: 50,
			Threshold:      75,
			BelowThreshold: true,
			Courses: []attendance.CourseSummary{{
				CourseName: "Algebra", CourseCode: "MATH101",
				Stats:      attendance.Stats{Total: 2, Present: 1, Absent: 1},
				Percentage: 50, BelowThreshold: true,
			}},
		},
		Records: []attendance.RecordView{
			{Record: attendance.Record{Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), Status: attendance.StatusAbsent, Notes: "sick"}, CourseName: "Algebra", CourseCode: "MATH101"},
			{Record: attendance.Record{Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), Status: attendance.StatusPresent}, CourseName: "Algebra", CourseCode: "MATH101"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewExporter().ExportRecords(&buf, directory.Person{FullName: "Ana Kila"}, report))

	f := openWorkbook(t, &buf)
	assert.Equal(t, []string{SummarySheet, RecordsSheet}, f.GetSheetList())

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	require.Len(t, summary, 4)
	assert.Equal(t, "yes", summary[2][7])
	assert.Equal(t, "50", summary[3][6])

	records, err := f.GetRows(RecordsSheet)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"2026-03-02", "Algebra", "MATH101", "absent", "sick"}, records[1])
	assert.Equal(t, "present", records[2][3])
}
