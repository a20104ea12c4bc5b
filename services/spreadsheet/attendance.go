// Package spreadsheet writes the attendance reports as xlsx workbooks.
package spreadsheet

import (
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/akia2466/PMNTS-Lovable/core/attendance"
	"github.com/akia2466/PMNTS-Lovable/core/directory"
)

const (
	RosterSheet  = "Roster"
	SummarySheet = "Summary"
	RecordsSheet = "Records"
)

var (
	rosterHeader  = []interface{}{"Student", "Info", "Total", "Present", "Late", "Absent", "Rate (%)", "Status"}
	summaryHeader = []interface{}{"Course", "Code", "Total", "Present", "Late", "Absent", "Rate (%)", "Below threshold"}
	recordsHeader = []interface{}{"Date", "Course", "Code", "Status", "Notes"}
)

type Exporter struct{}

var _ attendance.Exporter = Exporter{}

func NewExporter() Exporter { return Exporter{} }

func (Exporter) ExportRoster(w io.Writer, roster attendance.Roster) error {
	wb, err := newWorkbook(RosterSheet)
	if err != nil {
		return err
	}
	defer wb.close()

	wb.row(RosterSheet, []interface{}{roster.Course.Code, roster.Course.Name})
	wb.header(RosterSheet, rosterHeader)
	for _, e := range roster.Students {
		s := e.Stats
		wb.row(RosterSheet, []interface{}{e.Student.FullName, e.Student.Info(), s.Total, s.Present, s.Late, s.Absent, e.Rate, string(e.Badge)})
	}
	o := roster.Overall
	wb.row(RosterSheet, []interface{}{"Overall", "", o.Total, o.Present, o.Late, o.Absent, roster.Rate, ""})
	return wb.write(w)
}

func (Exporter) ExportRecords(w io.Writer, student directory.Person, report attendance.StudentReport) error {
	wb, err := newWorkbook(SummarySheet, RecordsSheet)
	if err != nil {
		return err
	}
	defer wb.close()

	wb.row(SummarySheet, []interface{}{student.FullName, student.Info()})
	wb.header(SummarySheet, summaryHeader)
	for _, c := range report.Summary.Courses {
		s := c.Stats
		wb.row(SummarySheet, []interface{}{c.CourseName, c.CourseCode, s.Total, s.Present, s.Late, s.Absent, c.Percentage, yesNo(c.BelowThreshold)})
	}
	o := report.Summary.Overall
	wb.row(SummarySheet, []interface{}{"Overall", "", o.Total, o.Present, o.Late, o.Absent, report.Summary.AttendanceRate, yesNo(report.Summary.BelowThreshold)})

	wb.header(RecordsSheet, recordsHeader)
	for _, r := range report.Records {
		wb.row(RecordsSheet, []interface{}{r.Date.Format(attendance.DateLayout), r.CourseName, r.CourseCode, string(r.Status), r.Notes})
	}
	return wb.write(w)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// workbook keeps the next row of each sheet and the first error met while filling them.
type workbook struct {
	f    *excelize.File
	bold int
	next map[string]int
	err  error
}

func newWorkbook(sheets ...string) (*workbook, error) {
	f := excelize.NewFile()
	wb := &workbook{f: f, next: make(map[string]int, len(sheets))}
	for i, name := range sheets {
		if i == 0 {
			// a new file holds a single default sheet
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				_ = f.Close()
				return nil, errors.Wrap(err, "naming sheet")
			}
		} else if _, err := f.NewSheet(name); err != nil {
			_ = f.Close()
			return nil, errors.Wrap(err, "creating sheet")
		}
		wb.next[name] = 1
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, "creating style")
	}
	wb.bold = bold
	return wb, nil
}

func (wb *workbook) row(sheet string, values []interface{}) {
	if wb.err != nil {
		return
	}
	n := wb.next[sheet]
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err == nil {
		err = wb.f.SetSheetRow(sheet, cell, &values)
	}
	wb.err = errors.Wrapf(err, "writing row %d of %s", n, sheet)
	wb.next[sheet] = n + 1
}

func (wb *workbook) header(sheet string, values []interface{}) {
	n := wb.next[sheet]
	wb.row(sheet, values)
	if wb.err == nil {
		wb.err = errors.Wrap(wb.f.SetRowStyle(sheet, n, n, wb.bold), "styling header")
	}
}

func (wb *workbook) write(w io.Writer) error {
	if wb.err != nil {
		return wb.err
	}
	return errors.Wrap(wb.f.Write(w), "writing workbook")
}

func (wb *workbook) close() { _ = wb.f.Close() }
