package attendance

import (
	"context"
	"io"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/course"
	"github.com/akia2466/PMNTS-Lovable/core/directory"
	"github.com/akia2466/PMNTS-Lovable/core/user"
)

// DateLayout is the wire format of attendance dates.
const DateLayout = "2006-01-02"

var errNotEnrolled = errors.New("student is not enrolled in this course")

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
)

func (s Status) Valid() bool {
	return s == StatusPresent || s == StatusAbsent || s == StatusLate
}

type Record struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	StudentID string    `json:"student_id"`
	Date      time.Time `json:"date"`
	Status    Status    `json:"status"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

// RecordView is a Record with its course resolved.
type RecordView struct {
	Record
	CourseName string `json:"course_name"`
	CourseCode string `json:"course_code"`
}

type QueryFilter struct {
	StudentIDs []string
	CourseIDs  []string
	From       time.Time
	To         time.Time
}

// Mark records the attendance of a course session.
type Mark struct {
	CourseID string      `json:"course_id" validate:"required,uuid"`
	Date     string      `json:"date" validate:"required,datetime=2006-01-02"`
	Entries  []MarkEntry `json:"entries" validate:"required,min=1,dive"`
}

type MarkEntry struct {
	StudentID string `json:"student_id" validate:"required,uuid"`
	Status    Status `json:"status" validate:"required,oneof=present absent late"`
	Notes     string `json:"notes" validate:"max=500"`
}

func (m *Mark) Validate(validate *validator.Validate) error {
	for i := range m.Entries {
		m.Entries[i].Notes = core.CleanString(m.Entries[i].Notes)
	}
	return validate.Struct(m)
}

// RosterEntry is a student's attendance in a teacher's course.
type RosterEntry struct {
	Student directory.Person `json:"student"`
	Stats   Stats            `json:"stats"`
	Rate    int              `json:"rate"`
	Badge   Badge            `json:"badge"`
}

type Roster struct {
	Course   course.Course `json:"course"`
	Overall  Stats         `json:"overall"`
	Rate     int           `json:"rate"`
	Students []RosterEntry `json:"students"`
}

// StudentReport is the attendance page of a student.
type StudentReport struct {
	Summary Summary      `json:"summary"`
	Records []RecordView `json:"records"`
}

// Exporter writes attendance reports as spreadsheets.
type Exporter interface {
	ExportRoster(w io.Writer, roster Roster) error
	ExportRecords(w io.Writer, student directory.Person, report StudentReport) error
}

type (
	Repository interface {
		// UpsertRecords inserts records, replacing those with the same course, student & date.
		UpsertRecords(ctx context.Context, records ...Record) ([]Record, error)
		// QueryRecords returns the matching records, most recent first.
		QueryRecords(ctx context.Context, filter QueryFilter) ([]Record, error)
	}

	Service struct {
		repo      Repository
		tx        core.Transactor
		courses   *course.Service
		dir       *directory.Directory
		threshold int
	}
)

func NewService(repo Repository, tx core.Transactor, courses *course.Service, dir *directory.Directory, conf *core.Config) *Service {
	return &Service{
		repo:      repo,
		tx:        tx,
		courses:   courses,
		dir:       dir,
		threshold: conf.AttendanceThreshold,
	}
}

func (svc *Service) Threshold() int { return svc.threshold }

// StudentReport summarizes the attendance of studentID across all courses.
func (svc *Service) StudentReport(ctx context.Context, studentID string) (StudentReport, error) {
	records, err := svc.repo.QueryRecords(ctx, QueryFilter{StudentIDs: []string{studentID}})
	if err != nil {
		return StudentReport{}, errors.Wrap(err, "querying attendance")
	}

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.CourseID)
	}
	courses, err := svc.courses.ByIDs(ctx, ids...)
	if err != nil {
		return StudentReport{}, err
	}
	infos := make(map[string]CourseInfo, len(courses))
	for id, c := range courses {
		infos[id] = CourseInfo{Name: c.Name, Code: c.Code}
	}

	views := make([]RecordView, 0, len(records))
	for _, r := range records {
		info := infos[r.CourseID]
		views = append(views, RecordView{Record: r, CourseName: info.Name, CourseCode: info.Code})
	}
	return StudentReport{
		Summary: Summarize(records, infos, svc.threshold),
		Records: views,
	}, nil
}

// Roster summarizes the attendance of every student enrolled in the course.
// Only the course teacher or an admin may read it.
func (svc *Service) Roster(ctx context.Context, viewer user.User, courseID string) (Roster, error) {
	c, err := svc.courses.GetTaught(ctx, courseID, viewer.ID, viewer.IsAdmin())
	if err != nil {
		return Roster{}, err
	}
	studentIDs, err := svc.courses.RosterIDs(ctx, c.ID)
	if err != nil {
		return Roster{}, err
	}
	records, err := svc.repo.QueryRecords(ctx, QueryFilter{CourseIDs: []string{c.ID}})
	if err != nil {
		return Roster{}, errors.Wrap(err, "querying attendance")
	}
	people, err := svc.dir.Lookup(ctx, studentIDs...)
	if err != nil {
		return Roster{}, err
	}

	byStudent := make(map[string][]Record, len(studentIDs))
	for _, r := range records {
		byStudent[r.StudentID] = append(byStudent[r.StudentID], r)
	}

	roster := Roster{Course: c, Overall: ComputeStats(records), Students: make([]RosterEntry, 0, len(studentIDs))}
	roster.Rate = roster.Overall.Rate()
	for _, id := range studentIDs {
		stats := ComputeStats(byStudent[id])
		rate := stats.Rate()
		roster.Students = append(roster.Students, RosterEntry{
			Student: directory.Resolve(people, id),
			Stats:   stats,
			Rate:    rate,
			Badge:   BadgeFor(rate),
		})
	}
	sort.SliceStable(roster.Students, func(i, j int) bool {
		return roster.Students[i].Student.FullName < roster.Students[j].Student.FullName
	})
	return roster, nil
}

// Mark records the statuses of a course session. m must have been validated.
func (svc *Service) Mark(ctx context.Context, teacher user.User, m Mark) ([]Record, error) {
	c, err := svc.courses.GetTaught(ctx, m.CourseID, teacher.ID, teacher.IsAdmin())
	if err != nil {
		return nil, err
	}
	date, err := time.Parse(DateLayout, m.Date)
	if err != nil {
		return nil, core.NewValidationError(err, core.FieldError{Field: "date", Error: "invalid date"})
	}
	enrolled, err := svc.courses.RosterIDs(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	onRoster := make(map[string]bool, len(enrolled))
	for _, id := range enrolled {
		onRoster[id] = true
	}

	now := time.Now().UTC()
	records := make([]Record, 0, len(m.Entries))
	for _, e := range m.Entries {
		if !onRoster[e.StudentID] {
			return nil, core.NewValidationError(errNotEnrolled, core.FieldError{Field: "student_id", Error: errNotEnrolled.Error()})
		}
		records = append(records, Record{
			CourseID:  c.ID,
			StudentID: e.StudentID,
			Date:      date,
			Status:    e.Status,
			Notes:     e.Notes,
			CreatedAt: now,
		})
	}

	var saved []Record
	err = svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		saved, err = svc.repo.UpsertRecords(ctx, records...)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "saving attendance")
	}
	return saved, nil
}

// ExportRoster writes the course roster as a workbook.
func (svc *Service) ExportRoster(ctx context.Context, w io.Writer, exp Exporter, viewer user.User, courseID string) error {
	roster, err := svc.Roster(ctx, viewer, courseID)
	if err != nil {
		return err
	}
	return errors.Wrap(exp.ExportRoster(w, roster), "exporting roster")
}

// ExportStudent writes the records of studentID as a workbook.
func (svc *Service) ExportStudent(ctx context.Context, w io.Writer, exp Exporter, studentID string) error {
	report, err := svc.StudentReport(ctx, studentID)
	if err != nil {
		return err
	}
	student, err := svc.dir.Get(ctx, studentID)
	if err != nil {
		return err
	}
	return errors.Wrap(exp.ExportRecords(w, student, report), "exporting attendance")
}
