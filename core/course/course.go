package course

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("course")
	ErrEnrollmentNotFound = core.NewNotFoundError("enrollment")
	ErrCodeExists         = errors.New("a course with this code already exists")
	ErrAlreadyEnrolled    = errors.New("student already enrolled in this course for this term")
)

type Course struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Department  string    `json:"department"`
	Description string    `json:"description"`
	Credits     int       `json:"credits"`
	TeacherID   string    `json:"teacher_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Enrollment is a student's registration in a Course for a term, with the grade reached so far.
type Enrollment struct {
	ID         string    `json:"id"`
	CourseID   string    `json:"course_id"`
	StudentID  string    `json:"student_id"`
	Term       string    `json:"term"`
	Grade      string    `json:"grade"`
	Percentage *float64  `json:"percentage"`
	CreatedAt  time.Time `json:"created_at"`
}

type NewCourse struct {
	Code        string `json:"code" validate:"required,alphanum_,max=20"`
	Name        string `json:"name" validate:"required,notblank,max=120"`
	Department  string `json:"department" validate:"required,notblank,max=80"`
	Description string `json:"description"`
	Credits     int    `json:"credits" validate:"gte=0,lte=20"`
	TeacherID   string `json:"teacher_id" validate:"required,uuid"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Code = core.CleanString(nc.Code)
	nc.Name = core.CleanString(nc.Name)
	nc.Department = core.CleanString(nc.Department)
	nc.Description = core.CleanString(nc.Description)
	return validate.Struct(nc)
}

type NewEnrollment struct {
	CourseID  string `json:"course_id" validate:"required,uuid"`
	StudentID string `json:"student_id" validate:"required,uuid"`
	Term      string `json:"term" validate:"required,notblank,max=40"`
}

func (ne *NewEnrollment) Validate(validate *validator.Validate) error {
	ne.Term = core.CleanString(ne.Term)
	return validate.Struct(ne)
}

// GradeEnrollment sets the term results of an Enrollment.
type GradeEnrollment struct {
	Grade      string   `json:"grade" validate:"required,max=4"`
	Percentage *float64 `json:"percentage" validate:"omitempty,gte=0,lte=100"`
}

type QueryFilter struct {
	TeacherID  string
	IDs        []string
	Department string
}

type EnrollmentFilter struct {
	CourseIDs  []string
	StudentIDs []string
	Term       string
}

type (
	Repository interface {
		CreateCourse(ctx context.Context, c Course) (Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		CodeExists(ctx context.Context, code string) (bool, error)
		QueryCourses(ctx context.Context, filter QueryFilter) ([]Course, error)
		CreateEnrollment(ctx context.Context, e Enrollment) (Enrollment, error)
		EnrollmentExists(ctx context.Context, courseID, studentID, term string) (bool, error)
		GetEnrollmentByID(ctx context.Context, id string) (Enrollment, error)
		QueryEnrollments(ctx context.Context, filter EnrollmentFilter) ([]Enrollment, error)
		UpdateEnrollment(ctx context.Context, e Enrollment) (Enrollment, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a Course. nc must have been validated.
func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	exists, err := svc.repo.CodeExists(ctx, nc.Code)
	if err != nil {
		return Course{}, errors.Wrap(err, "checking course code uniqueness")
	}
	if exists {
		return Course{}, core.NewValidationError(ErrCodeExists, core.FieldError{Field: "code", Error: ErrCodeExists.Error()})
	}
	return svc.repo.CreateCourse(ctx, Course{
		Code:        nc.Code,
		Name:        nc.Name,
		Department:  nc.Department,
		Description: nc.Description,
		Credits:     nc.Credits,
		TeacherID:   nc.TeacherID,
		CreatedAt:   time.Now().UTC(),
	})
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, filter)
}

// Taught lists the courses of teacherID.
func (svc *Service) Taught(ctx context.Context, teacherID string) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, QueryFilter{TeacherID: teacherID})
}

// ByIDs bulk-loads the given courses into an id -> Course map.
func (svc *Service) ByIDs(ctx context.Context, ids ...string) (map[string]Course, error) {
	ids = core.UniqueStrings(ids...)
	if len(ids) == 0 {
		return map[string]Course{}, nil
	}
	courses, err := svc.repo.QueryCourses(ctx, QueryFilter{IDs: ids})
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	byID := make(map[string]Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}
	return byID, nil
}

// GetTaught returns the Course id, provided teacherID teaches it. Admins pass any course.
func (svc *Service) GetTaught(ctx context.Context, id, teacherID string, isAdmin bool) (Course, error) {
	c, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if !isAdmin && c.TeacherID != teacherID {
		return Course{}, core.ErrPermissionDenied
	}
	return c, nil
}

// Enroll registers a student in a course for a term. ne must have been validated.
func (svc *Service) Enroll(ctx context.Context, ne NewEnrollment) (Enrollment, error) {
	if _, err := svc.repo.GetCourseByID(ctx, ne.CourseID); err != nil {
		return Enrollment{}, err
	}
	exists, err := svc.repo.EnrollmentExists(ctx, ne.CourseID, ne.StudentID, ne.Term)
	if err != nil {
		return Enrollment{}, errors.Wrap(err, "checking enrollment uniqueness")
	}
	if exists {
		return Enrollment{}, core.NewValidationError(ErrAlreadyEnrolled, core.FieldError{Field: "student_id", Error: ErrAlreadyEnrolled.Error()})
	}
	return svc.repo.CreateEnrollment(ctx, Enrollment{
		CourseID:  ne.CourseID,
		StudentID: ne.StudentID,
		Term:      ne.Term,
		CreatedAt: time.Now().UTC(),
	})
}

func (svc *Service) Enrollments(ctx context.Context, filter EnrollmentFilter) ([]Enrollment, error) {
	return svc.repo.QueryEnrollments(ctx, filter)
}

// StudentCourseIDs lists the ids of the courses studentID is enrolled in, any term.
func (svc *Service) StudentCourseIDs(ctx context.Context, studentID string) ([]string, error) {
	enrollments, err := svc.repo.QueryEnrollments(ctx, EnrollmentFilter{StudentIDs: []string{studentID}})
	if err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	ids := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.CourseID)
	}
	return core.UniqueStrings(ids...), nil
}

// RosterIDs lists the ids of the students enrolled in the given courses.
func (svc *Service) RosterIDs(ctx context.Context, courseIDs ...string) ([]string, error) {
	if len(courseIDs) == 0 {
		return []string{}, nil
	}
	enrollments, err := svc.repo.QueryEnrollments(ctx, EnrollmentFilter{CourseIDs: courseIDs})
	if err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	ids := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.StudentID)
	}
	return core.UniqueStrings(ids...), nil
}

// Grade records the term results of an Enrollment. ge must have been validated.
func (svc *Service) Grade(ctx context.Context, id string, ge GradeEnrollment) (Enrollment, error) {
	e, err := svc.repo.GetEnrollmentByID(ctx, id)
	if err != nil {
		return Enrollment{}, err
	}
	e.Grade = ge.Grade
	e.Percentage = ge.Percentage
	return svc.repo.UpdateEnrollment(ctx, e)
}
