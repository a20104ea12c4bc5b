package postgres

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/course"
)

type courseRow struct {
	ID          string      `db:"id"`
	Code        string      `db:"code"`
	Name        string      `db:"name"`
	Department  null.String `db:"department"`
	Description null.String `db:"description"`
	Credits     int         `db:"credits"`
	TeacherID   null.String `db:"teacher_id"`
	CreatedAt   time.Time   `db:"created_at"`
}

func (r courseRow) toCourse() course.Course {
	return course.Course{
		ID:          r.ID,
		Code:        r.Code,
		Name:        r.Name,
		Department:  r.Department.String,
		Description: r.Description.String,
		Credits:     r.Credits,
		TeacherID:   r.TeacherID.String,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

type enrollmentRow struct {
	ID         string       `db:"id"`
	CourseID   string       `db:"course_id"`
	StudentID  string       `db:"student_id"`
	Term       string       `db:"term"`
	Grade      null.String  `db:"grade"`
	Percentage null.Float64 `db:"percentage"`
	CreatedAt  time.Time    `db:"created_at"`
}

func (r enrollmentRow) toEnrollment() course.Enrollment {
	return course.Enrollment{
		ID:         r.ID,
		CourseID:   r.CourseID,
		StudentID:  r.StudentID,
		Term:       r.Term,
		Grade:      r.Grade.String,
		Percentage: r.Percentage.Ptr(),
		CreatedAt:  r.CreatedAt.UTC(),
	}
}

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

var (
	courseColumns     = []string{"id", "code", "name", "department", "description", "credits", "teacher_id", "created_at"}
	enrollmentColumns = []string{"id", "course_id", "student_id", "term", "grade", "percentage", "created_at"}
)

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	c.ID = uuid.NewString()
	_, err := repo.db.exec(ctx, psql.Insert("courses").
		Columns(courseColumns...).
		Values(c.ID, c.Code, c.Name, nullString(c.Department), nullString(c.Description), c.Credits, nullString(c.TeacherID), c.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return course.Course{}, core.NewValidationError(course.ErrCodeExists, core.FieldError{Field: "code", Error: course.ErrCodeExists.Error()})
		}
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return c, nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Course{}, course.ErrNotFound
	}
	var row courseRow
	q := psql.Select(courseColumns...).From("courses").Where(sq.Eq{"id": id})
	if err := repo.db.get(ctx, &row, q, course.ErrNotFound); err != nil {
		return course.Course{}, err
	}
	return row.toCourse(), nil
}

func (repo *courseRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var n int
	q := psql.Select("COUNT(*)").From("courses").Where(sq.Eq{"LOWER(code)": core.CleanString(code, true)})
	if err := repo.db.scalar(ctx, &n, q, nil); err != nil {
		return false, errors.Wrap(err, "counting courses")
	}
	return n > 0, nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter course.QueryFilter) ([]course.Course, error) {
	q := psql.Select(courseColumns...).From("courses").OrderBy("name ASC")
	if filter.TeacherID != "" {
		q = q.Where(sq.Eq{"teacher_id": filter.TeacherID})
	}
	if filter.IDs != nil {
		q = q.Where(sq.Eq{"id": filter.IDs})
	}
	if filter.Department != "" {
		q = q.Where(sq.Eq{"department": filter.Department})
	}

	var rows []courseRow
	if err := repo.db.selectAll(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.toCourse())
	}
	return courses, nil
}

func (repo *courseRepository) CreateEnrollment(ctx context.Context, e course.Enrollment) (course.Enrollment, error) {
	e.ID = uuid.NewString()
	_, err := repo.db.exec(ctx, psql.Insert("enrollments").
		Columns(enrollmentColumns...).
		Values(e.ID, e.CourseID, e.StudentID, e.Term, nullString(e.Grade), null.Float64FromPtr(e.Percentage), e.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return course.Enrollment{}, core.NewValidationError(course.ErrAlreadyEnrolled, core.FieldError{Field: "student_id", Error: course.ErrAlreadyEnrolled.Error()})
		}
		return course.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return e, nil
}

func (repo *courseRepository) EnrollmentExists(ctx context.Context, courseID, studentID, term string) (bool, error) {
	var n int
	q := psql.Select("COUNT(*)").From("enrollments").
		Where(sq.Eq{"course_id": courseID, "student_id": studentID, "term": term})
	if err := repo.db.scalar(ctx, &n, q, nil); err != nil {
		return false, errors.Wrap(err, "counting enrollments")
	}
	return n > 0, nil
}

func (repo *courseRepository) GetEnrollmentByID(ctx context.Context, id string) (course.Enrollment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Enrollment{}, course.ErrEnrollmentNotFound
	}
	var row enrollmentRow
	q := psql.Select(enrollmentColumns...).From("enrollments").Where(sq.Eq{"id": id})
	if err := repo.db.get(ctx, &row, q, course.ErrEnrollmentNotFound); err != nil {
		return course.Enrollment{}, err
	}
	return row.toEnrollment(), nil
}

func (repo *courseRepository) QueryEnrollments(ctx context.Context, filter course.EnrollmentFilter) ([]course.Enrollment, error) {
	q := psql.Select(enrollmentColumns...).From("enrollments").OrderBy("term ASC", "created_at ASC")
	if filter.CourseIDs != nil {
		q = q.Where(sq.Eq{"course_id": filter.CourseIDs})
	}
	if filter.StudentIDs != nil {
		q = q.Where(sq.Eq{"student_id": filter.StudentIDs})
	}
	if filter.Term != "" {
		q = q.Where(sq.Eq{"term": filter.Term})
	}

	var rows []enrollmentRow
	if err := repo.db.selectAll(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting enrollments")
	}
	enrollments := make([]course.Enrollment, 0, len(rows))
	for _, r := range rows {
		enrollments = append(enrollments, r.toEnrollment())
	}
	return enrollments, nil
}

func (repo *courseRepository) UpdateEnrollment(ctx context.Context, e course.Enrollment) (course.Enrollment, error) {
	n, err := repo.db.exec(ctx, psql.Update("enrollments").
		Set("grade", nullString(e.Grade)).
		Set("percentage", null.Float64FromPtr(e.Percentage)).
		Where(sq.Eq{"id": e.ID}))
	if err != nil {
		return course.Enrollment{}, errors.Wrap(err, "updating enrollment")
	}
	if n == 0 {
		return course.Enrollment{}, course.ErrEnrollmentNotFound
	}
	return e, nil
}
