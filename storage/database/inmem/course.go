package inmemdb

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) codeTaken(code string) bool {
	_, found := repo.db.courses.find(func(c course.Course) bool { return strings.EqualFold(c.Code, code) })
	return found
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if repo.codeTaken(c.Code) {
		return course.Course{}, core.NewValidationError(course.ErrCodeExists, core.FieldError{Field: "code", Error: course.ErrCodeExists.Error()})
	}
	c.ID = uuid.NewString()
	repo.db.courses.put(ctx, c.ID, c)
	return c, nil
}

func (repo *courseRepository) GetCourseByID(_ context.Context, id string) (course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if c, ok := repo.db.courses.get(id); ok {
		return c, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) CodeExists(_ context.Context, code string) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.codeTaken(code), nil
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter course.QueryFilter) ([]course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	return repo.db.courses.filter(
		func(c course.Course) bool {
			return (filter.TeacherID == "" || c.TeacherID == filter.TeacherID) &&
				allowed(filter.IDs, c.ID) &&
				(filter.Department == "" || c.Department == filter.Department)
		},
		func(a, b course.Course) bool { return a.Name < b.Name },
	), nil
}

func (repo *courseRepository) enrolled(courseID, studentID, term string) bool {
	_, found := repo.db.enrollments.find(func(e course.Enrollment) bool {
		return e.CourseID == courseID && e.StudentID == studentID && e.Term == term
	})
	return found
}

func (repo *courseRepository) CreateEnrollment(ctx context.Context, e course.Enrollment) (course.Enrollment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if repo.enrolled(e.CourseID, e.StudentID, e.Term) {
		return course.Enrollment{}, core.NewValidationError(course.ErrAlreadyEnrolled, core.FieldError{Field: "student_id", Error: course.ErrAlreadyEnrolled.Error()})
	}
	e.ID = uuid.NewString()
	repo.db.enrollments.put(ctx, e.ID, e)
	return e, nil
}

func (repo *courseRepository) EnrollmentExists(_ context.Context, courseID, studentID, term string) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.enrolled(courseID, studentID, term), nil
}

func (repo *courseRepository) GetEnrollmentByID(_ context.Context, id string) (course.Enrollment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if e, ok := repo.db.enrollments.get(id); ok {
		return e, nil
	}
	return course.Enrollment{}, course.ErrEnrollmentNotFound
}

func (repo *courseRepository) QueryEnrollments(_ context.Context, filter course.EnrollmentFilter) ([]course.Enrollment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	return repo.db.enrollments.filter(
		func(e course.Enrollment) bool {
			return allowed(filter.CourseIDs, e.CourseID) &&
				allowed(filter.StudentIDs, e.StudentID) &&
				(filter.Term == "" || e.Term == filter.Term)
		},
		func(a, b course.Enrollment) bool {
			if a.Term != b.Term {
				return a.Term < b.Term
			}
			return a.CreatedAt.Before(b.CreatedAt)
		},
	), nil
}

func (repo *courseRepository) UpdateEnrollment(ctx context.Context, e course.Enrollment) (course.Enrollment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.enrollments.get(e.ID); !ok {
		return course.Enrollment{}, course.ErrEnrollmentNotFound
	}
	repo.db.enrollments.put(ctx, e.ID, e)
	return e, nil
}
