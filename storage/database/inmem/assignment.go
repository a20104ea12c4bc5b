package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/akia2466/PMNTS-Lovable/core/assignment"
)

type assignmentRepository struct {
	db *DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *DB) assignment.Repository {
	return &assignmentRepository{db: db}
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	a.ID = uuid.NewString()
	repo.db.assignments.put(ctx, a.ID, a)
	return a, nil
}

func (repo *assignmentRepository) GetAssignmentByID(_ context.Context, id string) (assignment.Assignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if a, ok := repo.db.assignments.get(id); ok {
		return a, nil
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) QueryAssignments(_ context.Context, filter assignment.QueryFilter) ([]assignment.Assignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	return repo.db.assignments.filter(
		func(a assignment.Assignment) bool {
			return allowed(filter.IDs, a.ID) &&
				allowed(filter.CourseIDs, a.CourseID) &&
				(filter.TeacherID == "" || a.TeacherID == filter.TeacherID) &&
				(filter.DueAfter.IsZero() || a.DueDate.After(filter.DueAfter))
		},
		func(a, b assignment.Assignment) bool { return a.DueDate.Before(b.DueDate) },
	), nil
}

// DeleteAssignment cascades to the submissions of the assignment.
func (repo *assignmentRepository) DeleteAssignment(ctx context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if !repo.db.assignments.remove(ctx, id) {
		return assignment.ErrNotFound
	}
	for _, s := range repo.db.submissions.filter(func(s assignment.Submission) bool { return s.AssignmentID == id }, nil) {
		repo.db.submissions.remove(ctx, s.ID)
	}
	return nil
}

func (repo *assignmentRepository) SaveSubmission(ctx context.Context, s assignment.Submission) (assignment.Submission, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	prev, found := repo.db.submissions.find(func(o assignment.Submission) bool {
		return o.AssignmentID == s.AssignmentID && o.StudentID == s.StudentID
	})
	switch {
	case found && prev.Status == assignment.SubmissionGraded:
		return assignment.Submission{}, assignment.ErrAlreadyGraded
	case found:
		s.ID = prev.ID
	default:
		s.ID = uuid.NewString()
	}
	repo.db.submissions.put(ctx, s.ID, s)
	return s, nil
}

func (repo *assignmentRepository) GetSubmissionByID(_ context.Context, id string) (assignment.Submission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if s, ok := repo.db.submissions.get(id); ok {
		return s, nil
	}
	return assignment.Submission{}, assignment.ErrSubmissionNotFound
}

func (repo *assignmentRepository) QuerySubmissions(_ context.Context, filter assignment.SubmissionFilter) ([]assignment.Submission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	return repo.db.submissions.filter(
		func(s assignment.Submission) bool {
			return allowed(filter.AssignmentIDs, s.AssignmentID) &&
				allowed(filter.StudentIDs, s.StudentID) &&
				(filter.Status == "" || s.Status == filter.Status)
		},
		func(a, b assignment.Submission) bool { return a.SubmittedAt.After(b.SubmittedAt) },
	), nil
}

func (repo *assignmentRepository) UpdateSubmission(ctx context.Context, s assignment.Submission) (assignment.Submission, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.submissions.get(s.ID); !ok {
		return assignment.Submission{}, assignment.ErrSubmissionNotFound
	}
	repo.db.submissions.put(ctx, s.ID, s)
	return s, nil
}
