package postgres

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/akia2466/PMNTS-Lovable/core/assignment"
)

type assignmentRow struct {
	ID          string      `db:"id"`
	CourseID    string      `db:"course_id"`
	TeacherID   string      `db:"teacher_id"`
	Title       string      `db:"title"`
	Description null.String `db:"description"`
	DueDate     time.Time   `db:"due_date"`
	FileURL     null.String `db:"file_url"`
	MaxScore    int         `db:"max_score"`
	CreatedAt   time.Time   `db:"created_at"`
}

func (r assignmentRow) toAssignment() assignment.Assignment {
	return assignment.Assignment{
		ID:          r.ID,
		CourseID:    r.CourseID,
		TeacherID:   r.TeacherID,
		Title:       r.Title,
		Description: r.Description.String,
		DueDate:     r.DueDate.UTC(),
		FileURL:     r.FileURL.String,
		MaxScore:    r.MaxScore,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

type submissionRow struct {
	ID           string      `db:"id"`
	AssignmentID string      `db:"assignment_id"`
	StudentID    string      `db:"student_id"`
	FileURL      null.String `db:"file_url"`
	Status       string      `db:"status"`
	Score        null.Int    `db:"score"`
	Feedback     null.String `db:"feedback"`
	SubmittedAt  time.Time   `db:"submitted_at"`
	GradedAt     null.Time   `db:"graded_at"`
}

func (r submissionRow) toSubmission() assignment.Submission {
	s := assignment.Submission{
		ID:           r.ID,
		AssignmentID: r.AssignmentID,
		StudentID:    r.StudentID,
		FileURL:      r.FileURL.String,
		Status:       assignment.SubmissionStatus(r.Status),
		Score:        r.Score.Ptr(),
		Feedback:     r.Feedback.String,
		SubmittedAt:  r.SubmittedAt.UTC(),
	}
	if r.GradedAt.Valid {
		t := r.GradedAt.Time.UTC()
		s.GradedAt = &t
	}
	return s
}

type assignmentRepository struct {
	db *DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *DB) assignment.Repository {
	return &assignmentRepository{db: db}
}

var (
	assignmentColumns = []string{"id", "course_id", "teacher_id", "title", "description", "due_date", "file_url", "max_score", "created_at"}
	submissionColumns = []string{"id", "assignment_id", "student_id", "file_url", "status", "score", "feedback", "submitted_at", "graded_at"}
)

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	a.ID = uuid.NewString()
	_, err := repo.db.exec(ctx, psql.Insert("assignments").
		Columns(assignmentColumns...).
		Values(a.ID, a.CourseID, a.TeacherID, a.Title, nullString(a.Description), a.DueDate, nullString(a.FileURL), a.MaxScore, a.CreatedAt))
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return a, nil
}

func (repo *assignmentRepository) GetAssignmentByID(ctx context.Context, id string) (assignment.Assignment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	var row assignmentRow
	q := psql.Select(assignmentColumns...).From("assignments").Where(sq.Eq{"id": id})
	if err := repo.db.get(ctx, &row, q, assignment.ErrNotFound); err != nil {
		return assignment.Assignment{}, err
	}
	return row.toAssignment(), nil
}

func (repo *assignmentRepository) QueryAssignments(ctx context.Context, filter assignment.QueryFilter) ([]assignment.Assignment, error) {
	q := psql.Select(assignmentColumns...).From("assignments").OrderBy("due_date ASC")
	if filter.IDs != nil {
		q = q.Where(sq.Eq{"id": filter.IDs})
	}
	if filter.CourseIDs != nil {
		q = q.Where(sq.Eq{"course_id": filter.CourseIDs})
	}
	if filter.TeacherID != "" {
		q = q.Where(sq.Eq{"teacher_id": filter.TeacherID})
	}
	if !filter.DueAfter.IsZero() {
		q = q.Where(sq.Gt{"due_date": filter.DueAfter.UTC()})
	}

	var rows []assignmentRow
	if err := repo.db.selectAll(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting assignments")
	}
	assignments := make([]assignment.Assignment, 0, len(rows))
	for _, r := range rows {
		assignments = append(assignments, r.toAssignment())
	}
	return assignments, nil
}

func (repo *assignmentRepository) DeleteAssignment(ctx context.Context, id string) error {
	n, err := repo.db.exec(ctx, psql.Delete("assignments").Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	if n == 0 {
		return assignment.ErrNotFound
	}
	return nil
}

func gradedAt(t *time.Time) null.Time {
	if t == nil {
		return null.Time{}
	}
	return null.TimeFrom(*t)
}

func (repo *assignmentRepository) SaveSubmission(ctx context.Context, s assignment.Submission) (assignment.Submission, error) {
	q := psql.Insert("submissions").
		Columns(submissionColumns...).
		Values(uuid.NewString(), s.AssignmentID, s.StudentID, nullString(s.FileURL), string(s.Status),
			null.IntFromPtr(s.Score), nullString(s.Feedback), s.SubmittedAt, gradedAt(s.GradedAt)).
		Suffix("ON CONFLICT (assignment_id, student_id) DO UPDATE SET " +
			"file_url = EXCLUDED.file_url, status = EXCLUDED.status, score = EXCLUDED.score, " +
			"feedback = EXCLUDED.feedback, submitted_at = EXCLUDED.submitted_at, graded_at = EXCLUDED.graded_at " +
			"WHERE submissions.status <> 'graded' RETURNING id")
	if err := repo.db.scalar(ctx, &s.ID, q, assignment.ErrAlreadyGraded); err != nil {
		if err == assignment.ErrAlreadyGraded {
			return assignment.Submission{}, err
		}
		return assignment.Submission{}, errors.Wrap(err, "saving submission")
	}
	return s, nil
}

func (repo *assignmentRepository) GetSubmissionByID(ctx context.Context, id string) (assignment.Submission, error) {
	if _, err := uuid.Parse(id); err != nil {
		return assignment.Submission{}, assignment.ErrSubmissionNotFound
	}
	var row submissionRow
	q := psql.Select(submissionColumns...).From("submissions").Where(sq.Eq{"id": id})
	if err := repo.db.get(ctx, &row, q, assignment.ErrSubmissionNotFound); err != nil {
		return assignment.Submission{}, err
	}
	return row.toSubmission(), nil
}

func (repo *assignmentRepository) QuerySubmissions(ctx context.Context, filter assignment.SubmissionFilter) ([]assignment.Submission, error) {
	q := psql.Select(submissionColumns...).From("submissions").OrderBy("submitted_at DESC")
	if filter.AssignmentIDs != nil {
		q = q.Where(sq.Eq{"assignment_id": filter.AssignmentIDs})
	}
	if filter.StudentIDs != nil {
		q = q.Where(sq.Eq{"student_id": filter.StudentIDs})
	}
	if filter.Status != "" {
		q = q.Where(sq.Eq{"status": string(filter.Status)})
	}

	var rows []submissionRow
	if err := repo.db.selectAll(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting submissions")
	}
	subs := make([]assignment.Submission, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, r.toSubmission())
	}
	return subs, nil
}

func (repo *assignmentRepository) UpdateSubmission(ctx context.Context, s assignment.Submission) (assignment.Submission, error) {
	n, err := repo.db.exec(ctx, psql.Update("submissions").
		Set("file_url", nullString(s.FileURL)).
		Set("status", string(s.Status)).
		Set("score", null.IntFromPtr(s.Score)).
		Set("feedback", nullString(s.Feedback)).
		Set("graded_at", gradedAt(s.GradedAt)).
		Where(sq.Eq{"id": s.ID}))
	if err != nil {
		return assignment.Submission{}, errors.Wrap(err, "updating submission")
	}
	if n == 0 {
		return assignment.Submission{}, assignment.ErrSubmissionNotFound
	}
	return s, nil
}
