package assignment

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/directory"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("assignment")
	ErrSubmissionNotFound = core.NewNotFoundError("submission")
	ErrAlreadyGraded      = errors.New("this submission has already been graded")
)

type SubmissionStatus string

const (
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionGraded    SubmissionStatus = "graded"
)

// Status is the state of an assignment from a student's point of view.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSubmitted Status = "submitted"
	StatusGraded    Status = "graded"
)

type Assignment struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"course_id"`
	TeacherID   string    `json:"teacher_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
	FileURL     string    `json:"file_url"`
	MaxScore    int       `json:"max_score"`
	CreatedAt   time.Time `json:"created_at"`
}

type Submission struct {
	ID           string           `json:"id"`
	AssignmentID string           `json:"assignment_id"`
	StudentID    string           `json:"student_id"`
	FileURL      string           `json:"file_url"`
	Status       SubmissionStatus `json:"status"`
	Score        *int             `json:"score"`
	Feedback     string           `json:"feedback"`
	SubmittedAt  time.Time        `json:"submitted_at"`
	GradedAt     *time.Time       `json:"graded_at"`
}

// Percentage is round(score / max_score * 100), 0 until graded.
func (s Submission) Percentage(maxScore int) int {
	if s.Score == nil {
		return 0
	}
	return core.Percent(*s.Score, maxScore)
}

type NewAssignment struct {
	CourseID    string    `json:"course_id" form:"course_id" validate:"required,uuid"`
	Title       string    `json:"title" form:"title" validate:"required,notblank,max=200"`
	Description string    `json:"description" form:"description"`
	DueDate     time.Time `json:"due_date" form:"due_date" validate:"required"`
	MaxScore    int       `json:"max_score" form:"max_score" validate:"omitempty,gte=1,lte=1000"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	if na.MaxScore == 0 {
		na.MaxScore = 100
	}
	return validate.Struct(na)
}

type NewSubmission struct {
	FileURL string `json:"file_url" form:"file_url" validate:"omitempty,url"`
}

func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	ns.FileURL = core.CleanString(ns.FileURL)
	return validate.Struct(ns)
}

// Grade is checked against the assignment's max score by the Service.
type Grade struct {
	Score    *int   `json:"score" validate:"required,gte=0"`
	Feedback string `json:"feedback" validate:"max=2000"`
}

func (g *Grade) Validate(validate *validator.Validate) error {
	g.Feedback = core.CleanString(g.Feedback)
	return validate.Struct(g)
}

// StudentView is an assignment as listed to a student.
type StudentView struct {
	Assignment
	CourseName  string      `json:"course_name"`
	CourseCode  string      `json:"course_code"`
	TeacherName string      `json:"teacher_name"`
	Status      Status      `json:"status"`
	Overdue     bool        `json:"overdue"`
	Score       *int        `json:"score"`
	Submission  *Submission `json:"submission"`
}

// TeacherView is an assignment as listed to its teacher.
type TeacherView struct {
	Assignment
	CourseName string `json:"course_name"`
	Enrolled   int    `json:"enrolled"`
	Submitted  int    `json:"submitted"`
	Graded     int    `json:"graded"`
}

type SubmissionView struct {
	Submission
	Student directory.Person `json:"student"`
}

type QueryFilter struct {
	IDs       []string
	CourseIDs []string
	TeacherID string
	DueAfter  time.Time
}

type SubmissionFilter struct {
	AssignmentIDs []string
	StudentIDs    []string
	Status        SubmissionStatus
}

type Repository interface {
	CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
	GetAssignmentByID(ctx context.Context, id string) (Assignment, error)
	// QueryAssignments returns the matching assignments ordered by due date.
	QueryAssignments(ctx context.Context, filter QueryFilter) ([]Assignment, error)
	DeleteAssignment(ctx context.Context, id string) error

	// SaveSubmission inserts s, replacing the submission of the same student for the same assignment.
	// It returns ErrAlreadyGraded, leaving the row untouched, when that submission is graded.
	SaveSubmission(ctx context.Context, s Submission) (Submission, error)
	GetSubmissionByID(ctx context.Context, id string) (Submission, error)
	QuerySubmissions(ctx context.Context, filter SubmissionFilter) ([]Submission, error)
	UpdateSubmission(ctx context.Context, s Submission) (Submission, error)
}
