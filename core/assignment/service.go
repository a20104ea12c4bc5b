package assignment

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/course"
	"github.com/akia2466/PMNTS-Lovable/core/directory"
	"github.com/akia2466/PMNTS-Lovable/core/user"
)

// Attacher stores uploaded attachments and returns their reference.
type Attacher interface {
	Attach(ctx context.Context, ownerID string, up core.Upload) (string, error)
}

type Service struct {
	repo     Repository
	courses  *course.Service
	dir      *directory.Directory
	attacher Attacher
	nowFunc  func() time.Time // mockable
}

func NewService(repo Repository, courses *course.Service, dir *directory.Directory, attacher Attacher) *Service {
	return &Service{
		repo:     repo,
		courses:  courses,
		dir:      dir,
		attacher: attacher,
		nowFunc:  time.Now,
	}
}

func (svc *Service) GetByID(ctx context.Context, id string) (Assignment, error) {
	return svc.repo.GetAssignmentByID(ctx, id)
}

// ForStudent lists the assignments of the courses studentID is enrolled in, with their status.
func (svc *Service) ForStudent(ctx context.Context, studentID string) ([]StudentView, error) {
	courseIDs, err := svc.courses.StudentCourseIDs(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if len(courseIDs) == 0 {
		return []StudentView{}, nil
	}

	assignments, err := svc.repo.QueryAssignments(ctx, QueryFilter{CourseIDs: courseIDs})
	if err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	ids := make([]string, 0, len(assignments))
	teacherIDs := make([]string, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.ID)
		teacherIDs = append(teacherIDs, a.TeacherID)
	}

	submissions, err := svc.submissionsByAssignment(ctx, SubmissionFilter{AssignmentIDs: ids, StudentIDs: []string{studentID}})
	if err != nil {
		return nil, err
	}
	courses, err := svc.courses.ByIDs(ctx, courseIDs...)
	if err != nil {
		return nil, err
	}
	teachers, err := svc.dir.Lookup(ctx, teacherIDs...)
	if err != nil {
		return nil, err
	}

	now := svc.nowFunc()
	views := make([]StudentView, 0, len(assignments))
	for _, a := range assignments {
		v := StudentView{
			Assignment:  a,
			CourseName:  courses[a.CourseID].Name,
			CourseCode:  courses[a.CourseID].Code,
			TeacherName: directory.Resolve(teachers, a.TeacherID).FullName,
			Status:      StatusPending,
		}
		if subs := submissions[a.ID]; len(subs) > 0 {
			sub := subs[0]
			v.Submission = &sub
			v.Status = StatusSubmitted
			if sub.Status == SubmissionGraded {
				v.Status = StatusGraded
				v.Score = sub.Score
			}
		}
		v.Overdue = v.Status == StatusPending && now.After(a.DueDate)
		views = append(views, v)
	}
	return views, nil
}

func (svc *Service) submissionsByAssignment(ctx context.Context, filter SubmissionFilter) (map[string][]Submission, error) {
	byAssignment := make(map[string][]Submission)
	if len(filter.AssignmentIDs) == 0 {
		return byAssignment, nil
	}
	subs, err := svc.repo.QuerySubmissions(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	for _, s := range subs {
		byAssignment[s.AssignmentID] = append(byAssignment[s.AssignmentID], s)
	}
	return byAssignment, nil
}

// Submit hands in the work of student for an assignment of one of their courses.
// A resubmission replaces the previous one until it is graded. ns must have been validated.
func (svc *Service) Submit(ctx context.Context, student user.User, assignmentID string, ns NewSubmission, up *core.Upload) (Submission, error) {
	a, err := svc.repo.GetAssignmentByID(ctx, assignmentID)
	if err != nil {
		return Submission{}, err
	}
	courseIDs, err := svc.courses.StudentCourseIDs(ctx, student.ID)
	if err != nil {
		return Submission{}, err
	}
	if !slices.Contains(courseIDs, a.CourseID) {
		return Submission{}, core.ErrPermissionDenied
	}

	prev, err := svc.repo.QuerySubmissions(ctx, SubmissionFilter{AssignmentIDs: []string{a.ID}, StudentIDs: []string{student.ID}})
	if err != nil {
		return Submission{}, errors.Wrap(err, "querying submissions")
	}
	if len(prev) > 0 && prev[0].Status == SubmissionGraded {
		return Submission{}, core.NewValidationError(ErrAlreadyGraded)
	}

	sub := Submission{
		AssignmentID: a.ID,
		StudentID:    student.ID,
		FileURL:      ns.FileURL,
		Status:       SubmissionSubmitted,
		SubmittedAt:  svc.nowFunc().UTC(),
	}
	if up != nil {
		if sub.FileURL, err = svc.attacher.Attach(ctx, student.ID, *up); err != nil {
			return Submission{}, errors.Wrap(err, "storing submission file")
		}
	}
	saved, err := svc.repo.SaveSubmission(ctx, sub)
	if errors.Cause(err) == ErrAlreadyGraded {
		return Submission{}, core.NewValidationError(ErrAlreadyGraded)
	}
	return saved, err
}

// Create adds an assignment to one of teacher's courses. na must have been validated.
func (svc *Service) Create(ctx context.Context, teacher user.User, na NewAssignment, up *core.Upload) (Assignment, error) {
	c, err := svc.courses.GetTaught(ctx, na.CourseID, teacher.ID, teacher.IsAdmin())
	if err != nil {
		return Assignment{}, err
	}
	a := Assignment{
		CourseID:    c.ID,
		TeacherID:   c.TeacherID,
		Title:       na.Title,
		Description: na.Description,
		DueDate:     na.DueDate.UTC(),
		MaxScore:    na.MaxScore,
		CreatedAt:   svc.nowFunc().UTC(),
	}
	if a.TeacherID == "" {
		a.TeacherID = teacher.ID
	}
	if up != nil {
		if a.FileURL, err = svc.attacher.Attach(ctx, teacher.ID, *up); err != nil {
			return Assignment{}, errors.Wrap(err, "storing assignment file")
		}
	}
	return svc.repo.CreateAssignment(ctx, a)
}

// ForTeacher lists the assignments of teacher's courses with their submission counts.
func (svc *Service) ForTeacher(ctx context.Context, teacher user.User) ([]TeacherView, error) {
	courses, err := svc.courses.Taught(ctx, teacher.ID)
	if err != nil {
		return nil, err
	}
	if len(courses) == 0 {
		return []TeacherView{}, nil
	}
	names := make(map[string]string, len(courses))
	courseIDs := make([]string, 0, len(courses))
	for _, c := range courses {
		names[c.ID] = c.Name
		courseIDs = append(courseIDs, c.ID)
	}

	assignments, err := svc.repo.QueryAssignments(ctx, QueryFilter{CourseIDs: courseIDs})
	if err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	ids := make([]string, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.ID)
	}
	submissions, err := svc.submissionsByAssignment(ctx, SubmissionFilter{AssignmentIDs: ids})
	if err != nil {
		return nil, err
	}
	enrollments, err := svc.courses.Enrollments(ctx, course.EnrollmentFilter{CourseIDs: courseIDs})
	if err != nil {
		return nil, err
	}
	enrolled := make(map[string]map[string]bool, len(courses))
	for _, e := range enrollments {
		if enrolled[e.CourseID] == nil {
			enrolled[e.CourseID] = make(map[string]bool)
		}
		enrolled[e.CourseID][e.StudentID] = true
	}

	views := make([]TeacherView, 0, len(assignments))
	for _, a := range assignments {
		v := TeacherView{Assignment: a, CourseName: names[a.CourseID], Enrolled: len(enrolled[a.CourseID])}
		for _, s := range submissions[a.ID] {
			v.Submitted++
			if s.Status == SubmissionGraded {
				v.Graded++
			}
		}
		views = append(views, v)
	}
	return views, nil
}

// Submissions lists the submissions of an assignment with the students' names.
func (svc *Service) Submissions(ctx context.Context, teacher user.User, assignmentID string) ([]SubmissionView, error) {
	a, err := svc.ownAssignment(ctx, teacher, assignmentID)
	if err != nil {
		return nil, err
	}
	subs, err := svc.repo.QuerySubmissions(ctx, SubmissionFilter{AssignmentIDs: []string{a.ID}})
	if err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	ids := make([]string, 0, len(subs))
	for _, s := range subs {
		ids = append(ids, s.StudentID)
	}
	people, err := svc.dir.Lookup(ctx, ids...)
	if err != nil {
		return nil, err
	}

	views := make([]SubmissionView, 0, len(subs))
	for _, s := range subs {
		views = append(views, SubmissionView{Submission: s, Student: directory.Resolve(people, s.StudentID)})
	}
	sort.SliceStable(views, func(i, j int) bool { return views[i].Student.FullName < views[j].Student.FullName })
	return views, nil
}

// Grade scores a submission. g must have been validated.
func (svc *Service) Grade(ctx context.Context, teacher user.User, submissionID string, g Grade) (Submission, error) {
	sub, err := svc.repo.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return Submission{}, err
	}
	a, err := svc.ownAssignment(ctx, teacher, sub.AssignmentID)
	if err != nil {
		return Submission{}, err
	}
	if *g.Score > a.MaxScore {
		msg := fmt.Sprintf("score must be between 0 and %d", a.MaxScore)
		return Submission{}, core.NewValidationError(errors.New(msg), core.FieldError{Field: "score", Error: msg})
	}

	now := svc.nowFunc().UTC()
	score := *g.Score
	sub.Score = &score
	sub.Feedback = g.Feedback
	sub.Status = SubmissionGraded
	sub.GradedAt = &now
	return svc.repo.UpdateSubmission(ctx, sub)
}

func (svc *Service) Delete(ctx context.Context, teacher user.User, assignmentID string) error {
	a, err := svc.ownAssignment(ctx, teacher, assignmentID)
	if err != nil {
		return err
	}
	return svc.repo.DeleteAssignment(ctx, a.ID)
}

// Graded lists the graded submissions of studentID with their assignments, most recently graded first.
func (svc *Service) Graded(ctx context.Context, studentID string, limit int) ([]StudentView, error) {
	views, err := svc.ForStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	graded := make([]StudentView, 0, len(views))
	for _, v := range views {
		if v.Status == StatusGraded {
			graded = append(graded, v)
		}
	}
	sort.SliceStable(graded, func(i, j int) bool {
		gi, gj := graded[i].Submission.GradedAt, graded[j].Submission.GradedAt
		if gi == nil || gj == nil {
			return gj == nil && gi != nil
		}
		return gi.After(*gj)
	})
	if limit > 0 && len(graded) > limit {
		graded = graded[:limit]
	}
	return graded, nil
}

// AwaitingGrading counts the submitted, not yet graded work of the given courses.
func (svc *Service) AwaitingGrading(ctx context.Context, courseIDs ...string) (int, error) {
	if len(courseIDs) == 0 {
		return 0, nil
	}
	assignments, err := svc.repo.QueryAssignments(ctx, QueryFilter{CourseIDs: courseIDs})
	if err != nil {
		return 0, errors.Wrap(err, "querying assignments")
	}
	if len(assignments) == 0 {
		return 0, nil
	}
	ids := make([]string, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.ID)
	}
	subs, err := svc.repo.QuerySubmissions(ctx, SubmissionFilter{AssignmentIDs: ids, Status: SubmissionSubmitted})
	if err != nil {
		return 0, errors.Wrap(err, "querying submissions")
	}
	return len(subs), nil
}

func (svc *Service) ownAssignment(ctx context.Context, teacher user.User, id string) (Assignment, error) {
	a, err := svc.repo.GetAssignmentByID(ctx, id)
	if err != nil {
		return Assignment{}, err
	}
	if a.TeacherID != teacher.ID && !teacher.IsAdmin() {
		if _, err = svc.courses.GetTaught(ctx, a.CourseID, teacher.ID, false); err != nil {
			return Assignment{}, err
		}
	}
	return a, nil
}
