package dashboard

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/course"
	"github.com/akia2466/PMNTS-Lovable/core/user"
)

// passMark is the percentage a student must reach to pass a course.
const passMark = 50

type CourseResult struct {
	CourseID   string   `json:"course_id"`
	CourseName string   `json:"course_name"`
	CourseCode string   `json:"course_code"`
	Term       string   `json:"term"`
	Grade      string   `json:"grade"`
	Percentage *float64 `json:"percentage"`
}

// Assessment is a graded assignment.
type Assessment struct {
	AssignmentID string     `json:"assignment_id"`
	Title        string     `json:"title"`
	CourseName   string     `json:"course_name"`
	Score        int        `json:"score"`
	MaxScore     int        `json:"max_score"`
	Percentage   int        `json:"percentage"`
	GradedAt     *time.Time `json:"graded_at"`
}

type StudentPerformance struct {
	Term           string         `json:"term"`
	Terms          []string       `json:"terms"`
	Courses        []CourseResult `json:"courses"`
	OverallAverage *float64       `json:"overall_average"`
	Recent         []Assessment   `json:"recent_assessments"`
}

type ClassPerformance struct {
	CourseID   string   `json:"course_id"`
	CourseName string   `json:"course_name"`
	CourseCode string   `json:"course_code"`
	Students   int      `json:"students"`
	Graded     int      `json:"graded"`
	Average    *float64 `json:"average"`
	Highest    *float64 `json:"highest"`
	Lowest     *float64 `json:"lowest"`
	PassRate   int      `json:"pass_rate"`
}

type TeacherPerformance struct {
	Term    string             `json:"term"`
	Terms   []string           `json:"terms"`
	Courses []ClassPerformance `json:"courses"`
}

type Performance struct {
	Role    user.Role           `json:"role"`
	Student *StudentPerformance `json:"student,omitempty"`
	Teacher *TeacherPerformance `json:"teacher,omitempty"`
}

// Performance summarizes the results of viewer for term, all terms when empty.
func (svc *Service) Performance(ctx context.Context, viewer user.User, term string) (Performance, error) {
	perf := Performance{Role: viewer.Role}
	var err error
	if viewer.IsStudent() {
		perf.Student, err = svc.studentPerformance(ctx, viewer, term)
	} else {
		perf.Teacher, err = svc.teacherPerformance(ctx, viewer, term)
	}
	if err != nil {
		return Performance{}, err
	}
	return perf, nil
}

func (svc *Service) studentPerformance(ctx context.Context, viewer user.User, term string) (*StudentPerformance, error) {
	enrollments, err := svc.courses.Enrollments(ctx, course.EnrollmentFilter{StudentIDs: []string{viewer.ID}})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.CourseID)
	}
	courses, err := svc.courses.ByIDs(ctx, ids...)
	if err != nil {
		return nil, err
	}

	perf := &StudentPerformance{Term: term, Terms: terms(enrollments), Courses: []CourseResult{}, Recent: []Assessment{}}
	var percentages []float64
	for _, e := range enrollments {
		if term != "" && e.Term != term {
			continue
		}
		c := courses[e.CourseID]
		perf.Courses = append(perf.Courses, CourseResult{
			CourseID:   e.CourseID,
			CourseName: c.Name,
			CourseCode: c.Code,
			Term:       e.Term,
			Grade:      e.Grade,
			Percentage: e.Percentage,
		})
		if e.Percentage != nil {
			percentages = append(percentages, *e.Percentage)
		}
	}
	sort.SliceStable(perf.Courses, func(i, j int) bool { return perf.Courses[i].CourseName < perf.Courses[j].CourseName })
	perf.OverallAverage = average(percentages)

	graded, err := svc.assignments.Graded(ctx, viewer.ID, recentAssessments)
	if err != nil {
		return nil, err
	}
	for _, v := range graded {
		a := Assessment{
			AssignmentID: v.ID,
			Title:        v.Title,
			CourseName:   v.CourseName,
			MaxScore:     v.MaxScore,
			GradedAt:     v.Submission.GradedAt,
		}
		if v.Score != nil {
			a.Score = *v.Score
			a.Percentage = core.Percent(a.Score, a.MaxScore)
		}
		perf.Recent = append(perf.Recent, a)
	}
	return perf, nil
}

func (svc *Service) teacherPerformance(ctx context.Context, viewer user.User, term string) (*TeacherPerformance, error) {
	var (
		courses []course.Course
		err     error
	)
	if viewer.IsAdmin() {
		courses, err = svc.courses.Query(ctx, course.QueryFilter{})
	} else {
		courses, err = svc.courses.Taught(ctx, viewer.ID)
	}
	if err != nil {
		return nil, err
	}
	perf := &TeacherPerformance{Term: term, Terms: []string{}, Courses: make([]ClassPerformance, 0, len(courses))}
	if len(courses) == 0 {
		return perf, nil
	}

	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	enrollments, err := svc.courses.Enrollments(ctx, course.EnrollmentFilter{CourseIDs: ids})
	if err != nil {
		return nil, err
	}
	perf.Terms = terms(enrollments)

	byCourse := make(map[string][]course.Enrollment, len(courses))
	for _, e := range enrollments {
		if term != "" && e.Term != term {
			continue
		}
		byCourse[e.CourseID] = append(byCourse[e.CourseID], e)
	}
	for _, c := range courses {
		perf.Courses = append(perf.Courses, classPerformance(c, byCourse[c.ID]))
	}
	sort.SliceStable(perf.Courses, func(i, j int) bool { return perf.Courses[i].CourseName < perf.Courses[j].CourseName })
	return perf, nil
}

func classPerformance(c course.Course, enrollments []course.Enrollment) ClassPerformance {
	cp := ClassPerformance{CourseID: c.ID, CourseName: c.Name, CourseCode: c.Code, Students: len(enrollments)}
	var (
		percentages []float64
		passed      int
	)
	for _, e := range enrollments {
		if e.Percentage == nil {
			continue
		}
		p := *e.Percentage
		percentages = append(percentages, p)
		if p >= passMark {
			passed++
		}
		if cp.Highest == nil || p > *cp.Highest {
			cp.Highest = &p
		}
		if cp.Lowest == nil || p < *cp.Lowest {
			cp.Lowest = &p
		}
	}
	cp.Graded = len(percentages)
	cp.Average = average(percentages)
	cp.PassRate = core.Percent(passed, cp.Graded)
	return cp
}

// average is rounded to one decimal, nil without values.
func average(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	avg := math.Round(sum/float64(len(values))*10) / 10
	return &avg
}

func terms(enrollments []course.Enrollment) []string {
	seen := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		seen = append(seen, e.Term)
	}
	ts := core.UniqueStrings(seen...)
	sort.Strings(ts)
	return ts
}
