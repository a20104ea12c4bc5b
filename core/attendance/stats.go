package attendance

import (
	"sort"

	"github.com/akia2466/PMNTS-Lovable/core"
)

// Stats counts attendance records. Percentage only counts Present: a late arrival is not a presence here.
type Stats struct {
	Total      int `json:"total"`
	Present    int `json:"present"`
	Absent     int `json:"absent"`
	Late       int `json:"late"`
	Percentage int `json:"percentage"`
}

// Attended is the number of sessions the student showed up to, late or not.
func (s Stats) Attended() int { return s.Present + s.Late }

// Rate is the attended percentage, where late counts as attended.
func (s Stats) Rate() int { return core.Percent(s.Attended(), s.Total) }

func (s *Stats) add(status Status) {
	s.Total++
	switch status {
	case StatusPresent:
		s.Present++
	case StatusAbsent:
		s.Absent++
	case StatusLate:
		s.Late++
	}
}

func (s *Stats) finish() { s.Percentage = core.Percent(s.Present, s.Total) }

func ComputeStats(records []Record) Stats {
	var s Stats
	for _, r := range records {
		s.add(r.Status)
	}
	s.finish()
	return s
}

// CourseSummary is the attendance of a student in one course.
type CourseSummary struct {
	CourseID   string `json:"course_id"`
	CourseName string `json:"course_name"`
	CourseCode string `json:"course_code"`
	Stats      Stats  `json:"stats"`
	// Percentage counts late arrivals as attended.
	Percentage     int  `json:"percentage"`
	BelowThreshold bool `json:"below_threshold"`
}

type Summary struct {
	Overall        Stats           `json:"overall"`
	AttendanceRate int             `json:"attendance_rate"`
	Courses        []CourseSummary `json:"courses"`
	Threshold      int             `json:"threshold"`
	BelowThreshold bool            `json:"below_threshold"`
}

// CourseInfo names a course in summaries.
type CourseInfo struct {
	Name string
	Code string
}

// Summarize derives the overall and per-course attendance of records in a single pass.
// Courses are ordered by name.
func Summarize(records []Record, courses map[string]CourseInfo, threshold int) Summary {
	sum := Summary{Threshold: threshold, Courses: []CourseSummary{}}
	byCourse := make(map[string]*CourseSummary)

	for _, r := range records {
		sum.Overall.add(r.Status)

		cs, ok := byCourse[r.CourseID]
		if !ok {
			info := courses[r.CourseID]
			cs = &CourseSummary{CourseID: r.CourseID, CourseName: info.Name, CourseCode: info.Code}
			byCourse[r.CourseID] = cs
		}
		cs.Stats.add(r.Status)
	}
	sum.Overall.finish()
	sum.AttendanceRate = sum.Overall.Rate()
	sum.BelowThreshold = sum.Overall.Total > 0 && sum.AttendanceRate < threshold

	for _, cs := range byCourse {
		cs.Stats.finish()
		cs.Percentage = cs.Stats.Rate()
		cs.BelowThreshold = cs.Percentage < threshold
		if cs.BelowThreshold {
			sum.BelowThreshold = true
		}
		sum.Courses = append(sum.Courses, *cs)
	}
	sort.Slice(sum.Courses, func(i, j int) bool {
		if sum.Courses[i].CourseName == sum.Courses[j].CourseName {
			return sum.Courses[i].CourseID < sum.Courses[j].CourseID
		}
		return sum.Courses[i].CourseName < sum.Courses[j].CourseName
	})
	return sum
}

type Badge string

const (
	BadgeGood    Badge = "good"
	BadgeWarning Badge = "warning"
	BadgeAtRisk  Badge = "at_risk"
)

// BadgeFor classifies an attended rate.
func BadgeFor(rate int) Badge {
	switch {
	case rate >= 90:
		return BadgeGood
	case rate >= 80:
		return BadgeWarning
	default:
		return BadgeAtRisk
	}
}
