// Package dashboard aggregates the landing and performance pages of the dashboard.
package dashboard

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core/announcement"
	"github.com/akia2466/PMNTS-Lovable/core/assignment"
	"github.com/akia2466/PMNTS-Lovable/core/attendance"
	"github.com/akia2466/PMNTS-Lovable/core/connection"
	"github.com/akia2466/PMNTS-Lovable/core/contact"
	"github.com/akia2466/PMNTS-Lovable/core/course"
	"github.com/akia2466/PMNTS-Lovable/core/messaging"
	"github.com/akia2466/PMNTS-Lovable/core/user"
)

const (
	overviewAnnouncements = 5
	upcomingDeadlines     = 5
	recentAssessments     = 5
)

type StudentOverview struct {
	AttendanceRate     int                      `json:"attendance_rate"`
	BelowThreshold     bool                     `json:"attendance_below_threshold"`
	PendingAssignments int                      `json:"pending_assignments"`
	UnreadMessages     int                      `json:"unread_messages"`
	Connections        int                      `json:"connections"`
	UpcomingDeadlines  []assignment.StudentView `json:"upcoming_deadlines"`
	Announcements      []announcement.View      `json:"announcements"`
}

type TeacherOverview struct {
	Courses         int                 `json:"courses"`
	Students        int                 `json:"students"`
	AwaitingGrading int                 `json:"awaiting_grading"`
	UnreadMessages  int                 `json:"unread_messages"`
	Connections     int                 `json:"connections"`
	Announcements   []announcement.View `json:"announcements"`
}

type AdminOverview struct {
	Courses         int                 `json:"courses"`
	NewContactForms int                 `json:"new_contact_submissions"`
	UnreadMessages  int                 `json:"unread_messages"`
	Announcements   []announcement.View `json:"announcements"`
}

// Overview is the landing page of a user, shaped by their role.
type Overview struct {
	Role    user.Role        `json:"role"`
	Student *StudentOverview `json:"student,omitempty"`
	Teacher *TeacherOverview `json:"teacher,omitempty"`
	Admin   *AdminOverview   `json:"admin,omitempty"`
}

type Service struct {
	attendance    *attendance.Service
	assignments   *assignment.Service
	messages      *messaging.Service
	announcements *announcement.Service
	courses       *course.Service
	connections   *connection.Service
	contacts      *contact.Service
	nowFunc       func() time.Time // mockable
}

func NewService(
	att *attendance.Service,
	assignments *assignment.Service,
	messages *messaging.Service,
	announcements *announcement.Service,
	courses *course.Service,
	connections *connection.Service,
	contacts *contact.Service,
) *Service {
	return &Service{
		attendance:    att,
		assignments:   assignments,
		messages:      messages,
		announcements: announcements,
		courses:       courses,
		connections:   connections,
		contacts:      contacts,
		nowFunc:       time.Now,
	}
}

func (svc *Service) Overview(ctx context.Context, viewer user.User) (Overview, error) {
	ov := Overview{Role: viewer.Role}
	var err error
	switch viewer.Role {
	case user.RoleStudent:
		ov.Student, err = svc.studentOverview(ctx, viewer)
	case user.RoleTeacher:
		ov.Teacher, err = svc.teacherOverview(ctx, viewer)
	case user.RoleAdmin:
		ov.Admin, err = svc.adminOverview(ctx, viewer)
	}
	if err != nil {
		return Overview{}, err
	}
	return ov, nil
}

func (svc *Service) studentOverview(ctx context.Context, viewer user.User) (*StudentOverview, error) {
	report, err := svc.attendance.StudentReport(ctx, viewer.ID)
	if err != nil {
		return nil, errors.Wrap(err, "summarizing attendance")
	}
	views, err := svc.assignments.ForStudent(ctx, viewer.ID)
	if err != nil {
		return nil, errors.Wrap(err, "listing assignments")
	}
	unread, err := svc.messages.UnreadTotal(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}
	conns, err := svc.connections.Count(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}
	anns, err := svc.announcements.Visible(ctx, viewer, overviewAnnouncements)
	if err != nil {
		return nil, err
	}

	ov := &StudentOverview{
		AttendanceRate:    report.Summary.AttendanceRate,
		BelowThreshold:    report.Summary.BelowThreshold,
		UnreadMessages:    unread,
		Connections:       conns,
		UpcomingDeadlines: []assignment.StudentView{},
		Announcements:     anns,
	}
	now := svc.nowFunc()
	for _, v := range views {
		if v.Status != assignment.StatusPending {
			continue
		}
		ov.PendingAssignments++
		if v.DueDate.After(now) {
			ov.UpcomingDeadlines = append(ov.UpcomingDeadlines, v)
		}
	}
	sort.SliceStable(ov.UpcomingDeadlines, func(i, j int) bool {
		return ov.UpcomingDeadlines[i].DueDate.Before(ov.UpcomingDeadlines[j].DueDate)
	})
	if len(ov.UpcomingDeadlines) > upcomingDeadlines {
		ov.UpcomingDeadlines = ov.UpcomingDeadlines[:upcomingDeadlines]
	}
	return ov, nil
}

func (svc *Service) teacherOverview(ctx context.Context, viewer user.User) (*TeacherOverview, error) {
	courses, err := svc.courses.Taught(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	students, err := svc.courses.RosterIDs(ctx, ids...)
	if err != nil {
		return nil, err
	}
	awaiting, err := svc.assignments.AwaitingGrading(ctx, ids...)
	if err != nil {
		return nil, err
	}
	unread, err := svc.messages.UnreadTotal(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}
	conns, err := svc.connections.Count(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}
	anns, err := svc.announcements.Visible(ctx, viewer, overviewAnnouncements)
	if err != nil {
		return nil, err
	}
	return &TeacherOverview{
		Courses:         len(courses),
		Students:        len(students),
		AwaitingGrading: awaiting,
		UnreadMessages:  unread,
		Connections:     conns,
		Announcements:   anns,
	}, nil
}

func (svc *Service) adminOverview(ctx context.Context, viewer user.User) (*AdminOverview, error) {
	courses, err := svc.courses.Query(ctx, course.QueryFilter{})
	if err != nil {
		return nil, err
	}
	forms, err := svc.contacts.Query(ctx, contact.QueryFilter{Status: contact.StatusNew})
	if err != nil {
		return nil, err
	}
	unread, err := svc.messages.UnreadTotal(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}
	anns, err := svc.announcements.Visible(ctx, viewer, overviewAnnouncements)
	if err != nil {
		return nil, err
	}
	return &AdminOverview{
		Courses:         len(courses),
		NewContactForms: len(forms),
		UnreadMessages:  unread,
		Announcements:   anns,
	}, nil
}
