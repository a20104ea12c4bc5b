package announcement

import (
	"context"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/directory"
	"github.com/akia2466/PMNTS-Lovable/core/user"
)

var ErrNotFound = core.NewNotFoundError("announcement")

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

var priorityRanks = map[Priority]int{PriorityHigh: 3, PriorityNormal: 2, PriorityLow: 1}

type Audience string

const (
	AudienceEveryone Audience = "everyone"
	AudienceStudents Audience = "students"
	AudienceTeachers Audience = "teachers"
)

// AudiencesFor lists the audiences a viewer with role belongs to.
func AudiencesFor(role user.Role) []Audience {
	switch role {
	case user.RoleAdmin:
		return []Audience{AudienceEveryone, AudienceStudents, AudienceTeachers}
	case user.RoleTeacher:
		return []Audience{AudienceEveryone, AudienceTeachers}
	default:
		return []Audience{AudienceEveryone, AudienceStudents}
	}
}

type Announcement struct {
	ID        string     `json:"id"`
	AuthorID  string     `json:"author_id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Priority  Priority   `json:"priority"`
	VisibleTo Audience   `json:"visible_to"`
	ExpiresAt *time.Time `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
}

func (a Announcement) Expired(now time.Time) bool {
	return a.ExpiresAt != nil && !a.ExpiresAt.After(now)
}

type View struct {
	Announcement
	Author directory.Person `json:"author"`
}

type NewAnnouncement struct {
	Title     string     `json:"title" validate:"required,notblank,max=200"`
	Content   string     `json:"content" validate:"required,notblank,max=5000"`
	Priority  Priority   `json:"priority" validate:"required,oneof=low normal high"`
	VisibleTo Audience   `json:"visible_to" validate:"required,oneof=everyone students teachers"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (na *NewAnnouncement) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Content = core.CleanString(na.Content)
	if na.Priority == "" {
		na.Priority = PriorityNormal
	}
	if na.VisibleTo == "" {
		na.VisibleTo = AudienceEveryone
	}
	return validate.Struct(na)
}

type QueryFilter struct {
	Audiences []Audience
	// ActiveAt excludes the announcements expired at that time.
	ActiveAt time.Time
}

type (
	Repository interface {
		CreateAnnouncement(ctx context.Context, a Announcement) (Announcement, error)
		GetAnnouncementByID(ctx context.Context, id string) (Announcement, error)
		QueryAnnouncements(ctx context.Context, filter QueryFilter) ([]Announcement, error)
		DeleteAnnouncement(ctx context.Context, id string) error
	}

	Service struct {
		repo    Repository
		dir     *directory.Directory
		nowFunc func() time.Time // mockable
	}
)

func NewService(repo Repository, dir *directory.Directory) *Service {
	return &Service{repo: repo, dir: dir, nowFunc: time.Now}
}

// Create publishes an announcement. Only staff may. na must have been validated.
func (svc *Service) Create(ctx context.Context, author user.User, na NewAnnouncement) (Announcement, error) {
	if !author.IsStaff() {
		return Announcement{}, core.ErrPermissionDenied
	}
	now := svc.nowFunc().UTC()
	if na.ExpiresAt != nil && !na.ExpiresAt.After(now) {
		return Announcement{}, core.NewValidationError(nil, core.FieldError{Field: "expires_at", Error: "must be in the future"})
	}
	return svc.repo.CreateAnnouncement(ctx, Announcement{
		AuthorID:  author.ID,
		Title:     na.Title,
		Content:   na.Content,
		Priority:  na.Priority,
		VisibleTo: na.VisibleTo,
		ExpiresAt: na.ExpiresAt,
		CreatedAt: now,
	})
}

// Visible lists the active announcements for viewer, highest priority first, then most recent.
func (svc *Service) Visible(ctx context.Context, viewer user.User, limit int) ([]View, error) {
	now := svc.nowFunc().UTC()
	anns, err := svc.repo.QueryAnnouncements(ctx, QueryFilter{Audiences: AudiencesFor(viewer.Role), ActiveAt: now})
	if err != nil {
		return nil, errors.Wrap(err, "querying announcements")
	}
	active := anns[:0]
	for _, a := range anns {
		if !a.Expired(now) {
			active = append(active, a)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		ri, rj := priorityRanks[active[i].Priority], priorityRanks[active[j].Priority]
		if ri != rj {
			return ri > rj
		}
		return active[i].CreatedAt.After(active[j].CreatedAt)
	})
	if limit > 0 && len(active) > limit {
		active = active[:limit]
	}

	ids := make([]string, 0, len(active))
	for _, a := range active {
		ids = append(ids, a.AuthorID)
	}
	authors, err := svc.dir.Lookup(ctx, ids...)
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(active))
	for _, a := range active {
		views = append(views, View{Announcement: a, Author: directory.Resolve(authors, a.AuthorID)})
	}
	return views, nil
}

// Delete removes an announcement. Only its author or an admin may.
func (svc *Service) Delete(ctx context.Context, viewer user.User, id string) error {
	a, err := svc.repo.GetAnnouncementByID(ctx, id)
	if err != nil {
		return err
	}
	if a.AuthorID != viewer.ID && !viewer.IsAdmin() {
		return core.ErrPermissionDenied
	}
	return svc.repo.DeleteAnnouncement(ctx, a.ID)
}
