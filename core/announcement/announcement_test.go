package announcement_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/announcement"
	"github.com/akia2466/PMNTS-Lovable/core/user"
	"github.com/akia2466/PMNTS-Lovable/tests"
)

func TestService_Create(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	teacher := f.CreateUser(t, user.RoleTeacher, "Ben Tau", "ben@pmnts.edu")
	student := f.CreateUser(t, user.RoleStudent, "Ana Kila", "ana@pmnts.edu")

	past := time.Now().Add(-time.Hour)
	tests := []struct {
		name    string
		author  user.User
		na      announcement.NewAnnouncement
		wantErr error
	}{
		{"staff", teacher, announcement.NewAnnouncement{Title: "Sports day", Content: "Friday"}, nil},
		{"student", student, announcement.NewAnnouncement{Title: "Party", Content: "Tonight"}, core.ErrPermissionDenied},
		{"expired", teacher, announcement.NewAnnouncement{Title: "Late", Content: "Too late", ExpiresAt: &past}, &core.ValidationError{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.na.Validate(f.Validate))
			a, err := f.Announcements.Create(ctx, tt.author, tt.na)
			switch want := tt.wantErr.(type) {
			case nil:
				require.NoError(t, err)
				assert.Equal(t, announcement.PriorityNormal, a.Priority)
				assert.Equal(t, announcement.AudienceEveryone, a.VisibleTo)
			case *core.ValidationError:
				assert.IsType(t, want, err)
			default:
				assert.Equal(t, want, err)
			}
		})
	}
}

func TestService_Visible(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	admin := f.CreateUser(t, user.RoleAdmin, "Eve Admin", "eve@pmnts.edu")
	teacher := f.CreateUser(t, user.RoleTeacher, "Ben Tau", "ben@pmnts.edu")
	student := f.CreateUser(t, user.RoleStudent, "Ana Kila", "ana@pmnts.edu")

	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	f.Announcements.SetNowFunc(func() time.Time { return now })
	soon := now.Add(time.Hour)

	create := func(title string, p announcement.Priority, to announcement.Audience, expires *time.Time) announcement.Announcement {
		t.Helper()
		now = now.Add(time.Minute)
		a, err := f.Announcements.Create(ctx, admin, announcement.NewAnnouncement{
			Title: title, Content: title, Priority: p, VisibleTo: to, ExpiresAt: expires,
		})
		require.NoError(t, err)
		return a
	}
	create("assembly", announcement.PriorityNormal, announcement.AudienceEveryone, nil)
	create("exams", announcement.PriorityHigh, announcement.AudienceStudents, nil)
	create("staff meeting", announcement.PriorityNormal, announcement.AudienceTeachers, nil)
	create("canteen", announcement.PriorityLow, announcement.AudienceEveryone, &soon)
	create("uniforms", announcement.PriorityNormal, announcement.AudienceEveryone, nil)

	titles := func(viewer user.User, limit int) []string {
		t.Helper()
		views, err := f.Announcements.Visible(ctx, viewer, limit)
		require.NoError(t, err)
		res := make([]string, 0, len(views))
		for _, v := range views {
			res = append(res, v.Title)
		}
		return res
	}

	tests := []struct {
		name   string
		viewer user.User
		limit  int
		want   []string
	}{
		{"student", student, 0, []string{"exams", "uniforms", "assembly", "canteen"}},
		{"teacher", teacher, 0, []string{"uniforms", "staff meeting", "assembly", "canteen"}},
		{"admin", admin, 0, []string{"exams", "uniforms", "staff meeting", "assembly", "canteen"}},
		{"limit", student, 2, []string{"exams", "uniforms"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, titles(tt.viewer, tt.limit))
		})
	}

	now = soon
	assert.Equal(t, []string{"exams", "uniforms", "assembly"}, titles(student, 0), "expired announcements are hidden")

	views, err := f.Announcements.Visible(ctx, student, 1)
	require.NoError(t, err)
	assert.Equal(t, "Eve Admin", views[0].Author.FullName)
}

func TestService_Delete(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	admin := f.CreateUser(t, user.RoleAdmin, "Eve Admin", "eve@pmnts.edu")
	teacher := f.CreateUser(t, user.RoleTeacher, "Ben Tau", "ben@pmnts.edu")
	colleague := f.CreateUser(t, user.RoleTeacher, "Dan Oro", "dan@pmnts.edu")

	a, err := f.Announcements.Create(ctx, teacher, announcement.NewAnnouncement{
		Title: "Lab closed", Content: "Monday", Priority: announcement.PriorityNormal, VisibleTo: announcement.AudienceEveryone,
	})
	require.NoError(t, err)

	assert.Equal(t, core.ErrPermissionDenied, f.Announcements.Delete(ctx, colleague, a.ID))
	require.NoError(t, f.Announcements.Delete(ctx, admin, a.ID))
	assert.True(t, core.IsNotFound(f.Announcements.Delete(ctx, teacher, a.ID)))
}
