package community_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/community"
	"github.com/akia2466/PMNTS-Lovable/core/user"
	"github.com/akia2466/PMNTS-Lovable/tests"
)

func post(t *testing.T, f *testutil.Fixture, author user.User, cat community.Category, vis community.Visibility) community.PostView {
	t.Helper()
	p, err := f.Community.CreatePost(context.Background(), author, community.NewPost{Category: cat, Content: "hello " + string(cat), Visibility: vis})
	require.NoError(t, err)
	return p
}

func TestService_CreatePost(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	student := f.CreateUser(t, user.RoleStudent, "Ana Kila", "ana@pmnts.edu")
	teacher := f.CreateUser(t, user.RoleTeacher, "Ben Tau", "ben@pmnts.edu")

	_, err := f.Community.CreatePost(ctx, student, community.NewPost{Category: community.CategoryAnnouncements, Content: "hi", Visibility: community.VisibleToEveryone})
	assert.Equal(t, core.ErrPermissionDenied, err, "students may not post announcements")

	p := post(t, f, teacher, community.CategoryAnnouncements, community.VisibleToEveryone)
	assert.Equal(t, "Ben Tau", p.Author.FullName)
	assert.Zero(t, p.LikesCount)
	assert.False(t, p.LikedByUser)
}

func TestService_Feed(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	student := f.CreateUser(t, user.RoleStudent, "Ana Kila", "ana@pmnts.edu")
	teacher := f.CreateUser(t, user.RoleTeacher, "Ben Tau", "ben@pmnts.edu")
	admin := f.CreateUser(t, user.RoleAdmin, "Eve Admin", "eve@pmnts.edu")

	post(t, f, student, community.CategoryGeneral, community.VisibleToEveryone)
	post(t, f, student, community.CategoryStudyGroups, community.VisibleToStudents)
	post(t, f, teacher, community.CategoryEvents, community.VisibleToTeachers)

	tests := []struct {
		name     string
		viewer   user.User
		category community.Category
		want     int
	}{
		{"student sees everyone and students posts", student, community.CategoryAll, 2},
		{"teacher sees everyone and teachers posts", teacher, "", 2},
		{"admin sees everything", admin, community.CategoryAll, 3},
		{"category filter", admin, community.CategoryEvents, 1},
		{"hidden category", student, community.CategoryEvents, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, err := f.Community.Feed(ctx, tt.viewer, tt.category)
			require.NoError(t, err)
			if len(posts) != tt.want {
				t.Errorf("Feed() = %d posts; want %d", len(posts), tt.want)
			}
		})
	}
}

func TestService_ToggleLike(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	author := f.CreateUser(t, user.RoleStudent, "Ana Kila", "ana@pmnts.edu")
	fan := f.CreateUser(t, user.RoleStudent, "Cal Moi", "cal@pmnts.edu")
	teacher := f.CreateUser(t, user.RoleTeacher, "Ben Tau", "ben@pmnts.edu")
	p := post(t, f, author, community.CategoryGeneral, community.VisibleToStudents)

	state, err := f.Community.ToggleLike(ctx, fan, p.ID)
	require.NoError(t, err)
	assert.Equal(t, community.LikeState{Liked: true, LikesCount: 1}, state)

	state, err = f.Community.ToggleLike(ctx, author, p.ID)
	require.NoError(t, err)
	assert.Equal(t, community.LikeState{Liked: true, LikesCount: 2}, state)

	got, err := f.Community.Get(ctx, fan, p.ID)
	require.NoError(t, err)
	assert.True(t, got.LikedByUser)
	assert.Equal(t, 2, got.LikesCount)

	state, err = f.Community.ToggleLike(ctx, fan, p.ID)
	require.NoError(t, err)
	assert.Equal(t, community.LikeState{Liked: false, LikesCount: 1}, state, "toggling twice unlikes")

	_, err = f.Community.ToggleLike(ctx, teacher, p.ID)
	assert.Equal(t, community.ErrNotFound, err, "posts hidden from the viewer cannot be liked")
}

func TestService_Comments(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	author := f.CreateUser(t, user.RoleStudent, "Ana Kila", "ana@pmnts.edu")
	other := f.CreateUser(t, user.RoleStudent, "Cal Moi", "cal@pmnts.edu")
	admin := f.CreateUser(t, user.RoleAdmin, "Eve Admin", "eve@pmnts.edu")
	p := post(t, f, author, community.CategoryGeneral, community.VisibleToEveryone)

	c1, err := f.Community.AddComment(ctx, other, p.ID, community.NewComment{Content: "first"})
	require.NoError(t, err)
	assert.Equal(t, "Cal Moi", c1.Author.FullName)
	c2, err := f.Community.AddComment(ctx, author, p.ID, community.NewComment{Content: "second"})
	require.NoError(t, err)

	comments, err := f.Community.Comments(ctx, author, p.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, c1.ID, comments[0].ID)

	got, err := f.Community.Get(ctx, author, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CommentsCount)

	assert.Equal(t, core.ErrPermissionDenied, f.Community.DeleteComment(ctx, other, c2.ID))
	require.NoError(t, f.Community.DeleteComment(ctx, admin, c2.ID))
	got, err = f.Community.Get(ctx, author, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CommentsCount)
}

func TestService_DeletePost(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	author := f.CreateUser(t, user.RoleStudent, "Ana Kila", "ana@pmnts.edu")
	other := f.CreateUser(t, user.RoleStudent, "Cal Moi", "cal@pmnts.edu")
	p := post(t, f, author, community.CategoryGeneral, community.VisibleToEveryone)

	assert.Equal(t, core.ErrPermissionDenied, f.Community.DeletePost(ctx, other, p.ID))
	require.NoError(t, f.Community.DeletePost(ctx, author, p.ID))
	_, err := f.Community.Get(ctx, author, p.ID)
	assert.Equal(t, community.ErrNotFound, err)
}
