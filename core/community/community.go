package community

import (
	"context"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/directory"
	"github.com/akia2466/PMNTS-Lovable/core/user"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("post")
	ErrCommentNotFound = core.NewNotFoundError("comment")
)

type Category string

const (
	CategoryAll           Category = "all"
	CategoryAnnouncements Category = "announcements"
	CategoryStudyGroups   Category = "study_groups"
	CategoryEvents        Category = "events"
	CategoryGeneral       Category = "general"
)

var Categories = []Category{CategoryAnnouncements, CategoryStudyGroups, CategoryEvents, CategoryGeneral}

type Visibility string

const (
	VisibleToEveryone Visibility = "everyone"
	VisibleToStudents Visibility = "students"
	VisibleToTeachers Visibility = "teachers"
)

// VisibilitiesFor lists the post visibilities a viewer with role may read.
func VisibilitiesFor(role user.Role) []Visibility {
	switch role {
	case user.RoleAdmin:
		return []Visibility{VisibleToEveryone, VisibleToStudents, VisibleToTeachers}
	case user.RoleTeacher:
		return []Visibility{VisibleToEveryone, VisibleToTeachers}
	default:
		return []Visibility{VisibleToEveryone, VisibleToStudents}
	}
}

// CanSee reports whether a viewer with role may read content of visibility v.
func CanSee(role user.Role, v Visibility) bool {
	return slices.Contains(VisibilitiesFor(role), v)
}

type Post struct {
	ID            string     `json:"id"`
	AuthorID      string     `json:"author_id"`
	Category      Category   `json:"category"`
	Content       string     `json:"content"`
	ImageURL      string     `json:"image_url"`
	Visibility    Visibility `json:"visibility"`
	LikesCount    int        `json:"likes_count"`
	CommentsCount int        `json:"comments_count"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// PostView is a Post as shown in the feed of a viewer.
type PostView struct {
	Post
	Author      directory.Person `json:"author"`
	LikedByUser bool             `json:"liked_by_user"`
}

type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type CommentView struct {
	Comment
	Author directory.Person `json:"author"`
}

// LikeState is the like status of a post for a viewer after a toggle.
type LikeState struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likes_count"`
}

type NewPost struct {
	Category   Category   `json:"category" validate:"required,oneof=announcements study_groups events general"`
	Content    string     `json:"content" validate:"required,notblank,max=5000"`
	ImageURL   string     `json:"image_url" validate:"omitempty,url"`
	Visibility Visibility `json:"visibility" validate:"required,oneof=everyone students teachers"`
}

func (np *NewPost) Validate(validate *validator.Validate) error {
	np.Content = core.CleanString(np.Content)
	np.ImageURL = core.CleanString(np.ImageURL)
	if np.Category == "" {
		np.Category = CategoryGeneral
	}
	if np.Visibility == "" {
		np.Visibility = VisibleToEveryone
	}
	return validate.Struct(np)
}

type NewComment struct {
	Content string `json:"content" validate:"required,notblank,max=2000"`
}

func (nc *NewComment) Validate(validate *validator.Validate) error {
	nc.Content = core.CleanString(nc.Content)
	return validate.Struct(nc)
}

type QueryFilter struct {
	Category     Category
	Visibilities []Visibility
	AuthorID     string
	Limit        int
}

type Repository interface {
	CreatePost(ctx context.Context, p Post) (Post, error)
	GetPostByID(ctx context.Context, id string) (Post, error)
	// QueryPosts returns the matching posts, most recent first.
	QueryPosts(ctx context.Context, filter QueryFilter) ([]Post, error)
	DeletePost(ctx context.Context, id string) error

	// LikedPostIDs returns the subset of postIDs liked by userID.
	LikedPostIDs(ctx context.Context, userID string, postIDs ...string) (map[string]bool, error)
	// InsertLike reports whether a like was added; liking twice is a no-op.
	InsertLike(ctx context.Context, postID, userID string) (bool, error)
	// DeleteLike reports whether a like was removed.
	DeleteLike(ctx context.Context, postID, userID string) (bool, error)
	// AddToLikes changes likes_count by delta in storage and returns the new count.
	AddToLikes(ctx context.Context, postID string, delta int) (int, error)

	CreateComment(ctx context.Context, c Comment) (Comment, error)
	GetCommentByID(ctx context.Context, id string) (Comment, error)
	// QueryComments returns the comments of postID, oldest first.
	QueryComments(ctx context.Context, postID string) ([]Comment, error)
	DeleteComment(ctx context.Context, id string) error
	// AddToComments changes comments_count by delta in storage and returns the new count.
	AddToComments(ctx context.Context, postID string, delta int) (int, error)
}
