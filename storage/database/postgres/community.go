package postgres

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/akia2466/PMNTS-Lovable/core/community"
)

type postRow struct {
	ID            string      `db:"id"`
	AuthorID      string      `db:"author_id"`
	Category      string      `db:"category"`
	Content       string      `db:"content"`
	ImageURL      null.String `db:"image_url"`
	Visibility    string      `db:"visibility"`
	LikesCount    int         `db:"likes_count"`
	CommentsCount int         `db:"comments_count"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
}

func (r postRow) toPost() community.Post {
	return community.Post{
		ID:            r.ID,
		AuthorID:      r.AuthorID,
		Category:      community.Category(r.Category),
		Content:       r.Content,
		ImageURL:      r.ImageURL.String,
		Visibility:    community.Visibility(r.Visibility),
		LikesCount:    r.LikesCount,
		CommentsCount: r.CommentsCount,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

type commentRow struct {
	ID        string    `db:"id"`
	PostID    string    `db:"post_id"`
	AuthorID  string    `db:"author_id"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}

func (r commentRow) toComment() community.Comment {
	return community.Comment{
		ID:        r.ID,
		PostID:    r.PostID,
		AuthorID:  r.AuthorID,
		Content:   r.Content,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

type communityRepository struct {
	db *DB
}

var _ community.Repository = (*communityRepository)(nil) // interface compliance check

func NewCommunityRepository(db *DB) community.Repository {
	return &communityRepository{db: db}
}

var (
	postColumns    = []string{"id", "author_id", "category", "content", "image_url", "visibility", "likes_count", "comments_count", "created_at", "updated_at"}
	commentColumns = []string{"id", "post_id", "author_id", "content", "created_at"}
)

func (repo *communityRepository) CreatePost(ctx context.Context, p community.Post) (community.Post, error) {
	p.ID = uuid.NewString()
	_, err := repo.db.exec(ctx, psql.Insert("community_posts").
		Columns(postColumns...).
		Values(p.ID, p.AuthorID, string(p.Category), p.Content, nullString(p.ImageURL), string(p.Visibility),
			p.LikesCount, p.CommentsCount, p.CreatedAt, p.UpdatedAt))
	if err != nil {
		return community.Post{}, errors.Wrap(err, "inserting post")
	}
	return p, nil
}

func (repo *communityRepository) GetPostByID(ctx context.Context, id string) (community.Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return community.Post{}, community.ErrNotFound
	}
	var row postRow
	q := psql.Select(postColumns...).From("community_posts").Where(sq.Eq{"id": id})
	if err := repo.db.get(ctx, &row, q, community.ErrNotFound); err != nil {
		return community.Post{}, err
	}
	return row.toPost(), nil
}

func (repo *communityRepository) QueryPosts(ctx context.Context, filter community.QueryFilter) ([]community.Post, error) {
	q := psql.Select(postColumns...).From("community_posts").OrderBy("created_at DESC")
	if filter.Category != "" && filter.Category != community.CategoryAll {
		q = q.Where(sq.Eq{"category": string(filter.Category)})
	}
	if filter.Visibilities != nil {
		visibilities := make([]string, 0, len(filter.Visibilities))
		for _, v := range filter.Visibilities {
			visibilities = append(visibilities, string(v))
		}
		q = q.Where(sq.Eq{"visibility": visibilities})
	}
	if filter.AuthorID != "" {
		q = q.Where(sq.Eq{"author_id": filter.AuthorID})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}

	var rows []postRow
	if err := repo.db.selectAll(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting posts")
	}
	posts := make([]community.Post, 0, len(rows))
	for _, r := range rows {
		posts = append(posts, r.toPost())
	}
	return posts, nil
}

func (repo *communityRepository) DeletePost(ctx context.Context, id string) error {
	n, err := repo.db.exec(ctx, psql.Delete("community_posts").Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrap(err, "deleting post")
	}
	if n == 0 {
		return community.ErrNotFound
	}
	return nil
}

func (repo *communityRepository) LikedPostIDs(ctx context.Context, userID string, postIDs ...string) (map[string]bool, error) {
	liked := make(map[string]bool)
	if len(postIDs) == 0 {
		return liked, nil
	}
	var ids []string
	q := psql.Select("post_id").From("post_likes").Where(sq.Eq{"user_id": userID, "post_id": postIDs})
	if err := repo.db.selectAll(ctx, &ids, q); err != nil {
		return nil, errors.Wrap(err, "selecting likes")
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

func (repo *communityRepository) InsertLike(ctx context.Context, postID, userID string) (bool, error) {
	n, err := repo.db.exec(ctx, psql.Insert("post_likes").
		Columns("id", "post_id", "user_id", "created_at").
		Values(uuid.NewString(), postID, userID, time.Now().UTC()).
		Suffix("ON CONFLICT (post_id, user_id) DO NOTHING"))
	if err != nil {
		return false, errors.Wrap(err, "inserting like")
	}
	return n > 0, nil
}

func (repo *communityRepository) DeleteLike(ctx context.Context, postID, userID string) (bool, error) {
	n, err := repo.db.exec(ctx, psql.Delete("post_likes").Where(sq.Eq{"post_id": postID, "user_id": userID}))
	if err != nil {
		return false, errors.Wrap(err, "deleting like")
	}
	return n > 0, nil
}

// addToCounter moves col of postID by delta, never below zero.
func (repo *communityRepository) addToCounter(ctx context.Context, col, postID string, delta int) (int, error) {
	var count int
	q := psql.Update("community_posts").
		Set(col, sq.Expr("GREATEST("+col+" + ?, 0)", delta)).
		Where(sq.Eq{"id": postID}).
		Suffix("RETURNING " + col)
	if err := repo.db.scalar(ctx, &count, q, community.ErrNotFound); err != nil {
		return 0, errors.Wrapf(err, "updating %s", col)
	}
	return count, nil
}

func (repo *communityRepository) AddToLikes(ctx context.Context, postID string, delta int) (int, error) {
	return repo.addToCounter(ctx, "likes_count", postID, delta)
}

func (repo *communityRepository) CreateComment(ctx context.Context, c community.Comment) (community.Comment, error) {
	c.ID = uuid.NewString()
	_, err := repo.db.exec(ctx, psql.Insert("post_comments").
		Columns(commentColumns...).
		Values(c.ID, c.PostID, c.AuthorID, c.Content, c.CreatedAt))
	if err != nil {
		return community.Comment{}, errors.Wrap(err, "inserting comment")
	}
	return c, nil
}

func (repo *communityRepository) GetCommentByID(ctx context.Context, id string) (community.Comment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return community.Comment{}, community.ErrCommentNotFound
	}
	var row commentRow
	q := psql.Select(commentColumns...).From("post_comments").Where(sq.Eq{"id": id})
	if err := repo.db.get(ctx, &row, q, community.ErrCommentNotFound); err != nil {
		return community.Comment{}, err
	}
	return row.toComment(), nil
}

func (repo *communityRepository) QueryComments(ctx context.Context, postID string) ([]community.Comment, error) {
	var rows []commentRow
	q := psql.Select(commentColumns...).From("post_comments").Where(sq.Eq{"post_id": postID}).OrderBy("created_at ASC")
	if err := repo.db.selectAll(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting comments")
	}
	comments := make([]community.Comment, 0, len(rows))
	for _, r := range rows {
		comments = append(comments, r.toComment())
	}
	return comments, nil
}

func (repo *communityRepository) DeleteComment(ctx context.Context, id string) error {
	n, err := repo.db.exec(ctx, psql.Delete("post_comments").Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrap(err, "deleting comment")
	}
	if n == 0 {
		return community.ErrCommentNotFound
	}
	return nil
}

func (repo *communityRepository) AddToComments(ctx context.Context, postID string, delta int) (int, error) {
	return repo.addToCounter(ctx, "comments_count", postID, delta)
}
