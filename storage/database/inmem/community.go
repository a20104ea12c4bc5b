package inmemdb

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/akia2466/PMNTS-Lovable/core/community"
)

type communityRepository struct {
	db *DB
}

var _ community.Repository = (*communityRepository)(nil) // interface compliance check

func NewCommunityRepository(db *DB) community.Repository {
	return &communityRepository{db: db}
}

func likeKey(postID, userID string) string { return postID + "/" + userID }

func (repo *communityRepository) CreatePost(ctx context.Context, p community.Post) (community.Post, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	p.ID = uuid.NewString()
	repo.db.posts.put(ctx, p.ID, p)
	return p, nil
}

func (repo *communityRepository) GetPostByID(_ context.Context, id string) (community.Post, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if p, ok := repo.db.posts.get(id); ok {
		return p, nil
	}
	return community.Post{}, community.ErrNotFound
}

func (repo *communityRepository) QueryPosts(_ context.Context, filter community.QueryFilter) ([]community.Post, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	posts := repo.db.posts.filter(
		func(p community.Post) bool {
			return (filter.Category == "" || filter.Category == community.CategoryAll || p.Category == filter.Category) &&
				(filter.Visibilities == nil || slices.Contains(filter.Visibilities, p.Visibility)) &&
				(filter.AuthorID == "" || p.AuthorID == filter.AuthorID)
		},
		func(a, b community.Post) bool { return a.CreatedAt.After(b.CreatedAt) },
	)
	if filter.Limit > 0 && len(posts) > filter.Limit {
		posts = posts[:filter.Limit]
	}
	return posts, nil
}

// DeletePost cascades to the likes and comments of the post.
func (repo *communityRepository) DeletePost(ctx context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if !repo.db.posts.remove(ctx, id) {
		return community.ErrNotFound
	}
	for _, l := range repo.db.likes.filter(func(l like) bool { return l.PostID == id }, nil) {
		repo.db.likes.remove(ctx, likeKey(l.PostID, l.UserID))
	}
	for _, c := range repo.db.comments.filter(func(c community.Comment) bool { return c.PostID == id }, nil) {
		repo.db.comments.remove(ctx, c.ID)
	}
	return nil
}

func (repo *communityRepository) LikedPostIDs(_ context.Context, userID string, postIDs ...string) (map[string]bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	liked := make(map[string]bool)
	for _, id := range postIDs {
		if _, ok := repo.db.likes.get(likeKey(id, userID)); ok {
			liked[id] = true
		}
	}
	return liked, nil
}

func (repo *communityRepository) InsertLike(ctx context.Context, postID, userID string) (bool, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	key := likeKey(postID, userID)
	if _, ok := repo.db.likes.get(key); ok {
		return false, nil
	}
	repo.db.likes.put(ctx, key, like{PostID: postID, UserID: userID})
	return true, nil
}

func (repo *communityRepository) DeleteLike(ctx context.Context, postID, userID string) (bool, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	return repo.db.likes.remove(ctx, likeKey(postID, userID)), nil
}

func (repo *communityRepository) addToCounter(ctx context.Context, postID string, counter func(p *community.Post) *int, delta int) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	p, ok := repo.db.posts.get(postID)
	if !ok {
		return 0, community.ErrNotFound
	}
	n := counter(&p)
	*n = max(*n+delta, 0)
	repo.db.posts.put(ctx, p.ID, p)
	return *n, nil
}

func (repo *communityRepository) AddToLikes(ctx context.Context, postID string, delta int) (int, error) {
	return repo.addToCounter(ctx, postID, func(p *community.Post) *int { return &p.LikesCount }, delta)
}

func (repo *communityRepository) CreateComment(ctx context.Context, c community.Comment) (community.Comment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.posts.get(c.PostID); !ok {
		return community.Comment{}, community.ErrNotFound
	}
	c.ID = uuid.NewString()
	repo.db.comments.put(ctx, c.ID, c)
	return c, nil
}

func (repo *communityRepository) GetCommentByID(_ context.Context, id string) (community.Comment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if c, ok := repo.db.comments.get(id); ok {
		return c, nil
	}
	return community.Comment{}, community.ErrCommentNotFound
}

func (repo *communityRepository) QueryComments(_ context.Context, postID string) ([]community.Comment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	return repo.db.comments.filter(
		func(c community.Comment) bool { return c.PostID == postID },
		func(a, b community.Comment) bool { return a.CreatedAt.Before(b.CreatedAt) },
	), nil
}

func (repo *communityRepository) DeleteComment(ctx context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if !repo.db.comments.remove(ctx, id) {
		return community.ErrCommentNotFound
	}
	return nil
}

func (repo *communityRepository) AddToComments(ctx context.Context, postID string, delta int) (int, error) {
	return repo.addToCounter(ctx, postID, func(p *community.Post) *int { return &p.CommentsCount }, delta)
}
