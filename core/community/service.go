package community

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/directory"
	"github.com/akia2466/PMNTS-Lovable/core/user"
)

const defaultFeedLimit = 50

type Service struct {
	repo Repository
	tx   core.Transactor
	dir  *directory.Directory
}

func NewService(repo Repository, tx core.Transactor, dir *directory.Directory) *Service {
	return &Service{repo: repo, tx: tx, dir: dir}
}

// Feed lists the posts of category visible to viewer, with their authors and the viewer's likes.
func (svc *Service) Feed(ctx context.Context, viewer user.User, category Category) ([]PostView, error) {
	filter := QueryFilter{Visibilities: VisibilitiesFor(viewer.Role), Limit: defaultFeedLimit}
	if category != "" && category != CategoryAll {
		filter.Category = category
	}
	posts, err := svc.repo.QueryPosts(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying posts")
	}
	return svc.views(ctx, viewer, posts)
}

func (svc *Service) views(ctx context.Context, viewer user.User, posts []Post) ([]PostView, error) {
	if len(posts) == 0 {
		return []PostView{}, nil
	}
	postIDs := make([]string, 0, len(posts))
	authorIDs := make([]string, 0, len(posts))
	for _, p := range posts {
		postIDs = append(postIDs, p.ID)
		authorIDs = append(authorIDs, p.AuthorID)
	}

	authors, err := svc.dir.Lookup(ctx, authorIDs...)
	if err != nil {
		return nil, err
	}
	liked, err := svc.repo.LikedPostIDs(ctx, viewer.ID, postIDs...)
	if err != nil {
		return nil, errors.Wrap(err, "querying likes")
	}

	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, PostView{
			Post:        p,
			Author:      directory.Resolve(authors, p.AuthorID),
			LikedByUser: liked[p.ID],
		})
	}
	return views, nil
}

// Get returns the post id as seen by viewer.
func (svc *Service) Get(ctx context.Context, viewer user.User, id string) (PostView, error) {
	p, err := svc.visiblePost(ctx, viewer, id)
	if err != nil {
		return PostView{}, err
	}
	views, err := svc.views(ctx, viewer, []Post{p})
	if err != nil {
		return PostView{}, err
	}
	return views[0], nil
}

// visiblePost hides posts the viewer may not read behind ErrNotFound.
func (svc *Service) visiblePost(ctx context.Context, viewer user.User, id string) (Post, error) {
	p, err := svc.repo.GetPostByID(ctx, id)
	if err != nil {
		return Post{}, err
	}
	if p.AuthorID != viewer.ID && !CanSee(viewer.Role, p.Visibility) {
		return Post{}, ErrNotFound
	}
	return p, nil
}

// CreatePost publishes a post by author. np must have been validated.
func (svc *Service) CreatePost(ctx context.Context, author user.User, np NewPost) (PostView, error) {
	if np.Category == CategoryAnnouncements && !author.IsStaff() {
		return PostView{}, core.ErrPermissionDenied
	}
	now := time.Now().UTC()
	p, err := svc.repo.CreatePost(ctx, Post{
		AuthorID:   author.ID,
		Category:   np.Category,
		Content:    np.Content,
		ImageURL:   np.ImageURL,
		Visibility: np.Visibility,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return PostView{}, errors.Wrap(err, "creating post")
	}
	views, err := svc.views(ctx, author, []Post{p})
	if err != nil {
		return PostView{}, err
	}
	return views[0], nil
}

// DeletePost removes a post. Only its author or an admin may delete it.
func (svc *Service) DeletePost(ctx context.Context, viewer user.User, id string) error {
	p, err := svc.visiblePost(ctx, viewer, id)
	if err != nil {
		return err
	}
	if p.AuthorID != viewer.ID && !viewer.IsAdmin() {
		return core.ErrPermissionDenied
	}
	return svc.repo.DeletePost(ctx, p.ID)
}

// ToggleLike likes the post for viewer, or unlikes it when already liked.
// The like row and the counter change in the same transaction.
func (svc *Service) ToggleLike(ctx context.Context, viewer user.User, postID string) (LikeState, error) {
	if _, err := svc.visiblePost(ctx, viewer, postID); err != nil {
		return LikeState{}, err
	}

	var state LikeState
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		removed, err := svc.repo.DeleteLike(ctx, postID, viewer.ID)
		if err != nil {
			return errors.Wrap(err, "deleting like")
		}
		if removed {
			state.LikesCount, err = svc.repo.AddToLikes(ctx, postID, -1)
			return errors.Wrap(err, "decrementing likes")
		}

		added, err := svc.repo.InsertLike(ctx, postID, viewer.ID)
		if err != nil {
			return errors.Wrap(err, "inserting like")
		}
		state.Liked = true
		delta := 0
		if added {
			delta = 1
		}
		state.LikesCount, err = svc.repo.AddToLikes(ctx, postID, delta)
		return errors.Wrap(err, "incrementing likes")
	})
	if err != nil {
		return LikeState{}, err
	}
	return state, nil
}

// Comments lists the comments of a post with their authors.
func (svc *Service) Comments(ctx context.Context, viewer user.User, postID string) ([]CommentView, error) {
	if _, err := svc.visiblePost(ctx, viewer, postID); err != nil {
		return nil, err
	}
	comments, err := svc.repo.QueryComments(ctx, postID)
	if err != nil {
		return nil, errors.Wrap(err, "querying comments")
	}
	ids := make([]string, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.AuthorID)
	}
	authors, err := svc.dir.Lookup(ctx, ids...)
	if err != nil {
		return nil, err
	}

	views := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, CommentView{Comment: c, Author: directory.Resolve(authors, c.AuthorID)})
	}
	return views, nil
}

// AddComment comments a post and bumps its comments count atomically. nc must have been validated.
func (svc *Service) AddComment(ctx context.Context, author user.User, postID string, nc NewComment) (CommentView, error) {
	if _, err := svc.visiblePost(ctx, author, postID); err != nil {
		return CommentView{}, err
	}

	var c Comment
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		c, err = svc.repo.CreateComment(ctx, Comment{
			PostID:    postID,
			AuthorID:  author.ID,
			Content:   nc.Content,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			return errors.Wrap(err, "creating comment")
		}
		_, err = svc.repo.AddToComments(ctx, postID, 1)
		return errors.Wrap(err, "incrementing comments")
	})
	if err != nil {
		return CommentView{}, err
	}

	person, err := svc.dir.Get(ctx, author.ID)
	if err != nil {
		return CommentView{}, err
	}
	return CommentView{Comment: c, Author: person}, nil
}

// DeleteComment removes a comment. Only its author or an admin may delete it.
func (svc *Service) DeleteComment(ctx context.Context, viewer user.User, commentID string) error {
	c, err := svc.repo.GetCommentByID(ctx, commentID)
	if err != nil {
		return err
	}
	if c.AuthorID != viewer.ID && !viewer.IsAdmin() {
		return core.ErrPermissionDenied
	}
	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := svc.repo.DeleteComment(ctx, c.ID); err != nil {
			return errors.Wrap(err, "deleting comment")
		}
		_, err := svc.repo.AddToComments(ctx, c.PostID, -1)
		return errors.Wrap(err, "decrementing comments")
	})
}
