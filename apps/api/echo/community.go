package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core/community"
)

type communityApi struct {
	deps ServerDeps
}

func registerCommunityAPI(g *echo.Group, deps ServerDeps) {
	api := communityApi{deps: deps}

	cg := g.Group("/community")
	cg.GET("", api.feed)
	cg.POST("", api.create)
	cg.GET("/:id", api.retrieve)
	cg.DELETE("/:id", api.destroy)
	cg.POST("/:id/like", api.like)
	cg.GET("/:id/comments", api.comments)
	cg.POST("/:id/comments", api.comment)
	cg.DELETE("/comments/:id", api.destroyComment)
}

// Handlers

func (api *communityApi) feed(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	category := community.Category(ctx.QueryParam("category"))
	if category == "" {
		category = community.CategoryAll
	}
	posts, err := api.deps.Community.Feed(ctx.Request().Context(), usr, category)
	if err != nil {
		return errors.Wrap(err, "loading feed")
	}
	if posts == nil {
		posts = []community.PostView{}
	}
	return ctx.JSON(http.StatusOK, posts)
}

func (api *communityApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data community.NewPost
	if err = bindForm(ctx, api.deps.Validate, &data); err != nil {
		return err
	}
	post, err := api.deps.Community.CreatePost(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating post")
	}
	return ctx.JSON(http.StatusCreated, post)
}

func (api *communityApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	post, err := api.deps.Community.Get(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding post")
	}
	return ctx.JSON(http.StatusOK, post)
}

func (api *communityApi) destroy(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if err = api.deps.Community.DeletePost(ctx.Request().Context(), usr, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting post")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *communityApi) like(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	state, err := api.deps.Community.ToggleLike(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "toggling like")
	}
	return ctx.JSON(http.StatusOK, state)
}

func (api *communityApi) comments(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	comments, err := api.deps.Community.Comments(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying comments")
	}
	if comments == nil {
		comments = []community.CommentView{}
	}
	return ctx.JSON(http.StatusOK, comments)
}

func (api *communityApi) comment(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data community.NewComment
	if err = bindForm(ctx, api.deps.Validate, &data); err != nil {
		return err
	}
	comment, err := api.deps.Community.AddComment(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "adding comment")
	}
	return ctx.JSON(http.StatusCreated, comment)
}

func (api *communityApi) destroyComment(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if err = api.deps.Community.DeleteComment(ctx.Request().Context(), usr, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting comment")
	}
	return ctx.NoContent(http.StatusNoContent)
}
