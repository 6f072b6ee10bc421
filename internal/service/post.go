package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Skotchmaster/social_feed/internal/logging"
	"github.com/Skotchmaster/social_feed/internal/models"
	"github.com/Skotchmaster/social_feed/internal/mykafka"
	"github.com/Skotchmaster/social_feed/internal/repo"
	"github.com/Skotchmaster/social_feed/internal/transport"
	"github.com/Skotchmaster/social_feed/internal/util"
)

const (
	EventPostCreated    = "post_created"
	EventPostDeleted    = "post_deleted"
	EventCommentCreated = "comment_created"
	EventCommentDeleted = "comment_deleted"
)

type PostService struct {
	Store  repo.Store
	Index  PostIndex
	Events Publisher
}

// newPage reports the page that was actually served, which differs from the
// requested one when Calculate clamped it.
func newPage[T any](items []T, total int64, offset, limit int) transport.Page[T] {
	if items == nil {
		items = []T{}
	}
	return transport.Page[T]{Items: items, Total: total, Page: util.PageOf(offset, limit), Size: limit}
}

// ensureUser rejects callers whose account was deleted while their token is still valid.
func ensureUser(ctx context.Context, st repo.Store, id models.UserID) error {
	if _, err := st.FindUserByID(ctx, id); err != nil {
		return notFound(err, "user")
	}
	return nil
}

func (s *PostService) CreatePost(ctx context.Context, caller models.UserID, req transport.CreatePostRequest) (transport.PostView, error) {
	if err := checkStruct(req); err != nil {
		return transport.PostView{}, err
	}
	if req.Image != nil && strings.TrimSpace(*req.Image) == "" {
		req.Image = nil
	}

	post := models.Post{UserID: caller, Content: req.Content, Image: req.Image}
	err := runTx(ctx, s.Store, "post.create", func(st repo.Store) error {
		if err := ensureUser(ctx, st, caller); err != nil {
			return err
		}
		return st.CreatePost(ctx, &post)
	})
	if err != nil {
		return transport.PostView{}, err
	}

	l := logging.FromContext(ctx).With("svc", "post.create", "user_id", caller, "post_id", post.ID)
	if s.Index != nil {
		if err := s.Index.IndexPost(ctx, &post); err != nil {
			l.Warn("search_index_failed", "error", err)
		}
	}
	l.Info("post_created")
	publish(ctx, s.Events, mykafka.TopicPostEvents, mykafka.Event{Type: EventPostCreated, UserID: caller, PostID: post.ID})
	return transport.NewPostView(&post, 0), nil
}

func (s *PostService) GetPost(ctx context.Context, id uint) (transport.PostView, error) {
	p, err := s.Store.FindPost(ctx, id)
	if err != nil {
		return transport.PostView{}, classify(ctx, "post.get", notFound(err, "post"))
	}
	counts, err := s.Store.CountLikes(ctx, []uint{id})
	if err != nil {
		return transport.PostView{}, classify(ctx, "post.get", err)
	}
	return transport.NewPostView(p, counts[id]), nil
}

func (s *PostService) ListPosts(ctx context.Context, author models.UserID, page, size int) (transport.Page[transport.PostView], error) {
	offset, limit := util.Calculate(page, size)
	posts, total, err := s.Store.ListPosts(ctx, repo.PostFilter{UserID: author, Offset: offset, Limit: limit})
	if err != nil {
		return transport.Page[transport.PostView]{}, classify(ctx, "post.list", err)
	}
	views, err := s.views(ctx, posts)
	if err != nil {
		return transport.Page[transport.PostView]{}, err
	}
	return newPage(views, total, offset, limit), nil
}

// SearchPosts uses the search index when one is configured and falls back to
// a substring match in the store when it is absent or failing.
func (s *PostService) SearchPosts(ctx context.Context, query string, page, size int) (transport.Page[transport.PostView], error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return transport.Page[transport.PostView]{}, fail(ErrValidation, "query is required")
	}
	offset, limit := util.Calculate(page, size)

	if s.Index != nil {
		total, ids, err := s.Index.SearchPosts(ctx, query, offset, limit)
		if err == nil {
			posts, err := s.loadInOrder(ctx, ids)
			if err != nil {
				return transport.Page[transport.PostView]{}, err
			}
			views, err := s.views(ctx, posts)
			if err != nil {
				return transport.Page[transport.PostView]{}, err
			}
			return newPage(views, total, offset, limit), nil
		}
		logging.FromContext(ctx).Warn("search_fallback", "reason", err.Error())
	}

	posts, total, err := s.Store.SearchPosts(ctx, query, offset, limit)
	if err != nil {
		return transport.Page[transport.PostView]{}, classify(ctx, "post.search", err)
	}
	views, err := s.views(ctx, posts)
	if err != nil {
		return transport.Page[transport.PostView]{}, err
	}
	return newPage(views, total, offset, limit), nil
}

func (s *PostService) loadInOrder(ctx context.Context, ids []uint) ([]models.Post, error) {
	found, err := s.Store.FindPostsByIDs(ctx, ids)
	if err != nil {
		return nil, classify(ctx, "post.search", err)
	}
	byID := make(map[uint]models.Post, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	posts := make([]models.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			posts = append(posts, p)
		}
	}
	return posts, nil
}

func (s *PostService) views(ctx context.Context, posts []models.Post) ([]transport.PostView, error) {
	ids := make([]uint, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}
	counts, err := s.Store.CountLikes(ctx, ids)
	if err != nil {
		return nil, classify(ctx, "post.likes", err)
	}
	views := make([]transport.PostView, len(posts))
	for i := range posts {
		views[i] = transport.NewPostView(&posts[i], counts[posts[i].ID])
	}
	return views, nil
}

// DeletePost is allowed to the post's owner only.
func (s *PostService) DeletePost(ctx context.Context, caller models.UserID, id uint) error {
	l := logging.FromContext(ctx).With("svc", "post.delete", "user_id", caller, "post_id", id)

	err := runTx(ctx, s.Store, "post.delete", func(st repo.Store) error {
		p, err := st.FindPost(ctx, id)
		if err != nil {
			return notFound(err, "post")
		}
		if err := authorize(caller, p); err != nil {
			return err
		}
		return notFound(st.DeletePost(ctx, id), "post")
	})
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			l.Warn("delete_denied", "status", 403)
		}
		return err
	}

	if s.Index != nil {
		if err := s.Index.DeletePost(ctx, id); err != nil {
			l.Warn("search_unindex_failed", "error", err)
		}
	}
	l.Info("post_deleted")
	publish(ctx, s.Events, mykafka.TopicPostEvents, mykafka.Event{Type: EventPostDeleted, UserID: caller, PostID: id})
	return nil
}

func (s *PostService) CreateComment(ctx context.Context, caller models.UserID, postID uint, req transport.CreateCommentRequest) (models.Comment, error) {
	if err := checkStruct(req); err != nil {
		return models.Comment{}, err
	}

	comment := models.Comment{PostID: postID, UserID: caller, Content: req.Content}
	err := runTx(ctx, s.Store, "comment.create", func(st repo.Store) error {
		if err := ensureUser(ctx, st, caller); err != nil {
			return err
		}
		if _, err := st.FindPost(ctx, postID); err != nil {
			return notFound(err, "post")
		}
		return st.CreateComment(ctx, &comment)
	})
	if err != nil {
		return models.Comment{}, err
	}

	publish(ctx, s.Events, mykafka.TopicPostEvents, mykafka.Event{
		Type: EventCommentCreated, UserID: caller, PostID: postID, CommentID: comment.ID,
	})
	return comment, nil
}

func (s *PostService) ListComments(ctx context.Context, postID uint, page, size int) (transport.Page[models.Comment], error) {
	if _, err := s.Store.FindPost(ctx, postID); err != nil {
		return transport.Page[models.Comment]{}, classify(ctx, "comment.list", notFound(err, "post"))
	}
	offset, limit := util.Calculate(page, size)
	items, total, err := s.Store.ListComments(ctx, postID, offset, limit)
	if err != nil {
		return transport.Page[models.Comment]{}, classify(ctx, "comment.list", err)
	}
	return newPage(items, total, offset, limit), nil
}

// DeleteComment is allowed to the comment's author only.
func (s *PostService) DeleteComment(ctx context.Context, caller models.UserID, id uint) error {
	var postID uint
	err := runTx(ctx, s.Store, "comment.delete", func(st repo.Store) error {
		c, err := st.FindComment(ctx, id)
		if err != nil {
			return notFound(err, "comment")
		}
		if err := authorize(caller, c); err != nil {
			return err
		}
		postID = c.PostID
		return notFound(st.DeleteComment(ctx, id), "comment")
	})
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			logging.FromContext(ctx).Warn("delete_denied", "status", 403, "comment_id", id, "user_id", caller)
		}
		return err
	}

	publish(ctx, s.Events, mykafka.TopicPostEvents, mykafka.Event{
		Type: EventCommentDeleted, UserID: caller, PostID: postID, CommentID: id,
	})
	return nil
}

// Like records one like per user and post and returns the new like count.
func (s *PostService) Like(ctx context.Context, caller models.UserID, postID uint) (int64, error) {
	var count int64
	err := runTx(ctx, s.Store, "like.create", func(st repo.Store) error {
		if err := ensureUser(ctx, st, caller); err != nil {
			return err
		}
		if _, err := st.FindPost(ctx, postID); err != nil {
			return notFound(err, "post")
		}
		if err := st.CreateLike(ctx, &models.Like{UserID: caller, PostID: postID}); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return fail(ErrConflict, "post already liked")
			}
			return err
		}
		counts, err := st.CountLikes(ctx, []uint{postID})
		if err != nil {
			return err
		}
		count = counts[postID]
		return nil
	})
	return count, err
}

func (s *PostService) Unlike(ctx context.Context, caller models.UserID, postID uint) (int64, error) {
	var count int64
	err := runTx(ctx, s.Store, "like.delete", func(st repo.Store) error {
		if err := st.DeleteLike(ctx, caller, postID); err != nil {
			return notFound(err, "like")
		}
		counts, err := st.CountLikes(ctx, []uint{postID})
		if err != nil {
			return err
		}
		count = counts[postID]
		return nil
	})
	return count, err
}
