package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/social_feed/internal/models"
	"github.com/Skotchmaster/social_feed/internal/transport"
)

func TestCreatePost(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.signup(t, "alice")

	p := env.post(t, alice.ID, "hello world")
	assert.Equal(t, alice.ID, p.UserID)
	assert.Equal(t, "hello world", env.index.indexed[p.ID])
	assert.Contains(t, env.events.Types(), EventPostCreated)

	_, err := env.posts.CreatePost(ctx, alice.ID, transport.CreatePostRequest{Content: "  "})
	require.ErrorIs(t, err, ErrValidation)

	_, err = env.posts.CreatePost(ctx, 999, transport.CreatePostRequest{Content: "orphan"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeletePost_Ownership(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.signup(t, "alice")
	bob := env.signup(t, "bob")
	p := env.post(t, alice.ID, "mine")

	err := env.posts.DeletePost(ctx, bob.ID, p.ID)
	require.ErrorIs(t, err, ErrForbidden)
	_, err = env.posts.GetPost(ctx, p.ID)
	require.NoError(t, err, "denied delete must leave the post in place")

	require.ErrorIs(t, env.posts.DeletePost(ctx, 0, p.ID), ErrUnauthorized)
	require.ErrorIs(t, env.posts.DeletePost(ctx, alice.ID, p.ID+100), ErrNotFound)

	require.NoError(t, env.posts.DeletePost(ctx, alice.ID, p.ID))
	_, err = env.posts.GetPost(ctx, p.ID)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, []uint{p.ID}, env.index.deleted)
	assert.Contains(t, env.events.Types(), EventPostDeleted)
}

func TestComments(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.signup(t, "alice")
	bob := env.signup(t, "bob")
	p := env.post(t, alice.ID, "post")

	_, err := env.posts.CreateComment(ctx, bob.ID, p.ID+1, transport.CreateCommentRequest{Content: "lost"})
	require.ErrorIs(t, err, ErrNotFound)
	_, err = env.posts.CreateComment(ctx, bob.ID, p.ID, transport.CreateCommentRequest{Content: ""})
	require.ErrorIs(t, err, ErrValidation)

	c, err := env.posts.CreateComment(ctx, bob.ID, p.ID, transport.CreateCommentRequest{Content: "first!"})
	require.NoError(t, err)
	assert.Equal(t, bob.ID, c.UserID)

	page, err := env.posts.ListComments(ctx, p.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	_, err = env.posts.ListComments(ctx, p.ID+1, 1, 10)
	require.ErrorIs(t, err, ErrNotFound)

	// the post owner does not own other people's comments
	require.ErrorIs(t, env.posts.DeleteComment(ctx, alice.ID, c.ID), ErrForbidden)
	require.NoError(t, env.posts.DeleteComment(ctx, bob.ID, c.ID))
	require.ErrorIs(t, env.posts.DeleteComment(ctx, bob.ID, c.ID), ErrNotFound)

	assert.Contains(t, env.events.Types(), EventCommentCreated)
	assert.Contains(t, env.events.Types(), EventCommentDeleted)
}

func TestLikes(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.signup(t, "alice")
	bob := env.signup(t, "bob")
	p := env.post(t, alice.ID, "likeable")

	n, err := env.posts.Like(ctx, alice.ID, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	n, err = env.posts.Like(ctx, bob.ID, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = env.posts.Like(ctx, bob.ID, p.ID)
	require.ErrorIs(t, err, ErrConflict)
	_, err = env.posts.Like(ctx, bob.ID, p.ID+1)
	require.ErrorIs(t, err, ErrNotFound)

	view, err := env.posts.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, view.Likes)

	n, err = env.posts.Unlike(ctx, bob.ID, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	_, err = env.posts.Unlike(ctx, bob.ID, p.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLike_RollsBackOnFailure(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.signup(t, "alice")
	p := env.post(t, alice.ID, "post")

	svc := &PostService{Store: brokenStore{Store: env.store, failCountLikes: true}}
	_, err := svc.Like(ctx, alice.ID, p.ID)
	require.ErrorIs(t, err, ErrInternal)

	var likes int64
	require.NoError(t, env.store.DB.Model(&models.Like{}).Count(&likes).Error)
	assert.Zero(t, likes, "the like insert must be rolled back")
}

func TestListPosts(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.signup(t, "alice")
	bob := env.signup(t, "bob")

	for i := 0; i < 5; i++ {
		env.post(t, alice.ID, fmt.Sprintf("alice %d", i))
	}
	env.post(t, bob.ID, "bob 0")

	page, err := env.posts.ListPosts(ctx, 0, 1, 4)
	require.NoError(t, err)
	assert.EqualValues(t, 6, page.Total)
	assert.Len(t, page.Items, 4)
	assert.Equal(t, 4, page.Size)

	page, err = env.posts.ListPosts(ctx, 0, 2, 4)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)

	page, err = env.posts.ListPosts(ctx, bob.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "bob 0", page.Items[0].Content)

	page, err = env.posts.ListPosts(ctx, 999, 1, 10)
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}

func TestSearchPosts(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.signup(t, "alice")

	p1 := env.post(t, alice.ID, "gophers love channels")
	p2 := env.post(t, alice.ID, "rustaceans love borrowing")
	env.post(t, alice.ID, "nothing to see")

	_, err := env.posts.SearchPosts(ctx, " ", 1, 10)
	require.ErrorIs(t, err, ErrValidation)

	t.Run("index order wins", func(t *testing.T) {
		env.index.hits = []uint{p2.ID, 9999, p1.ID}
		env.index.total = 3

		page, err := env.posts.SearchPosts(ctx, "love", 1, 10)
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, p2.ID, page.Items[0].ID)
		assert.Equal(t, p1.ID, page.Items[1].ID)
		assert.EqualValues(t, 3, page.Total)
	})

	t.Run("falls back to the store when the index fails", func(t *testing.T) {
		env.index.err = errors.New("es unavailable")

		page, err := env.posts.SearchPosts(ctx, "GOPHERS", 1, 10)
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, p1.ID, page.Items[0].ID)
	})

	t.Run("store search without an index", func(t *testing.T) {
		svc := &PostService{Store: env.store}
		page, err := svc.SearchPosts(ctx, "love", 1, 10)
		require.NoError(t, err)
		assert.EqualValues(t, 2, page.Total)
	})
}
