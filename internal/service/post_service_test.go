package service

import (
	"testing"
	"time"

	"socialfeed/internal/model"
	"socialfeed/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture()
	f.addUser(1, "alice")
	f.addUser(2, "bob")
	return f
}

func TestCreatePostAssemblesView(t *testing.T) {
	f := newPostFixture(t)

	location := "Oslo"
	view, err := f.posts.CreatePost(1, CreatePostRequest{
		Text:      "hello world",
		Location:  &location,
		Hashtags:  []string{"intro"},
		ImageURLs: []string{"https://cdn.example.com/a.webp"},
	})
	require.NoError(t, err)

	assert.Equal(t, "hello world", view.Text)
	assert.Equal(t, "alice", view.Author.Username)
	assert.Equal(t, []string{"intro"}, view.Hashtags)
	assert.Equal(t, []string{"https://cdn.example.com/a.webp"}, view.ImageURLs)
	assert.Equal(t, int64(0), view.CommentsCount)
	for _, reactionType := range model.ReactionTypes {
		assert.Equal(t, int64(0), view.Reactions.Counts[reactionType])
	}
}

func TestGetPostsPaginatesNewestFirst(t *testing.T) {
	f := newPostFixture(t)
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		f.addPost(1, "post", base.Add(time.Duration(i)*time.Minute))
	}

	page, err := f.posts.GetPosts("", 2, 0)
	require.NoError(t, err)
	require.Len(t, page.Posts, 2)
	assert.Equal(t, uint(3), page.Posts[0].ID)
	assert.Equal(t, uint(2), page.Posts[1].ID)
	require.NotNil(t, page.NextCursor)

	page, err = f.posts.GetPosts(*page.NextCursor, 2, 0)
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, uint(1), page.Posts[0].ID)
	assert.Nil(t, page.NextCursor)
}

func TestGetPostsInvalidCursorFails(t *testing.T) {
	f := newPostFixture(t)

	_, err := f.posts.GetPosts("###", 10, 0)
	assert.ErrorIs(t, err, util.ErrInvalidCursor)
}

func TestGetPostsSkipsHidden(t *testing.T) {
	f := newPostFixture(t)
	visible := f.addPost(1, "visible", time.Now())
	hidden := f.addPost(1, "hidden", time.Now().Add(time.Second))
	hidden.IsHidden = true
	require.NoError(t, f.postRepo.Update(hidden))

	page, err := f.posts.GetPosts("", 10, 0)
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, visible.ID, page.Posts[0].ID)
}

func TestGetTrendingPostsOrdersByEngagement(t *testing.T) {
	f := newPostFixture(t)
	quiet := f.addPost(1, "quiet", time.Now())
	busy := f.addPost(1, "busy", time.Now())

	// Two comments on the busy post, one on the quiet one
	_, err := f.comments.CreateComment(2, CreateCommentRequest{PostID: busy.ID, Text: "a"})
	require.NoError(t, err)
	_, err = f.comments.CreateComment(1, CreateCommentRequest{PostID: busy.ID, Text: "b"})
	require.NoError(t, err)
	_, err = f.comments.CreateComment(2, CreateCommentRequest{PostID: quiet.ID, Text: "c"})
	require.NoError(t, err)

	trending, err := f.posts.GetTrendingPosts(10, 0)
	require.NoError(t, err)
	require.Len(t, trending, 2)
	assert.Equal(t, busy.ID, trending[0].ID)
	assert.Equal(t, quiet.ID, trending[1].ID)
	assert.Equal(t, int64(2), trending[0].CommentsCount)
}

func TestGetPostMissing(t *testing.T) {
	f := newPostFixture(t)

	_, err := f.posts.GetPost(9999, 0)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestUpdatePostAuthorOnly(t *testing.T) {
	f := newPostFixture(t)
	post := f.addPost(1, "original", time.Now())

	text := "edited"
	view, err := f.posts.UpdatePost(post.ID, 1, UpdatePostRequest{Text: &text})
	require.NoError(t, err)
	assert.Equal(t, "edited", view.Text)

	_, err = f.posts.UpdatePost(post.ID, 2, UpdatePostRequest{Text: &text})
	assert.ErrorIs(t, err, ErrNotPostAuthor)
}

func TestDeletePostAuthorOnly(t *testing.T) {
	f := newPostFixture(t)
	post := f.addPost(1, "doomed", time.Now())

	err := f.posts.DeletePost(post.ID, 2)
	assert.ErrorIs(t, err, ErrNotPostAuthor)

	require.NoError(t, f.posts.DeletePost(post.ID, 1))
	_, err = f.posts.GetPost(post.ID, 0)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestPostViewIncludesViewerReaction(t *testing.T) {
	f := newPostFixture(t)
	post := f.addPost(1, "hello", time.Now())

	_, err := f.reactions.HandleReaction(2, post.ID, model.ReactableTypePost, model.ReactionTypeLike)
	require.NoError(t, err)

	view, err := f.posts.GetPost(post.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), view.Reactions.Counts[model.ReactionTypeLike])
	require.NotNil(t, view.Reactions.CurrentUserReaction)
	assert.Equal(t, model.ReactionTypeLike, *view.Reactions.CurrentUserReaction)

	anonymous, err := f.posts.GetPost(post.ID, 0)
	require.NoError(t, err)
	assert.Nil(t, anonymous.Reactions.CurrentUserReaction)
}
