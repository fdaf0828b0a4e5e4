package service

import (
	"testing"
	"time"

	"socialfeed/internal/model"
	"socialfeed/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCommentFixture(t *testing.T) (*fixture, *model.Post) {
	t.Helper()
	f := newFixture()
	f.addUser(1, "alice")
	f.addUser(2, "bob")
	post := f.addPost(1, "hello", time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	return f, post
}

func TestCreateCommentAssemblesView(t *testing.T) {
	f, post := newCommentFixture(t)

	view, err := f.comments.CreateComment(2, CreateCommentRequest{
		PostID: post.ID,
		Text:   "first!",
	})
	require.NoError(t, err)

	assert.Equal(t, post.ID, view.PostID)
	assert.Nil(t, view.ParentID)
	assert.Equal(t, "first!", view.Text)
	assert.Equal(t, "bob", view.Author.Username)
	assert.Equal(t, int64(0), view.RepliesCount)
	assert.False(t, view.Deleted)
	for _, reactionType := range model.ReactionTypes {
		assert.Equal(t, int64(0), view.Reactions.Counts[reactionType])
	}

	assert.Equal(t, float64(1), f.postRepo.engagement[post.ID])
}

func TestCreateCommentMissingPost(t *testing.T) {
	f, _ := newCommentFixture(t)

	_, err := f.comments.CreateComment(2, CreateCommentRequest{PostID: 9999, Text: "hi"})
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestCreateReplyMissingParent(t *testing.T) {
	f, post := newCommentFixture(t)

	_, err := f.comments.CreateComment(2, CreateCommentRequest{
		PostID:   post.ID,
		Text:     "re",
		ParentID: uintPtr(9999),
	})
	assert.ErrorIs(t, err, ErrParentCommentNotFound)
}

func TestCreateReplyParentOnOtherPost(t *testing.T) {
	f, post := newCommentFixture(t)
	other := f.addPost(1, "second", time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC))
	parent := f.addComment(other.ID, 1, nil, "elsewhere", time.Now())

	_, err := f.comments.CreateComment(2, CreateCommentRequest{
		PostID:   post.ID,
		Text:     "re",
		ParentID: &parent.ID,
	})
	assert.ErrorIs(t, err, ErrParentCommentNotFound)
}

func TestCreateReplyLinksParentAndReplyTo(t *testing.T) {
	f, post := newCommentFixture(t)
	parent := f.addComment(post.ID, 1, nil, "root", time.Now())

	view, err := f.comments.CreateComment(2, CreateCommentRequest{
		PostID:        post.ID,
		Text:          "re",
		ParentID:      &parent.ID,
		ReplyToUserID: uintPtr(1),
	})
	require.NoError(t, err)

	require.NotNil(t, view.ParentID)
	assert.Equal(t, parent.ID, *view.ParentID)
	require.NotNil(t, view.ReplyToUser)
	assert.Equal(t, "alice", view.ReplyToUser.Username)

	parentView, err := f.comments.GetComment(parent.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), parentView.RepliesCount)
}

func TestGetCommentMissing(t *testing.T) {
	f, _ := newCommentFixture(t)

	_, err := f.comments.GetComment(9999, 0)
	assert.ErrorIs(t, err, ErrCommentNotFound)
}

func TestGetRootCommentsPaginatesExhaustively(t *testing.T) {
	f, post := newCommentFixture(t)
	base := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		f.addComment(post.ID, 1, nil, "root", base.Add(time.Duration(i)*time.Second))
	}

	var seen []uint
	cursor := ""
	pages := 0
	for {
		page, err := f.comments.GetRootComments(post.ID, cursor, 2, 0)
		require.NoError(t, err)
		pages++
		for _, view := range page.Comments {
			seen = append(seen, view.ID)
		}
		if page.NextCursor == nil {
			break
		}
		cursor = *page.NextCursor
	}

	// Newest first, every root exactly once
	assert.Equal(t, []uint{5, 4, 3, 2, 1}, seen)
	assert.Equal(t, 3, pages)
}

func TestGetRootCommentsExcludesReplies(t *testing.T) {
	f, post := newCommentFixture(t)
	root := f.addComment(post.ID, 1, nil, "root", time.Now())
	f.addComment(post.ID, 2, &root.ID, "re", time.Now())

	page, err := f.comments.GetRootComments(post.ID, "", 10, 0)
	require.NoError(t, err)
	require.Len(t, page.Comments, 1)
	assert.Equal(t, root.ID, page.Comments[0].ID)
}

func TestGetRootCommentsInvalidCursorFails(t *testing.T) {
	f, post := newCommentFixture(t)

	_, err := f.comments.GetRootComments(post.ID, "not-a-cursor", 10, 0)
	assert.ErrorIs(t, err, util.ErrInvalidCursor)
}

func TestGetRepliesTieBreakOnIdenticalTimestamps(t *testing.T) {
	f, post := newCommentFixture(t)
	root := f.addComment(post.ID, 1, nil, "root", time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC))

	// Three replies landing on the same timestamp
	ts := time.Date(2024, 3, 2, 12, 0, 1, 0, time.UTC)
	first := f.addComment(post.ID, 2, &root.ID, "a", ts)
	second := f.addComment(post.ID, 1, &root.ID, "b", ts)
	third := f.addComment(post.ID, 2, &root.ID, "c", ts)

	var seen []uint
	cursor := ""
	for {
		page, err := f.comments.GetReplies(root.ID, cursor, 1, 0)
		require.NoError(t, err)
		require.Len(t, page.Comments, 1)
		seen = append(seen, page.Comments[0].ID)
		if page.NextCursor == nil {
			break
		}
		cursor = *page.NextCursor
	}

	// The id tie-break keeps page order deterministic and exhaustive
	assert.Equal(t, []uint{first.ID, second.ID, third.ID}, seen)
}

func TestGetRepliesFlattensNestedThread(t *testing.T) {
	f, post := newCommentFixture(t)
	base := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)
	root := f.addComment(post.ID, 1, nil, "root", base)
	child := f.addComment(post.ID, 2, &root.ID, "re", base.Add(time.Second))
	grandchild := f.addComment(post.ID, 1, &child.ID, "re re", base.Add(2*time.Second))

	page, err := f.comments.GetReplies(root.ID, "", 10, 0)
	require.NoError(t, err)
	require.Len(t, page.Comments, 2)
	assert.Equal(t, child.ID, page.Comments[0].ID)
	assert.Equal(t, grandchild.ID, page.Comments[1].ID)
	assert.Nil(t, page.NextCursor)
}

func TestGetRepliesInvalidCursorYieldsEmptyPage(t *testing.T) {
	f, post := newCommentFixture(t)
	root := f.addComment(post.ID, 1, nil, "root", time.Now())
	f.addComment(post.ID, 2, &root.ID, "re", time.Now())

	page, err := f.comments.GetReplies(root.ID, "garbage!!!", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Comments)
	assert.Nil(t, page.NextCursor)
}

func TestGetRepliesMissingParent(t *testing.T) {
	f, _ := newCommentFixture(t)

	_, err := f.comments.GetReplies(9999, "", 10, 0)
	assert.ErrorIs(t, err, ErrCommentNotFound)
}

func TestGetRepliesSkipsTombstonesButTraversesThem(t *testing.T) {
	f, post := newCommentFixture(t)
	base := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)
	root := f.addComment(post.ID, 1, nil, "root", base)
	middle := f.addComment(post.ID, 2, &root.ID, "re", base.Add(time.Second))
	leaf := f.addComment(post.ID, 1, &middle.ID, "re re", base.Add(2*time.Second))

	require.NoError(t, f.comments.DeleteComment(middle.ID, 2))

	// The tombstoned middle reply drops out of the page but its child
	// stays reachable through it.
	page, err := f.comments.GetReplies(root.ID, "", 10, 0)
	require.NoError(t, err)
	require.Len(t, page.Comments, 1)
	assert.Equal(t, leaf.ID, page.Comments[0].ID)
}

func TestGetRepliesOfTombstonedParent(t *testing.T) {
	f, post := newCommentFixture(t)
	base := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)
	root := f.addComment(post.ID, 1, nil, "root", base)
	middle := f.addComment(post.ID, 2, &root.ID, "re", base.Add(time.Second))
	leaf := f.addComment(post.ID, 1, &middle.ID, "re re", base.Add(2*time.Second))

	require.NoError(t, f.comments.DeleteComment(middle.ID, 2))

	page, err := f.comments.GetReplies(middle.ID, "", 10, 0)
	require.NoError(t, err)
	require.Len(t, page.Comments, 1)
	assert.Equal(t, leaf.ID, page.Comments[0].ID)
}

func TestDeleteRootErasesSubtree(t *testing.T) {
	f, post := newCommentFixture(t)

	root, err := f.comments.CreateComment(1, CreateCommentRequest{PostID: post.ID, Text: "hi"})
	require.NoError(t, err)
	reply, err := f.comments.CreateComment(1, CreateCommentRequest{
		PostID:   post.ID,
		Text:     "re",
		ParentID: &root.ID,
	})
	require.NoError(t, err)

	require.NoError(t, f.comments.DeleteComment(root.ID, 1))

	_, err = f.comments.GetComment(root.ID, 0)
	assert.ErrorIs(t, err, ErrCommentNotFound)
	_, err = f.comments.GetComment(reply.ID, 0)
	assert.ErrorIs(t, err, ErrCommentNotFound)

	count, err := f.comments.CountByPost(post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestDeleteReplyTombstones(t *testing.T) {
	f, post := newCommentFixture(t)
	base := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)
	root := f.addComment(post.ID, 1, nil, "root", base)
	reply := f.addComment(post.ID, 2, &root.ID, "re", base.Add(time.Second))
	sibling := f.addComment(post.ID, 1, &root.ID, "also", base.Add(2*time.Second))

	require.NoError(t, f.comments.DeleteComment(reply.ID, 2))

	// The tombstone stays addressable, with its text withheld
	view, err := f.comments.GetComment(reply.ID, 0)
	require.NoError(t, err)
	assert.True(t, view.Deleted)
	assert.Empty(t, view.Text)

	rootView, err := f.comments.GetComment(root.ID, 0)
	require.NoError(t, err)
	assert.False(t, rootView.Deleted)

	siblingView, err := f.comments.GetComment(sibling.ID, 0)
	require.NoError(t, err)
	assert.False(t, siblingView.Deleted)
}

func TestDeleteCommentAuthorOnly(t *testing.T) {
	f, post := newCommentFixture(t)
	root := f.addComment(post.ID, 1, nil, "root", time.Now())

	err := f.comments.DeleteComment(root.ID, 2)
	assert.ErrorIs(t, err, ErrNotCommentAuthor)

	_, err = f.comments.GetComment(root.ID, 0)
	assert.NoError(t, err)
}

func TestUpdateComment(t *testing.T) {
	f, post := newCommentFixture(t)
	root := f.addComment(post.ID, 1, nil, "root", time.Now())

	view, err := f.comments.UpdateComment(root.ID, 1, UpdateCommentRequest{Text: "edited"})
	require.NoError(t, err)
	assert.Equal(t, "edited", view.Text)

	_, err = f.comments.UpdateComment(root.ID, 2, UpdateCommentRequest{Text: "hijack"})
	assert.ErrorIs(t, err, ErrNotCommentAuthor)
}

func TestUpdateTombstonedCommentFails(t *testing.T) {
	f, post := newCommentFixture(t)
	root := f.addComment(post.ID, 1, nil, "root", time.Now())
	reply := f.addComment(post.ID, 2, &root.ID, "re", time.Now())

	require.NoError(t, f.comments.DeleteComment(reply.ID, 2))

	_, err := f.comments.UpdateComment(reply.ID, 2, UpdateCommentRequest{Text: "resurrect"})
	assert.ErrorIs(t, err, ErrCommentNotFound)
}

func TestCountByPostsZeroFills(t *testing.T) {
	f, post := newCommentFixture(t)
	other := f.addPost(1, "quiet", time.Now())
	f.addComment(post.ID, 1, nil, "root", time.Now())

	counts, err := f.comments.CountByPosts([]uint{post.ID, other.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[post.ID])
	assert.Equal(t, int64(0), counts[other.ID])
}
