package service

import (
	"errors"
	"fmt"
	"time"

	"socialfeed/internal/model"
	"socialfeed/internal/repository"
	"socialfeed/internal/util"
)

// AuthorView is the display shape of a comment or post author.
type AuthorView struct {
	ID        uint    `json:"id"`
	Username  string  `json:"username"`
	FullName  string  `json:"full_name"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// CommentView is the assembled read model for one comment: author,
// reaction summary and direct reply count included. For a tombstoned
// comment Deleted is true and the text is withheld.
type CommentView struct {
	ID           uint            `json:"id"`
	PostID       uint            `json:"post_id"`
	ParentID     *uint           `json:"parent_id,omitempty"`
	Text         string          `json:"text"`
	Author       AuthorView      `json:"author"`
	ReplyToUser  *AuthorView     `json:"reply_to_user,omitempty"`
	Reactions    ReactionSummary `json:"reactions"`
	RepliesCount int64           `json:"replies_count"`
	Deleted      bool            `json:"deleted"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// CommentPage is one page of comments plus the opaque cursor for the
// next page, nil when the listing is exhausted.
type CommentPage struct {
	Comments   []*CommentView `json:"comments"`
	NextCursor *string        `json:"next_cursor"`
}

type CreateCommentRequest struct {
	PostID        uint    `json:"post_id" binding:"required"`
	Text          string  `json:"text" binding:"required,max=200"`
	ParentID      *uint   `json:"parent_id,omitempty"`
	ReplyToUserID *uint   `json:"reply_to_user_id,omitempty"`
}

type UpdateCommentRequest struct {
	Text string `json:"text" binding:"required,max=200"`
}

type CommentService interface {
	CreateComment(authorID uint, req CreateCommentRequest) (*CommentView, error)
	GetComment(commentID, viewerID uint) (*CommentView, error)
	GetRootComments(postID uint, cursor string, limit int, viewerID uint) (*CommentPage, error)
	GetReplies(parentID uint, cursor string, limit int, viewerID uint) (*CommentPage, error)
	UpdateComment(commentID, authorID uint, req UpdateCommentRequest) (*CommentView, error)
	DeleteComment(commentID, authorID uint) error
	CountByPost(postID uint) (int64, error)
	CountByPosts(postIDs []uint) (map[uint]int64, error)
}

type commentService struct {
	commentRepo         repository.CommentRepository
	postRepo            repository.PostRepository
	reactionService     ReactionService
	notificationService NotificationService
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	reactionService ReactionService,
	notificationService NotificationService,
) CommentService {
	return &commentService{
		commentRepo:         commentRepo,
		postRepo:            postRepo,
		reactionService:     reactionService,
		notificationService: notificationService,
	}
}

// CreateComment inserts a root comment or a reply and returns the
// assembled view.
func (s *commentService) CreateComment(authorID uint, req CreateCommentRequest) (*CommentView, error) {
	post, err := s.postRepo.FindByID(req.PostID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	var parent *model.Comment
	if req.ParentID != nil {
		parent, err = s.commentRepo.FindByID(*req.ParentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrParentCommentNotFound
			}
			return nil, err
		}
		if parent.PostID != req.PostID {
			return nil, ErrParentCommentNotFound
		}
	}

	comment := &model.Comment{
		PostID:        req.PostID,
		AuthorID:      authorID,
		ParentID:      req.ParentID,
		ReplyToUserID: req.ReplyToUserID,
		Text:          req.Text,
	}

	if err := s.commentRepo.Create(comment); err != nil {
		return nil, err
	}

	s.postRepo.BumpEngagementScore(req.PostID, 1)
	s.notifyCommentCreated(comment, post, parent)

	return s.GetComment(comment.ID, authorID)
}

// GetComment fetches one comment including tombstones, so permalinks to
// soft-deleted comments keep resolving.
func (s *commentService) GetComment(commentID, viewerID uint) (*CommentView, error) {
	comment, err := s.commentRepo.FindByIDWithDeleted(commentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}

	repliesCount, err := s.commentRepo.CountByParentID(commentID)
	if err != nil {
		return nil, err
	}

	reactions, err := s.reactionService.FindByReactable(commentID, model.ReactableTypeComment)
	if err != nil {
		return nil, err
	}

	view := s.toView(comment, s.reactionService.Summarize(reactions, viewerID), repliesCount)
	return view, nil
}

// GetRootComments pages through a post's root comments, newest first.
// The cursor is a timestamp-only token and the predicate is a plain
// createdAt < cursor: there is no tie-break key, so rows sharing the
// boundary timestamp can be skipped or repeated. Reply pagination has
// the stronger compound cursor; the two are intentionally not unified.
func (s *commentService) GetRootComments(postID uint, cursor string, limit int, viewerID uint) (*CommentPage, error) {
	var before *time.Time
	if cursor != "" {
		t, err := util.DecodeTimeCursor(cursor)
		if err != nil {
			return nil, err
		}
		before = &t
	}

	comments, err := s.commentRepo.FindRootsByPost(postID, before, limit+1)
	if err != nil {
		return nil, err
	}

	hasMore := len(comments) > limit
	if hasMore {
		comments = comments[:limit]
	}

	views, err := s.assembleViews(comments, viewerID)
	if err != nil {
		return nil, err
	}

	var nextCursor *string
	if hasMore {
		token := util.EncodeTimeCursor(comments[len(comments)-1].CreatedAt)
		nextCursor = &token
	}

	return &CommentPage{Comments: views, NextCursor: nextCursor}, nil
}

// GetReplies pages through the flattened descendant set of a comment in
// (createdAt ASC, id ASC) order. The compound cursor makes the order
// deterministic under identical timestamps. An undecodable cursor
// yields an empty page instead of an error.
func (s *commentService) GetReplies(parentID uint, cursor string, limit int, viewerID uint) (*CommentPage, error) {
	// Tombstoned parents still serve their thread
	exists, err := s.commentRepo.ExistsByIDWithDeleted(parentID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrCommentNotFound
	}

	descendantIDs, err := s.commentRepo.FindDescendantIDs(parentID)
	if err != nil {
		return nil, err
	}
	if len(descendantIDs) == 0 {
		return &CommentPage{Comments: []*CommentView{}, NextCursor: nil}, nil
	}

	var replyCursor *repository.ReplyCursor
	if cursor != "" {
		createdAt, id, err := util.DecodeCursor(cursor)
		if err != nil {
			return &CommentPage{Comments: []*CommentView{}, NextCursor: nil}, nil
		}
		replyCursor = &repository.ReplyCursor{CreatedAt: createdAt, ID: id}
	}

	replies, err := s.commentRepo.FindRepliesPage(descendantIDs, replyCursor, limit+1)
	if err != nil {
		return nil, err
	}

	hasMore := len(replies) > limit
	page := replies
	if hasMore {
		page = replies[:limit]
	}

	views, err := s.assembleViews(page, viewerID)
	if err != nil {
		return nil, err
	}

	var nextCursor *string
	if hasMore {
		// The cursor marks the last returned row; the strict compound
		// predicate resumes exactly one row past it even when the
		// boundary timestamp collides with its neighbors.
		boundary := page[len(page)-1]
		token := util.EncodeCursor(boundary.CreatedAt, boundary.ID)
		nextCursor = &token
	}

	return &CommentPage{Comments: views, NextCursor: nextCursor}, nil
}

// UpdateComment rewrites the text of a live comment, author-only.
func (s *commentService) UpdateComment(commentID, authorID uint, req UpdateCommentRequest) (*CommentView, error) {
	comment, err := s.commentRepo.FindByID(commentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}

	if comment.AuthorID != authorID {
		return nil, ErrNotCommentAuthor
	}

	comment.Text = req.Text
	if err := s.commentRepo.Update(comment); err != nil {
		return nil, err
	}

	return s.GetComment(commentID, authorID)
}

// DeleteComment applies the bifurcated deletion policy. A root comment
// takes its whole subtree with it permanently: there is no meaningful
// "replies under a gone thread origin". A reply is only tombstoned so
// its siblings and children stay attached and visible.
func (s *commentService) DeleteComment(commentID, authorID uint) error {
	comment, err := s.commentRepo.FindByID(commentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCommentNotFound
		}
		return err
	}

	if comment.AuthorID != authorID {
		return ErrNotCommentAuthor
	}

	if comment.IsRoot() {
		err = s.commentRepo.Transaction(func(txRepo repository.CommentRepository) error {
			descendantIDs, err := txRepo.FindDescendantIDs(commentID)
			if err != nil {
				return err
			}
			return txRepo.HardDelete(append(descendantIDs, commentID))
		})
	} else {
		err = s.commentRepo.SoftDelete(commentID)
	}
	if err != nil {
		return err
	}

	s.postRepo.BumpEngagementScore(comment.PostID, -1)
	return nil
}

// CountByPost counts a post's live comments, replies included
func (s *commentService) CountByPost(postID uint) (int64, error) {
	return s.commentRepo.CountByPostID(postID)
}

// CountByPosts counts live comments for a set of posts in one grouped
// query, zero-filled for posts without comments.
func (s *commentService) CountByPosts(postIDs []uint) (map[uint]int64, error) {
	return s.commentRepo.CountByPostIDs(postIDs)
}

// assembleViews builds views for a batch of comments with two grouped
// queries (reply counts, reactions) instead of two queries per comment.
func (s *commentService) assembleViews(comments []*model.Comment, viewerID uint) ([]*CommentView, error) {
	if len(comments) == 0 {
		return []*CommentView{}, nil
	}

	ids := make([]uint, len(comments))
	for i, comment := range comments {
		ids[i] = comment.ID
	}

	repliesCounts, err := s.commentRepo.CountByParentIDs(ids)
	if err != nil {
		return nil, err
	}

	reactions, err := s.reactionService.FindForMany(ids, model.ReactableTypeComment)
	if err != nil {
		return nil, err
	}
	grouped := s.reactionService.GroupReactionsByID(reactions)

	views := make([]*CommentView, len(comments))
	for i, comment := range comments {
		summary := s.reactionService.Summarize(grouped[comment.ID], viewerID)
		views[i] = s.toView(comment, summary, repliesCounts[comment.ID])
	}
	return views, nil
}

func (s *commentService) toView(comment *model.Comment, reactions ReactionSummary, repliesCount int64) *CommentView {
	view := &CommentView{
		ID:           comment.ID,
		PostID:       comment.PostID,
		ParentID:     comment.ParentID,
		Text:         comment.Text,
		Author:       toAuthorView(&comment.Author),
		Reactions:    reactions,
		RepliesCount: repliesCount,
		Deleted:      comment.IsTombstoned(),
		CreatedAt:    comment.CreatedAt,
		UpdatedAt:    comment.UpdatedAt,
	}

	if comment.IsTombstoned() {
		view.Text = ""
	}

	if comment.ReplyToUser != nil {
		replyTo := toAuthorView(comment.ReplyToUser)
		view.ReplyToUser = &replyTo
	}

	return view
}

func (s *commentService) notifyCommentCreated(comment *model.Comment, post *model.Post, parent *model.Comment) {
	if s.notificationService == nil {
		return
	}

	if parent != nil {
		if parent.AuthorID == comment.AuthorID {
			return
		}
		go func() {
			if err := s.notificationService.SendReplyNotification(parent.AuthorID, comment.AuthorID, comment.ID, comment.PostID); err != nil {
				fmt.Printf("Failed to send reply notification: %v\n", err)
			}
		}()
		return
	}

	if post.AuthorID == comment.AuthorID {
		return
	}
	go func() {
		if err := s.notificationService.SendCommentNotification(post.AuthorID, comment.AuthorID, comment.ID, comment.PostID); err != nil {
			fmt.Printf("Failed to send comment notification: %v\n", err)
		}
	}()
}

func toAuthorView(user *model.User) AuthorView {
	return AuthorView{
		ID:        user.ID,
		Username:  user.Username,
		FullName:  user.FullName,
		AvatarURL: user.AvatarURL,
	}
}
