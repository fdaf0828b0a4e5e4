package service

import (
	"errors"
	"time"

	"socialfeed/internal/model"
	"socialfeed/internal/repository"
	"socialfeed/internal/util"
)

// PostView is the assembled read model for one post.
type PostView struct {
	ID            uint            `json:"id"`
	Author        AuthorView      `json:"author"`
	Text          string          `json:"text"`
	Location      *string         `json:"location,omitempty"`
	IsHidden      bool            `json:"is_hidden"`
	ImageURLs     []string        `json:"image_urls"`
	Hashtags      []string        `json:"hashtags"`
	Reactions     ReactionSummary `json:"reactions"`
	CommentsCount int64           `json:"comments_count"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// PostPage is one page of posts plus the cursor for the next page.
type PostPage struct {
	Posts      []*PostView `json:"posts"`
	NextCursor *string     `json:"next_cursor"`
}

type CreatePostRequest struct {
	Text      string   `json:"text" binding:"required"`
	Location  *string  `json:"location,omitempty"`
	Hashtags  []string `json:"hashtags,omitempty"`
	ImageURLs []string `json:"-"`
}

type UpdatePostRequest struct {
	Text     *string  `json:"text,omitempty"`
	Location *string  `json:"location,omitempty"`
	Hashtags []string `json:"hashtags,omitempty"`
	IsHidden *bool    `json:"is_hidden,omitempty"`
}

type PostService interface {
	CreatePost(authorID uint, req CreatePostRequest) (*PostView, error)
	GetPost(postID, viewerID uint) (*PostView, error)
	GetPosts(cursor string, limit int, viewerID uint) (*PostPage, error)
	GetTrendingPosts(limit int, viewerID uint) ([]*PostView, error)
	UpdatePost(postID, authorID uint, req UpdatePostRequest) (*PostView, error)
	DeletePost(postID, authorID uint) error
}

type postService struct {
	postRepo        repository.PostRepository
	reactionService ReactionService
	commentService  CommentService
}

func NewPostService(
	postRepo repository.PostRepository,
	reactionService ReactionService,
	commentService CommentService,
) PostService {
	return &postService{
		postRepo:        postRepo,
		reactionService: reactionService,
		commentService:  commentService,
	}
}

func (s *postService) CreatePost(authorID uint, req CreatePostRequest) (*PostView, error) {
	post := &model.Post{
		AuthorID: authorID,
		Text:     req.Text,
		Location: req.Location,
	}
	if err := post.SetImageURLs(req.ImageURLs); err != nil {
		return nil, err
	}
	if err := post.SetHashtags(req.Hashtags); err != nil {
		return nil, err
	}

	if err := s.postRepo.Create(post); err != nil {
		return nil, err
	}

	return s.GetPost(post.ID, authorID)
}

func (s *postService) GetPost(postID, viewerID uint) (*PostView, error) {
	post, err := s.postRepo.FindByID(postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	reactions, err := s.reactionService.FindByReactable(postID, model.ReactableTypePost)
	if err != nil {
		return nil, err
	}

	commentsCount, err := s.commentService.CountByPost(postID)
	if err != nil {
		return nil, err
	}

	return s.toView(post, s.reactionService.Summarize(reactions, viewerID), commentsCount), nil
}

// GetPosts pages through visible posts, newest first, with the same
// timestamp-only cursor scheme as root comments.
func (s *postService) GetPosts(cursor string, limit int, viewerID uint) (*PostPage, error) {
	var before *time.Time
	if cursor != "" {
		t, err := util.DecodeTimeCursor(cursor)
		if err != nil {
			return nil, err
		}
		before = &t
	}

	posts, err := s.postRepo.FindPage(before, limit+1)
	if err != nil {
		return nil, err
	}

	hasMore := len(posts) > limit
	if hasMore {
		posts = posts[:limit]
	}

	views, err := s.assembleViews(posts, viewerID)
	if err != nil {
		return nil, err
	}

	var nextCursor *string
	if hasMore {
		token := util.EncodeTimeCursor(posts[len(posts)-1].CreatedAt)
		nextCursor = &token
	}

	return &PostPage{Posts: views, NextCursor: nextCursor}, nil
}

// GetTrendingPosts returns posts ordered by engagement score
func (s *postService) GetTrendingPosts(limit int, viewerID uint) ([]*PostView, error) {
	ids, err := s.postRepo.FindTrendingIDs(limit)
	if err != nil {
		return nil, err
	}

	posts, err := s.postRepo.FindByIDs(ids)
	if err != nil {
		return nil, err
	}

	// Restore engagement order lost by the IN query
	byID := make(map[uint]*model.Post, len(posts))
	for _, post := range posts {
		byID[post.ID] = post
	}
	ordered := make([]*model.Post, 0, len(posts))
	for _, id := range ids {
		if post, ok := byID[id]; ok && !post.IsHidden {
			ordered = append(ordered, post)
		}
	}

	return s.assembleViews(ordered, viewerID)
}

func (s *postService) UpdatePost(postID, authorID uint, req UpdatePostRequest) (*PostView, error) {
	post, err := s.postRepo.FindByID(postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	if post.AuthorID != authorID {
		return nil, ErrNotPostAuthor
	}

	if req.Text != nil {
		post.Text = *req.Text
	}
	if req.Location != nil {
		post.Location = req.Location
	}
	if req.Hashtags != nil {
		if err := post.SetHashtags(req.Hashtags); err != nil {
			return nil, err
		}
	}
	if req.IsHidden != nil {
		post.IsHidden = *req.IsHidden
	}

	if err := s.postRepo.Update(post); err != nil {
		return nil, err
	}

	return s.GetPost(postID, authorID)
}

func (s *postService) DeletePost(postID, authorID uint) error {
	post, err := s.postRepo.FindByID(postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPostNotFound
		}
		return err
	}

	if post.AuthorID != authorID {
		return ErrNotPostAuthor
	}

	return s.postRepo.Delete(postID)
}

// assembleViews builds views for a batch of posts with two grouped
// queries (comment counts, reactions) instead of two per post.
func (s *postService) assembleViews(posts []*model.Post, viewerID uint) ([]*PostView, error) {
	if len(posts) == 0 {
		return []*PostView{}, nil
	}

	ids := make([]uint, len(posts))
	for i, post := range posts {
		ids[i] = post.ID
	}

	commentCounts, err := s.commentService.CountByPosts(ids)
	if err != nil {
		return nil, err
	}

	reactions, err := s.reactionService.FindForMany(ids, model.ReactableTypePost)
	if err != nil {
		return nil, err
	}
	grouped := s.reactionService.GroupReactionsByID(reactions)

	views := make([]*PostView, len(posts))
	for i, post := range posts {
		summary := s.reactionService.Summarize(grouped[post.ID], viewerID)
		views[i] = s.toView(post, summary, commentCounts[post.ID])
	}
	return views, nil
}

func (s *postService) toView(post *model.Post, reactions ReactionSummary, commentsCount int64) *PostView {
	return &PostView{
		ID:            post.ID,
		Author:        toAuthorView(&post.Author),
		Text:          post.Text,
		Location:      post.Location,
		IsHidden:      post.IsHidden,
		ImageURLs:     post.GetImageURLs(),
		Hashtags:      post.GetHashtags(),
		Reactions:     reactions,
		CommentsCount: commentsCount,
		CreatedAt:     post.CreatedAt,
		UpdatedAt:     post.UpdatedAt,
	}
}
