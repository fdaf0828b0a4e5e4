package app

import (
	"net/http"
	"strconv"

	"socialfeed/internal/service"
	"socialfeed/internal/util"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	commentService service.CommentService
}

func NewCommentHandler(commentService service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// CreateComment handles comment creation
// POST /api/v1/comments
func (h *CommentHandler) CreateComment(c *gin.Context) {
	userID := currentUserID(c)
	if userID == 0 {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	var req service.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	comment, err := h.commentService.CreateComment(userID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusCreated, "Comment created successfully", gin.H{"comment": comment})
}

// GetComment handles getting a comment by ID
// GET /api/v1/comments/:id
func (h *CommentHandler) GetComment(c *gin.Context) {
	commentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	comment, err := h.commentService.GetComment(commentID, currentUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Comment retrieved successfully", gin.H{"comment": comment})
}

// GetCommentsByPost handles getting root comments for a post
// GET /api/v1/posts/:id/comments
func (h *CommentHandler) GetCommentsByPost(c *gin.Context) {
	postID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	cursor := c.Query("cursor")
	limit := parseLimit(c, 20)

	page, err := h.commentService.GetRootComments(postID, cursor, limit, currentUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Comments retrieved successfully", page)
}

// GetReplies handles getting the reply thread under a comment
// GET /api/v1/comments/:id/replies
func (h *CommentHandler) GetReplies(c *gin.Context) {
	commentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	cursor := c.Query("cursor")
	limit := parseLimit(c, 20)

	page, err := h.commentService.GetReplies(commentID, cursor, limit, currentUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Replies retrieved successfully", page)
}

// GetCommentCount handles counting a post's comments
// GET /api/v1/posts/:id/comments/count
func (h *CommentHandler) GetCommentCount(c *gin.Context) {
	postID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	count, err := h.commentService.CountByPost(postID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Comment count retrieved successfully", gin.H{"count": count})
}

// UpdateComment handles editing a comment's text
// PUT /api/v1/comments/:id
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	userID := currentUserID(c)
	if userID == 0 {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	commentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req service.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	comment, err := h.commentService.UpdateComment(commentID, userID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Comment updated successfully", gin.H{"comment": comment})
}

// DeleteComment handles comment deletion
// DELETE /api/v1/comments/:id
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	userID := currentUserID(c)
	if userID == 0 {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	commentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.commentService.DeleteComment(commentID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Comment deleted successfully", nil)
}

// parseIDParam parses a numeric path parameter, writing the error
// response itself on failure.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		util.BadRequest(c, "Invalid "+name+" parameter")
		return 0, false
	}
	return uint(id), true
}

func parseLimit(c *gin.Context, fallback int) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(fallback)))
	if err != nil || limit < 1 {
		limit = fallback
	}
	if limit > 100 {
		limit = 100
	}
	return limit
}
