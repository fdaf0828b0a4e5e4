package app

import (
	"log"
	"net/http"

	"socialfeed/internal/model"
	"socialfeed/internal/service"
	"socialfeed/internal/util"

	"github.com/gin-gonic/gin"
)

type ReactionHandler struct {
	reactionService     service.ReactionService
	postService         service.PostService
	commentService      service.CommentService
	notificationService service.NotificationService
}

func NewReactionHandler(
	reactionService service.ReactionService,
	postService service.PostService,
	commentService service.CommentService,
	notificationService service.NotificationService,
) *ReactionHandler {
	return &ReactionHandler{
		reactionService:     reactionService,
		postService:         postService,
		commentService:      commentService,
		notificationService: notificationService,
	}
}

type reactionRequest struct {
	Type string `json:"type" binding:"required,reactiontype"`
}

// ReactToPost toggles the caller's reaction on a post
// POST /api/v1/posts/:id/reactions
func (h *ReactionHandler) ReactToPost(c *gin.Context) {
	h.react(c, model.ReactableTypePost)
}

// ReactToComment toggles the caller's reaction on a comment
// POST /api/v1/comments/:id/reactions
func (h *ReactionHandler) ReactToComment(c *gin.Context) {
	h.react(c, model.ReactableTypeComment)
}

func (h *ReactionHandler) react(c *gin.Context, reactableType string) {
	userID := currentUserID(c)
	if userID == 0 {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	reactableID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req reactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	result, err := h.reactionService.HandleReaction(userID, reactableID, reactableType, req.Type)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if result.Status != service.ReactionStatusRemoved {
		h.notifyOwner(userID, reactableID, reactableType, req.Type)
	}

	util.SuccessResponse(c, http.StatusOK, "Reaction processed successfully", result)
}

// GetPostReactions returns the reaction summary for a post
// GET /api/v1/posts/:id/reactions
func (h *ReactionHandler) GetPostReactions(c *gin.Context) {
	h.getReactions(c, model.ReactableTypePost)
}

// GetCommentReactions returns the reaction summary for a comment
// GET /api/v1/comments/:id/reactions
func (h *ReactionHandler) GetCommentReactions(c *gin.Context) {
	h.getReactions(c, model.ReactableTypeComment)
}

func (h *ReactionHandler) getReactions(c *gin.Context, reactableType string) {
	reactableID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	reactions, err := h.reactionService.FindByReactable(reactableID, reactableType)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	summary := h.reactionService.Summarize(reactions, currentUserID(c))
	util.SuccessResponse(c, http.StatusOK, "Reactions retrieved successfully", summary)
}

// notifyOwner pushes a reaction notification to the content owner,
// skipping self-reactions. Lookup failures only cost the notification.
func (h *ReactionHandler) notifyOwner(senderID, reactableID uint, reactableType, reactionType string) {
	if h.notificationService == nil {
		return
	}

	var ownerID uint
	switch reactableType {
	case model.ReactableTypePost:
		post, err := h.postService.GetPost(reactableID, 0)
		if err != nil {
			return
		}
		ownerID = post.Author.ID
	case model.ReactableTypeComment:
		comment, err := h.commentService.GetComment(reactableID, 0)
		if err != nil {
			return
		}
		ownerID = comment.Author.ID
	default:
		return
	}

	if ownerID == senderID {
		return
	}

	go func() {
		if err := h.notificationService.SendReactionNotification(ownerID, senderID, reactableID, reactableType, reactionType); err != nil {
			log.Printf("Failed to send reaction notification: %v", err)
		}
	}()
}
