package app

import (
	"errors"

	"socialfeed/internal/service"
	"socialfeed/internal/util"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps service sentinel errors onto HTTP responses
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrPostNotFound),
		errors.Is(err, service.ErrCommentNotFound),
		errors.Is(err, service.ErrParentCommentNotFound),
		errors.Is(err, service.ErrReactableNotFound):
		util.NotFound(c, err.Error())

	case errors.Is(err, service.ErrNotPostAuthor),
		errors.Is(err, service.ErrNotCommentAuthor):
		util.Forbidden(c, err.Error())

	case errors.Is(err, service.ErrInvalidCredentials):
		util.Unauthorized(c, err.Error())

	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrReactionConflict):
		util.Conflict(c, err.Error())

	case errors.Is(err, service.ErrInvalidReactionType),
		errors.Is(err, service.ErrReactableTypeNotSupported),
		errors.Is(err, util.ErrInvalidCursor):
		util.BadRequest(c, err.Error())

	default:
		util.InternalError(c, "Something went wrong")
	}
}
