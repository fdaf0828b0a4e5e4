package service

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email or username already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrPostNotFound  = errors.New("post not found")
	ErrNotPostAuthor = errors.New("you can only modify your own posts")

	ErrCommentNotFound       = errors.New("comment not found")
	ErrParentCommentNotFound = errors.New("parent comment not found")
	ErrNotCommentAuthor      = errors.New("you can only modify your own comments")

	ErrReactableTypeNotSupported = errors.New("reactable type not supported")
	ErrReactableNotFound         = errors.New("reactable not found")
	ErrInvalidReactionType       = errors.New("invalid reaction type")
	// ErrReactionConflict is returned when two toggles race on the
	// uniqueness constraint and the retry loses again.
	ErrReactionConflict = errors.New("conflicting reaction update, please retry")
)
