package model

import (
	"time"

	"gorm.io/gorm"
)

// Comment is a node in a per-post comment tree. Roots have a nil
// ParentID. A soft-deleted comment keeps its row so children stay
// attached; DeletedAt is the tombstone marker.
type Comment struct {
	ID            uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID        uint           `gorm:"not null;index" json:"post_id"`
	AuthorID      uint           `gorm:"not null;index" json:"author_id"`
	ParentID      *uint          `gorm:"index" json:"parent_id,omitempty"`
	ReplyToUserID *uint          `json:"reply_to_user_id,omitempty"`
	Text          string         `gorm:"type:varchar(200);not null" json:"text"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Post        Post     `gorm:"foreignKey:PostID;references:ID" json:"post,omitempty"`
	Author      User     `gorm:"foreignKey:AuthorID;references:ID" json:"author,omitempty"`
	Parent      *Comment `gorm:"foreignKey:ParentID;references:ID" json:"parent,omitempty"`
	ReplyToUser *User    `gorm:"foreignKey:ReplyToUserID;references:ID" json:"reply_to_user,omitempty"`
}

// TableName specifies the table name
func (Comment) TableName() string {
	return "comments"
}

// IsRoot reports whether the comment anchors a thread (no parent).
func (c *Comment) IsRoot() bool {
	return c.ParentID == nil
}

// IsTombstoned reports whether the comment has been soft-deleted.
func (c *Comment) IsTombstoned() bool {
	return c.DeletedAt.Valid
}
