package model

import (
	"time"
)

type Notification struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	SenderID   *uint     `json:"sender_id,omitempty"`
	Type       string    `gorm:"type:varchar(50);not null" json:"type"`
	Title      string    `gorm:"type:varchar(255);not null" json:"title"`
	Message    string    `gorm:"type:text" json:"message"`
	Data       string    `gorm:"type:jsonb" json:"data,omitempty"`
	TargetID   *uint     `json:"target_id,omitempty"`
	TargetType *string   `gorm:"type:varchar(20)" json:"target_type,omitempty"`
	IsRead     bool      `gorm:"default:false;index" json:"is_read"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relationships
	User   User  `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
	Sender *User `gorm:"foreignKey:SenderID;references:ID" json:"sender,omitempty"`
}

// TableName specifies the table name
func (Notification) TableName() string {
	return "notifications"
}

// Notification types
const (
	NotificationTypeComment  = "post_comment"
	NotificationTypeReply    = "comment_reply"
	NotificationTypeReaction = "reaction"
)
