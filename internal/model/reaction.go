package model

import (
	"time"
)

// Reaction attaches a typed reaction from one author to any reactable
// entity, identified by (reactable_id, reactable_type). The composite
// unique index guarantees at most one reaction per author per target.
type Reaction struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	AuthorID      uint      `gorm:"not null;index:idx_author_reactable,unique" json:"author_id"`
	ReactableID   uint      `gorm:"not null;index:idx_author_reactable,unique" json:"reactable_id"`
	ReactableType string    `gorm:"type:varchar(20);not null;index:idx_author_reactable,unique" json:"reactable_type"`
	Type          string    `gorm:"type:varchar(20);not null" json:"type"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	// ReactableID is polymorphic (post or comment), so no foreign key constraint
	Author User `gorm:"foreignKey:AuthorID;references:ID" json:"author,omitempty"`
}

// TableName specifies the table name
func (Reaction) TableName() string {
	return "reactions"
}

// Constants for reactable types
const (
	ReactableTypePost    = "post"
	ReactableTypeComment = "comment"
)

// Constants for reaction types
const (
	ReactionTypeLike    = "like"
	ReactionTypeDislike = "dislike"
)

// ReactionTypes lists every known reaction type. Summaries are
// zero-filled over this set so callers can always render all of them.
var ReactionTypes = []string{
	ReactionTypeLike,
	ReactionTypeDislike,
}

// IsValidReactionType reports whether t is a known reaction type.
func IsValidReactionType(t string) bool {
	for _, known := range ReactionTypes {
		if t == known {
			return true
		}
	}
	return false
}
