package model

import (
	"encoding/json"
	"time"
)

type Post struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	Location  *string   `gorm:"type:varchar(255)" json:"location,omitempty"`
	IsHidden  bool      `gorm:"default:false" json:"is_hidden"`
	ImageURLs string    `gorm:"type:jsonb" json:"-"` // Array of image URLs stored as JSON
	Hashtags  string    `gorm:"type:jsonb" json:"-"` // Array of hashtags stored as JSON
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Author User `gorm:"foreignKey:AuthorID;references:ID" json:"author,omitempty"`
}

// TableName specifies the table name
func (Post) TableName() string {
	return "posts"
}

// GetImageURLs returns ImageURLs as a slice of strings
func (p *Post) GetImageURLs() []string {
	return decodeJSONList(p.ImageURLs)
}

// SetImageURLs sets ImageURLs from a slice of strings
func (p *Post) SetImageURLs(urls []string) error {
	encoded, err := encodeJSONList(urls)
	if err != nil {
		return err
	}
	p.ImageURLs = encoded
	return nil
}

// GetHashtags returns Hashtags as a slice of strings
func (p *Post) GetHashtags() []string {
	return decodeJSONList(p.Hashtags)
}

// SetHashtags sets Hashtags from a slice of strings
func (p *Post) SetHashtags(tags []string) error {
	encoded, err := encodeJSONList(tags)
	if err != nil {
		return err
	}
	p.Hashtags = encoded
	return nil
}

func decodeJSONList(raw string) []string {
	if raw == "" || raw == "[]" {
		return []string{}
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return []string{}
	}
	return items
}

func encodeJSONList(items []string) (string, error) {
	if len(items) == 0 {
		// Empty JSON array instead of empty string for PostgreSQL JSONB
		return "[]", nil
	}
	bytes, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}
