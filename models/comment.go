package models

import "time"

const commentDateLayout = "02/01/2006"

type Comment struct {
	Base
	MaterialID string `gorm:"type:uuid;not null;index" json:"materialId"`
	UserName   string `gorm:"not null" json:"userName"`
	Text       string `gorm:"type:text;not null" json:"text"`
	// Timestamp is the preformatted date older clients wrote. New rows leave it
	// empty and the display string is derived from CreatedAt.
	Timestamp string `json:"timestamp,omitempty"`
}

func (Comment) TableName() string {
	return "comments"
}

// DisplayTime is the pt-BR date shown next to a comment.
func (c Comment) DisplayTime() string {
	if !c.CreatedAt.IsZero() {
		return c.CreatedAt.In(time.Local).Format(commentDateLayout)
	}
	return c.Timestamp
}
