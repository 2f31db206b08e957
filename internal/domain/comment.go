package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Comment struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Content   string    `gorm:"size:1024;not null" json:"content"`
	PostID    string    `gorm:"size:36;index;not null" json:"postId"`
	Post      *Post     `gorm:"foreignKey:PostID" json:"post,omitempty"`
	UserID    string    `gorm:"size:36;index;not null" json:"userId"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (c *Comment) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}
