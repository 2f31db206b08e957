package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Post struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	Caption   string         `gorm:"size:2048" json:"caption"`
	ImageKey  string         `gorm:"size:512;not null" json:"imageKey"`
	UserID    string         `gorm:"size:36;index;not null" json:"userId"`
	User      *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Comments  []Comment      `gorm:"foreignKey:PostID" json:"comments,omitempty"`
	Likes     []Like         `gorm:"foreignKey:PostID" json:"likes,omitempty"`
	CreatedAt time.Time      `gorm:"index" json:"createdAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Post) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}
