package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           string           `gorm:"primaryKey;size:36" json:"id"`
	Email        string           `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Name         string           `gorm:"size:255;not null" json:"name"`
	Bio          string           `gorm:"size:1024" json:"bio"`
	IconImageKey string           `gorm:"size:512" json:"iconImageKey"`
	Posts        []Post           `gorm:"foreignKey:UserID" json:"posts,omitempty"`
	Pets         []Pet            `gorm:"foreignKey:OwnerID" json:"pets,omitempty"`
	Comments     []Comment        `gorm:"foreignKey:UserID" json:"comments,omitempty"`
	Likes        []Like           `gorm:"foreignKey:UserID" json:"likes,omitempty"`
	Follows      []FollowRelation `gorm:"foreignKey:FromID" json:"follows,omitempty"`
	Followers    []FollowRelation `gorm:"foreignKey:ToID" json:"followers,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}
