package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FollowRelation struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	FromID    string    `gorm:"size:36;index:idx_from_to,unique;not null" json:"fromId"`
	ToID      string    `gorm:"size:36;index:idx_from_to,unique;not null" json:"toId"`
	Follower  *User     `gorm:"foreignKey:FromID" json:"follower,omitempty"`
	Followed  *User     `gorm:"foreignKey:ToID" json:"followed,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (f *FollowRelation) BeforeCreate(_ *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return nil
}
